// Package qasm3 is the native object model for OpenQASM 3 programs. The
// dialect carries symbolic gate parameters declared with `input float`,
// `ctrl @` gate modifiers and assignment-style measurement.
package qasm3

import (
	"strconv"
	"strings"
)

type Program struct {
	Version  string
	Includes []string
	Inputs   []string
	QRegs    []Register
	CRegs    []Register
	Stmts    []Stmt
}

type Register struct {
	Name string
	Size int
}

type Ref struct {
	Reg   string
	Index int
}

// Arg is one gate argument: a bound Number or a symbolic Sym naming an
// input declaration. The set of variants is closed.
type Arg interface {
	IsArg()
}

type Number float64

func (Number) IsArg() {}

type Sym string

func (Sym) IsArg() {}

type Stmt interface {
	IsStmt()
}

// GateStmt is a gate call. Ctrls counts `ctrl @` modifier applications;
// Name is the base gate name with modifiers stripped.
type GateStmt struct {
	Name   string
	Ctrls  int
	Params []Arg
	Qubits []Ref
}

func (GateStmt) IsStmt() {}

type MeasureStmt struct {
	Bit   Ref
	Qubit Ref
}

func (MeasureStmt) IsStmt() {}

func NewProgram() *Program {
	return &Program{
		Version:  "3",
		Includes: []string{"stdgates.inc"},
	}
}

func (p *Program) AddInput(name string) {
	for _, in := range p.Inputs {
		if in == name {
			return
		}
	}
	p.Inputs = append(p.Inputs, name)
}

func (p *Program) AddQReg(name string, size int) {
	p.QRegs = append(p.QRegs, Register{Name: name, Size: size})
}

func (p *Program) AddCReg(name string, size int) {
	p.CRegs = append(p.CRegs, Register{Name: name, Size: size})
}

func (p *Program) AddGate(name string, ctrls int, params []Arg, qubits ...Ref) {
	p.Stmts = append(p.Stmts, GateStmt{Name: name, Ctrls: ctrls, Params: params, Qubits: qubits})
}

func (p *Program) AddMeasure(qubit, bit Ref) {
	p.Stmts = append(p.Stmts, MeasureStmt{Bit: bit, Qubit: qubit})
}

func (p *Program) QubitCount() int {
	n := 0
	for _, r := range p.QRegs {
		n += r.Size
	}
	return n
}

func (p *Program) ClbitCount() int {
	n := 0
	for _, r := range p.CRegs {
		n += r.Size
	}
	return n
}

// Serialize emits canonical OpenQASM 3 text with assignment-style
// measurement.
func (p *Program) Serialize() string {
	var b strings.Builder
	version := p.Version
	if version == "" {
		version = "3"
	}
	b.WriteString("OPENQASM " + version + ";\n")
	for _, inc := range p.Includes {
		b.WriteString("include \"" + inc + "\";\n")
	}
	for _, in := range p.Inputs {
		b.WriteString("input float " + in + ";\n")
	}
	for _, r := range p.QRegs {
		b.WriteString("qubit[" + strconv.Itoa(r.Size) + "] " + r.Name + ";\n")
	}
	for _, r := range p.CRegs {
		b.WriteString("bit[" + strconv.Itoa(r.Size) + "] " + r.Name + ";\n")
	}
	for _, s := range p.Stmts {
		switch st := s.(type) {
		case GateStmt:
			for i := 0; i < st.Ctrls; i++ {
				b.WriteString("ctrl @ ")
			}
			b.WriteString(st.Name)
			if len(st.Params) > 0 {
				b.WriteString("(")
				for i, a := range st.Params {
					if i > 0 {
						b.WriteString(",")
					}
					switch v := a.(type) {
					case Number:
						b.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 64))
					case Sym:
						b.WriteString(string(v))
					}
				}
				b.WriteString(")")
			}
			b.WriteString(" ")
			for i, q := range st.Qubits {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(formatRef(q))
			}
			b.WriteString(";\n")
		case MeasureStmt:
			b.WriteString(formatRef(st.Bit) + " = measure " + formatRef(st.Qubit) + ";\n")
		}
	}
	return b.String()
}

func (p *Program) String() string {
	return p.Serialize()
}

func formatRef(r Ref) string {
	return r.Reg + "[" + strconv.Itoa(r.Index) + "]"
}
