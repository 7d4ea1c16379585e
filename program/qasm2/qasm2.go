// Package qasm2 is the native object model for OpenQASM 2.0 programs:
// registers, gate statements and measurements, with a parser and a
// canonical serializer. Gate arguments are plain numbers; the dialect has
// no symbolic parameters.
package qasm2

import (
	"strconv"
	"strings"
)

type Program struct {
	Version  string
	Includes []string
	QRegs    []Register
	CRegs    []Register
	Stmts    []Stmt
}

type Register struct {
	Name string
	Size int
}

// Ref addresses one bit of a named register, e.g. q[0].
type Ref struct {
	Reg   string
	Index int
}

// Stmt is a closed set: GateStmt or MeasureStmt.
type Stmt interface {
	IsStmt()
}

type GateStmt struct {
	Name   string
	Params []float64
	Qubits []Ref
}

func (GateStmt) IsStmt() {}

type MeasureStmt struct {
	Qubit Ref
	Bit   Ref
}

func (MeasureStmt) IsStmt() {}

// NewProgram returns an empty program with the standard header.
func NewProgram() *Program {
	return &Program{
		Version:  "2.0",
		Includes: []string{"qelib1.inc"},
	}
}

func (p *Program) AddQReg(name string, size int) {
	p.QRegs = append(p.QRegs, Register{Name: name, Size: size})
}

func (p *Program) AddCReg(name string, size int) {
	p.CRegs = append(p.CRegs, Register{Name: name, Size: size})
}

func (p *Program) AddGate(name string, params []float64, qubits ...Ref) {
	p.Stmts = append(p.Stmts, GateStmt{Name: name, Params: params, Qubits: qubits})
}

func (p *Program) AddMeasure(qubit, bit Ref) {
	p.Stmts = append(p.Stmts, MeasureStmt{Qubit: qubit, Bit: bit})
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

// Serialize emits canonical OpenQASM 2.0 text.
func (p *Program) Serialize() string {
	var b strings.Builder
	version := p.Version
	if version == "" {
		version = "2.0"
	}
	b.WriteString("OPENQASM " + version + ";\n")
	for _, inc := range p.Includes {
		b.WriteString("include \"" + inc + "\";\n")
	}
	for _, r := range p.QRegs {
		b.WriteString("qreg " + r.Name + "[" + strconv.Itoa(r.Size) + "];\n")
	}
	for _, r := range p.CRegs {
		b.WriteString("creg " + r.Name + "[" + strconv.Itoa(r.Size) + "];\n")
	}
	for _, s := range p.Stmts {
		switch st := s.(type) {
		case GateStmt:
			b.WriteString(st.Name)
			if len(st.Params) > 0 {
				b.WriteString("(")
				for i, v := range st.Params {
					if i > 0 {
						b.WriteString(",")
					}
					b.WriteString(formatFloat(v))
				}
				b.WriteString(")")
			}
			b.WriteString(" ")
			for i, q := range st.Qubits {
				if i > 0 {
					b.WriteString(",")
				}
				b.WriteString(formatRef(q))
			}
			b.WriteString(";\n")
		case MeasureStmt:
			b.WriteString("measure " + formatRef(st.Qubit) + " -> " + formatRef(st.Bit) + ";\n")
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

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
