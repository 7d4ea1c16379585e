// Package quil is the native object model for Quil programs. Qubits are
// flat integers, classical memory and symbolic gate parameters live in
// DECLARE regions and gates take DAGGER and CONTROLLED modifiers.
package quil

import (
	"strconv"
	"strings"
)

type Program struct {
	Decls  []Declaration
	Instrs []Instr
}

// Declaration is one DECLARE region. Type is "BIT" or "REAL".
type Declaration struct {
	Name string
	Type string
	Size int
}

// MemRef addresses one slot of a declared region.
type MemRef struct {
	Name  string
	Index int
}

// Arg is one gate argument: a bound Number or a Sym referencing a REAL
// memory slot.
type Arg interface {
	IsArg()
}

type Number float64

func (Number) IsArg() {}

type Sym MemRef

func (Sym) IsArg() {}

type Instr interface {
	IsInstr()
}

// Gate is a gate application. Ctrls counts CONTROLLED modifiers, whose
// qubits come first in Qubits; Dagger inverts the base gate.
type Gate struct {
	Name   string
	Dagger bool
	Ctrls  int
	Params []Arg
	Qubits []int
}

func (Gate) IsInstr() {}

// Measure reads one qubit. Target nil discards the outcome.
type Measure struct {
	Qubit  int
	Target *MemRef
}

func (Measure) IsInstr() {}

func NewProgram() *Program {
	return &Program{}
}

func (p *Program) Declare(name, typ string, size int) {
	p.Decls = append(p.Decls, Declaration{Name: name, Type: typ, Size: size})
}

func (p *Program) AddGate(g Gate) {
	p.Instrs = append(p.Instrs, g)
}

func (p *Program) AddMeasure(qubit int, target *MemRef) {
	p.Instrs = append(p.Instrs, Measure{Qubit: qubit, Target: target})
}

// QubitCount is one past the highest qubit index used by any
// instruction. Quil has no qubit declarations, so the program size is
// implied by use.
func (p *Program) QubitCount() int {
	max := -1
	for _, in := range p.Instrs {
		switch v := in.(type) {
		case Gate:
			for _, q := range v.Qubits {
				if q > max {
					max = q
				}
			}
		case Measure:
			if v.Qubit > max {
				max = v.Qubit
			}
		}
	}
	return max + 1
}

// ClbitCount sums the sizes of BIT declarations.
func (p *Program) ClbitCount() int {
	n := 0
	for _, d := range p.Decls {
		if d.Type == "BIT" {
			n += d.Size
		}
	}
	return n
}

// Reals returns the REAL declarations in declaration order.
func (p *Program) Reals() []Declaration {
	var out []Declaration
	for _, d := range p.Decls {
		if d.Type == "REAL" {
			out = append(out, d)
		}
	}
	return out
}

// Serialize emits canonical Quil text, one instruction per line. A
// size-one memory reference prints bare, an indexed one as name[i].
func (p *Program) Serialize() string {
	sizes := map[string]int{}
	for _, d := range p.Decls {
		sizes[d.Name] = d.Size
	}
	var b strings.Builder
	for _, d := range p.Decls {
		b.WriteString("DECLARE " + d.Name + " " + d.Type + "[" + strconv.Itoa(d.Size) + "]\n")
	}
	for _, in := range p.Instrs {
		switch v := in.(type) {
		case Gate:
			if v.Dagger {
				b.WriteString("DAGGER ")
			}
			for i := 0; i < v.Ctrls; i++ {
				b.WriteString("CONTROLLED ")
			}
			b.WriteString(v.Name)
			if len(v.Params) > 0 {
				b.WriteString("(")
				for i, a := range v.Params {
					if i > 0 {
						b.WriteString(", ")
					}
					switch arg := a.(type) {
					case Number:
						b.WriteString(strconv.FormatFloat(float64(arg), 'g', -1, 64))
					case Sym:
						b.WriteString(formatMemRef(MemRef(arg), sizes))
					}
				}
				b.WriteString(")")
			}
			for _, q := range v.Qubits {
				b.WriteString(" " + strconv.Itoa(q))
			}
			b.WriteString("\n")
		case Measure:
			b.WriteString("MEASURE " + strconv.Itoa(v.Qubit))
			if v.Target != nil {
				b.WriteString(" " + v.Target.Name + "[" + strconv.Itoa(v.Target.Index) + "]")
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (p *Program) String() string {
	return p.Serialize()
}

func formatMemRef(r MemRef, sizes map[string]int) string {
	if r.Index == 0 && sizes[r.Name] == 1 {
		return r.Name
	}
	return r.Name + "[" + strconv.Itoa(r.Index) + "]"
}
