// Package ir holds the canonical circuit model used as the conversion
// pivot. Every supported circuit package lowers into this model and is
// raised back out of it, so conversion between N packages needs N adapters
// instead of N*N pairwise translators.
package ir

import (
	"github.com/go-faster/errors"
)

// GateKind is a base gate kind. Controlled variants are not separate kinds;
// an Operation carries a control count instead, so CX is X with one control
// and CCX is X with two.
type GateKind int

const (
	I GateKind = iota
	X
	Y
	Z
	H
	S
	SDG
	T
	TDG
	SX
	SXDG
	RX
	RY
	RZ
	PHASE
	U
	SWAP
	MEASURE
)

func (k GateKind) String() string {
	switch k {
	case I:
		return "i"
	case X:
		return "x"
	case Y:
		return "y"
	case Z:
		return "z"
	case H:
		return "h"
	case S:
		return "s"
	case SDG:
		return "sdg"
	case T:
		return "t"
	case TDG:
		return "tdg"
	case SX:
		return "sx"
	case SXDG:
		return "sxdg"
	case RX:
		return "rx"
	case RY:
		return "ry"
	case RZ:
		return "rz"
	case PHASE:
		return "phase"
	case U:
		return "u"
	case SWAP:
		return "swap"
	case MEASURE:
		return "measure"
	default:
		return "unknown"
	}
}

// Arity is the number of target qubits the kind acts on, controls excluded.
func (k GateKind) Arity() int {
	if k == SWAP {
		return 2
	}
	return 1
}

// ParamCount is the number of angle arguments the kind takes.
func (k GateKind) ParamCount() int {
	switch k {
	case RX, RY, RZ, PHASE:
		return 1
	case U:
		return 3
	default:
		return 0
	}
}

// ParamID identifies one symbolic parameter within its owning circuit.
// The index is the identity; the name is for display and cross-package
// round trips. Two ParamIDs are equal iff their indices match.
type ParamID struct {
	Index int
	Name  string
}

func (p ParamID) Equal(o ParamID) bool {
	return p.Index == o.Index
}

// Param is one gate argument, either a bound number or a reference to a
// symbolic parameter. The set of variants is closed.
type Param interface {
	IsParam()
}

type Number float64

func (Number) IsParam() {}

type Ref ParamID

func (Ref) IsParam() {}

// Operation is one canonical circuit operation. Qubits lists control qubits
// first, then target qubits, so len(Qubits) == Controls + Kind.Arity().
// Clbit is the classical target of a MEASURE and -1 otherwise.
type Operation struct {
	Kind     GateKind
	Controls int
	Qubits   []int
	Params   []Param
	Clbit    int
}

// Targets returns the target qubits, controls excluded.
func (o Operation) Targets() []int {
	return o.Qubits[o.Controls:]
}

// Circuit is the conversion pivot. It is transient: built inside one
// conversion call pair and never cached across calls. Params lists every
// symbolic parameter of the circuit in declaration order; a Ref inside an
// operation always points into this list.
type Circuit struct {
	NumQubits int
	NumClbits int
	Ops       []Operation
	Params    []ParamID
}

func NewCircuit(numQubits, numClbits int) *Circuit {
	return &Circuit{
		NumQubits: numQubits,
		NumClbits: numClbits,
		Ops:       []Operation{},
		Params:    []ParamID{},
	}
}

// DeclareParam registers a symbolic parameter name and returns its ParamID.
// Declaring the same name twice returns the existing identifier.
func (c *Circuit) DeclareParam(name string) ParamID {
	for _, p := range c.Params {
		if p.Name == name {
			return p
		}
	}
	p := ParamID{Index: len(c.Params), Name: name}
	c.Params = append(c.Params, p)
	return p
}

// ParamByName resolves a declared symbolic parameter.
func (c *Circuit) ParamByName(name string) (ParamID, bool) {
	for _, p := range c.Params {
		if p.Name == name {
			return p, true
		}
	}
	return ParamID{}, false
}

// ParamNames returns the declared symbol names in index order.
func (c *Circuit) ParamNames() []string {
	names := make([]string, len(c.Params))
	for i, p := range c.Params {
		names[i] = p.Name
	}
	return names
}

// Add validates and appends one operation.
func (c *Circuit) Add(op Operation) error {
	if op.Controls < 0 {
		return errors.Errorf("negative control count %d", op.Controls)
	}
	if op.Kind == MEASURE && op.Controls != 0 {
		return errors.New("measure cannot be controlled")
	}
	wantQubits := op.Controls + op.Kind.Arity()
	if len(op.Qubits) != wantQubits {
		return errors.Errorf("%s with %d controls wants %d qubits, got %d",
			op.Kind, op.Controls, wantQubits, len(op.Qubits))
	}
	seen := make(map[int]struct{}, len(op.Qubits))
	for _, q := range op.Qubits {
		if q < 0 || q >= c.NumQubits {
			return errors.Errorf("qubit %d out of range [0,%d)", q, c.NumQubits)
		}
		if _, ok := seen[q]; ok {
			return errors.Errorf("duplicate qubit %d in %s", q, op.Kind)
		}
		seen[q] = struct{}{}
	}
	if op.Kind == MEASURE {
		if len(op.Params) != 0 {
			return errors.New("measure takes no params")
		}
		if op.Clbit < 0 || op.Clbit >= c.NumClbits {
			return errors.Errorf("clbit %d out of range [0,%d)", op.Clbit, c.NumClbits)
		}
	} else {
		op.Clbit = -1
		if len(op.Params) != op.Kind.ParamCount() {
			return errors.Errorf("%s wants %d params, got %d",
				op.Kind, op.Kind.ParamCount(), len(op.Params))
		}
		for _, p := range op.Params {
			r, ok := p.(Ref)
			if !ok {
				continue
			}
			if r.Index < 0 || r.Index >= len(c.Params) {
				return errors.Errorf("param ref %q/%d not declared", r.Name, r.Index)
			}
			if c.Params[r.Index].Name != r.Name {
				return errors.Errorf("param ref %q/%d does not match declaration %q",
					r.Name, r.Index, c.Params[r.Index].Name)
			}
		}
	}
	c.Ops = append(c.Ops, op)
	return nil
}

// Depth is the longest chain of operations over the circuit wires, with
// classical bits counted as wires of their own so a measure occupies both
// its qubit and its clbit lane.
func (c *Circuit) Depth() int {
	lanes := make([]int, c.NumQubits+c.NumClbits)
	depth := 0
	for _, op := range c.Ops {
		level := 0
		for _, q := range op.Qubits {
			if lanes[q] > level {
				level = lanes[q]
			}
		}
		if op.Kind == MEASURE {
			cl := c.NumQubits + op.Clbit
			if lanes[cl] > level {
				level = lanes[cl]
			}
		}
		level++
		for _, q := range op.Qubits {
			lanes[q] = level
		}
		if op.Kind == MEASURE {
			lanes[c.NumQubits+op.Clbit] = level
		}
		if level > depth {
			depth = level
		}
	}
	return depth
}

// HasMeasure reports whether the circuit contains a measurement.
func (c *Circuit) HasMeasure() bool {
	for _, op := range c.Ops {
		if op.Kind == MEASURE {
			return true
		}
	}
	return false
}

// HasUnboundParams reports whether any symbolic parameter is still unbound.
func (c *Circuit) HasUnboundParams() bool {
	return len(c.Params) > 0
}

// Bind returns a copy of the circuit with the named symbols replaced by the
// given values. Names absent from the circuit are an error; symbols absent
// from the mapping stay symbolic and are reindexed in declaration order.
func (c *Circuit) Bind(values map[string]float64) (*Circuit, error) {
	for name := range values {
		if _, ok := c.ParamByName(name); !ok {
			return nil, errors.Errorf("unknown param %q", name)
		}
	}
	bound := NewCircuit(c.NumQubits, c.NumClbits)
	remap := make(map[int]ParamID, len(c.Params))
	for _, p := range c.Params {
		if _, ok := values[p.Name]; ok {
			continue
		}
		remap[p.Index] = bound.DeclareParam(p.Name)
	}
	for _, op := range c.Ops {
		cp := Operation{
			Kind:     op.Kind,
			Controls: op.Controls,
			Qubits:   append([]int(nil), op.Qubits...),
			Clbit:    op.Clbit,
		}
		for _, p := range op.Params {
			r, ok := p.(Ref)
			if !ok {
				cp.Params = append(cp.Params, p)
				continue
			}
			if v, ok := values[r.Name]; ok {
				cp.Params = append(cp.Params, Number(v))
			} else {
				cp.Params = append(cp.Params, Ref(remap[r.Index]))
			}
		}
		if err := bound.Add(cp); err != nil {
			return nil, errors.Wrap(err, "rebuild bound circuit")
		}
	}
	return bound, nil
}

// Clone returns a deep copy.
func (c *Circuit) Clone() *Circuit {
	cp := NewCircuit(c.NumQubits, c.NumClbits)
	cp.Params = append([]ParamID(nil), c.Params...)
	for _, op := range c.Ops {
		cp.Ops = append(cp.Ops, Operation{
			Kind:     op.Kind,
			Controls: op.Controls,
			Qubits:   append([]int(nil), op.Qubits...),
			Params:   append([]Param(nil), op.Params...),
			Clbit:    op.Clbit,
		})
	}
	return cp
}
