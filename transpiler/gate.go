package transpiler

import (
	"github.com/go-faster/errors"

	"github.com/qonduit-team/qonduit-engine/ir"
)

// GateWrapper gives package-independent access to one wrapped gate.
type GateWrapper struct {
	op  ir.Operation
	pkg Package
}

func (g GateWrapper) Kind() ir.GateKind {
	return g.op.Kind
}

func (g GateWrapper) Controls() int {
	return g.op.Controls
}

func (g GateWrapper) Qubits() []int {
	out := make([]int, len(g.op.Qubits))
	copy(out, g.op.Qubits)
	return out
}

func (g GateWrapper) Params() []ir.Param {
	out := make([]ir.Param, len(g.op.Params))
	copy(out, g.op.Params)
	return out
}

// Package is the package of the circuit the gate came from.
func (g GateWrapper) Package() Package {
	return g.pkg
}

// Symbolic reports whether any parameter is an unbound reference.
func (g GateWrapper) Symbolic() bool {
	for _, p := range g.op.Params {
		if _, ok := p.(ir.Ref); ok {
			return true
		}
	}
	return false
}

// AbstractParams returns the still-symbolic parameters in argument
// order. Empty means the gate is fully bound.
func (g GateWrapper) AbstractParams() []ir.ParamID {
	var out []ir.ParamID
	for _, p := range g.op.Params {
		if r, ok := p.(ir.Ref); ok {
			out = append(out, ir.ParamID(r))
		}
	}
	return out
}

// ParseParams returns a copy of the gate with the named symbols bound
// to the given values. Names the gate does not reference are an error;
// already bound arguments are left untouched.
func (g GateWrapper) ParseParams(values map[string]float64) (GateWrapper, error) {
	known := make(map[string]bool, len(g.op.Params))
	for _, p := range g.op.Params {
		if r, ok := p.(ir.Ref); ok {
			known[r.Name] = true
		}
	}
	for name := range values {
		if !known[name] {
			return GateWrapper{}, errors.Errorf("unknown parameter %q", name)
		}
	}
	bound := ir.Operation{
		Kind:     g.op.Kind,
		Controls: g.op.Controls,
		Qubits:   append([]int(nil), g.op.Qubits...),
		Params:   append([]ir.Param(nil), g.op.Params...),
		Clbit:    g.op.Clbit,
	}
	for i, p := range bound.Params {
		r, ok := p.(ir.Ref)
		if !ok {
			continue
		}
		if v, ok := values[r.Name]; ok {
			bound.Params[i] = ir.Number(v)
		}
	}
	return GateWrapper{op: bound, pkg: g.pkg}, nil
}

// Matrix is the gate unitary including controls. Measurement and gates
// with unbound parameters have no matrix.
func (g GateWrapper) Matrix() (ir.Matrix, error) {
	if g.op.Kind == ir.MEASURE {
		return nil, &UnitaryCalculationError{
			Subject: "gate " + g.op.Kind.String(),
			Err:     errors.New("measurement has no matrix"),
		}
	}
	args := make([]float64, 0, len(g.op.Params))
	for _, p := range g.op.Params {
		n, ok := p.(ir.Number)
		if !ok {
			return nil, &UnitaryCalculationError{
				Subject: "gate " + g.op.Kind.String(),
				Err:     errors.New("unbound symbolic parameter"),
			}
		}
		args = append(args, float64(n))
	}
	m, err := ir.KindMatrix(g.op.Kind, args)
	if err != nil {
		return nil, &UnitaryCalculationError{Subject: "gate " + g.op.Kind.String(), Err: err}
	}
	if g.op.Controls > 0 {
		m = ir.Controlled(m, g.op.Controls)
	}
	return m, nil
}
