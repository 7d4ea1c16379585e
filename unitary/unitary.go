// Package unitary computes circuit unitaries for conversion
// verification. Programs are lifted through the transpiler so every
// supported package gets the same treatment.
package unitary

import (
	"github.com/qonduit-team/qonduit-engine/ir"
	"github.com/qonduit-team/qonduit-engine/transpiler"
)

// FromProgram computes the unitary of src in the given package. The
// circuit must be measurement free and fully bound.
func FromProgram(pkg transpiler.Package, src string) (ir.Matrix, error) {
	w, err := transpiler.Wrap(pkg, src)
	if err != nil {
		return nil, err
	}
	return fromWrapper(w, string(pkg)+" circuit", nil)
}

// FromProgramBound binds the named symbolic parameters before computing
// the unitary.
func FromProgramBound(pkg transpiler.Package, src string, values map[string]float64) (ir.Matrix, error) {
	w, err := transpiler.Wrap(pkg, src)
	if err != nil {
		return nil, err
	}
	return fromWrapper(w, string(pkg)+" circuit", values)
}

// FromCircuit computes the unitary of a native circuit object from any
// supported package.
func FromCircuit(native any) (ir.Matrix, error) {
	circ, pkg, err := transpiler.ToIR(native)
	if err != nil {
		return nil, err
	}
	u, err := circ.Unitary()
	if err != nil {
		return nil, &transpiler.UnitaryCalculationError{Subject: string(pkg) + " circuit", Err: err}
	}
	return u, nil
}

func fromWrapper(w transpiler.CircuitWrapper, subject string, values map[string]float64) (ir.Matrix, error) {
	circ, err := w.ToIR()
	if err != nil {
		return nil, err
	}
	if values != nil {
		circ, err = circ.Bind(values)
		if err != nil {
			return nil, &transpiler.UnitaryCalculationError{Subject: subject, Err: err}
		}
	}
	u, err := circ.Unitary()
	if err != nil {
		return nil, &transpiler.UnitaryCalculationError{Subject: subject, Err: err}
	}
	return u, nil
}

func FromQASM2(src string) (ir.Matrix, error) {
	return FromProgram(transpiler.QASM2, src)
}

func FromQASM3(src string) (ir.Matrix, error) {
	return FromProgram(transpiler.QASM3, src)
}

func FromQuil(src string) (ir.Matrix, error) {
	return FromProgram(transpiler.Quil, src)
}

func FromIonQ(src string) (ir.Matrix, error) {
	return FromProgram(transpiler.IonQ, src)
}

// CircuitsAllClose reports whether two programs implement the same
// unitary up to a global phase.
func CircuitsAllClose(pkgA transpiler.Package, a string, pkgB transpiler.Package, b string, tol float64) (bool, error) {
	ua, err := FromProgram(pkgA, a)
	if err != nil {
		return false, err
	}
	ub, err := FromProgram(pkgB, b)
	if err != nil {
		return false, err
	}
	return ir.AllcloseUpToGlobalPhase(ua, ub, tol), nil
}
