// Package transpiler converts quantum circuits between the supported
// program packages. A native circuit or its source text is wrapped into
// a package-independent CircuitWrapper backed by the intermediate form,
// then lowered into any other supported package. Conversions either
// preserve circuit semantics or fail with a typed error; there is no
// silent degradation.
package transpiler

import (
	"fmt"
	"strings"

	"github.com/qonduit-team/qonduit-engine/ir"
)

// Package names one supported circuit package.
type Package string

const (
	QASM2 Package = "qasm2"
	QASM3 Package = "qasm3"
	Quil  Package = "quil"
	IonQ  Package = "ionq"
)

// CircuitWrapper gives package-independent access to one wrapped
// circuit. The accessors are snapshots taken at wrap time; wrappers
// never mutate the wrapped circuit and Transpile returns a new wrapper.
type CircuitWrapper interface {
	// Circuit is the wrapped native circuit value.
	Circuit() any
	// Qubits lists the circuit wires in index order.
	Qubits() []int
	NumQubits() int
	NumClbits() int
	// Depth is the length of the critical path in operations, with
	// measurement occupying both its qubit and its classical bit.
	Depth() int
	// Params lists the unbound symbolic parameters in declaration order.
	Params() []ir.ParamID
	ParamNames() []string
	// InputParamMapping maps symbol names to their parameter identifiers.
	InputParamMapping() map[string]ir.ParamID
	// Package is the package the wrapped circuit belongs to.
	Package() Package
	// Gates lists the wrapped operations in program order.
	Gates() []GateWrapper
	// Text is the native source text of the circuit.
	Text() string
	// ToIR returns a copy of the intermediate form of the circuit.
	ToIR() (*ir.Circuit, error)
	// FromIR lowers an intermediate circuit into the target package's
	// native type through the wrapper's registry.
	FromIR(c *ir.Circuit, target Package) (any, error)
	// Transpile converts the circuit to the target package. Converting
	// to the source package returns the wrapper unchanged.
	Transpile(target Package) (CircuitWrapper, error)
}

type wrapper struct {
	pkg    Package
	reg    *Registry
	native any
	text   string
	circ   *ir.Circuit
}

// Wrap parses src as pkg and lifts it into the intermediate form.
func (r *Registry) Wrap(pkg Package, src string) (CircuitWrapper, error) {
	ad, ok := r.Lookup(pkg)
	if !ok {
		return nil, &UnsupportedCircuitError{Pkg: string(pkg), Role: RoleSource, Supported: r.Supported()}
	}
	native, err := ad.Parse(src)
	if err != nil {
		return nil, &CircuitConversionError{From: pkg, Stage: StageToIR, Err: err}
	}
	circ, err := ad.ToIR(native)
	if err != nil {
		return nil, &CircuitConversionError{From: pkg, Stage: StageToIR, Err: err}
	}
	return &wrapper{pkg: pkg, reg: r, native: native, text: src, circ: circ}, nil
}

// WrapNative wraps an already parsed circuit value, detecting its
// package from the value's type.
func (r *Registry) WrapNative(native any) (CircuitWrapper, error) {
	ad, ok := r.DetectNative(native)
	if !ok {
		return nil, &UnsupportedCircuitError{
			Pkg: fmt.Sprintf("%T", native), Role: RoleSource, Supported: r.Supported(),
		}
	}
	circ, err := ad.ToIR(native)
	if err != nil {
		return nil, &CircuitConversionError{From: ad.Package(), Stage: StageToIR, Err: err}
	}
	text, err := ad.Render(native)
	if err != nil {
		return nil, &CircuitConversionError{From: ad.Package(), Stage: StageToIR, Err: err}
	}
	return &wrapper{pkg: ad.Package(), reg: r, native: native, text: text, circ: circ}, nil
}

// ToIR lifts a native circuit into the intermediate form, reporting the
// package it was detected as.
func (r *Registry) ToIR(native any) (*ir.Circuit, Package, error) {
	ad, ok := r.DetectNative(native)
	if !ok {
		return nil, "", &UnsupportedCircuitError{
			Pkg: fmt.Sprintf("%T", native), Role: RoleSource, Supported: r.Supported(),
		}
	}
	circ, err := ad.ToIR(native)
	if err != nil {
		return nil, "", &CircuitConversionError{From: ad.Package(), Stage: StageToIR, Err: err}
	}
	return circ, ad.Package(), nil
}

// FromIR lowers an intermediate circuit into the target package's
// native type.
func (r *Registry) FromIR(c *ir.Circuit, target Package) (any, error) {
	ad, ok := r.Lookup(target)
	if !ok {
		return nil, &UnsupportedCircuitError{Pkg: string(target), Role: RoleTarget, Supported: r.Supported()}
	}
	native, err := ad.FromIR(c)
	if err != nil {
		return nil, &CircuitConversionError{To: target, Stage: StageFromIR, Err: err}
	}
	return native, nil
}

// Transpile converts src between packages and returns the target text.
func (r *Registry) Transpile(src string, from, to Package) (string, error) {
	w, err := r.Wrap(from, src)
	if err != nil {
		return "", err
	}
	out, err := w.Transpile(to)
	if err != nil {
		return "", err
	}
	return out.Text(), nil
}

// Wrap parses src as pkg against the default registry.
func Wrap(pkg Package, src string) (CircuitWrapper, error) {
	return Default().Wrap(pkg, src)
}

// WrapNative wraps a native circuit value against the default registry.
func WrapNative(native any) (CircuitWrapper, error) {
	return Default().WrapNative(native)
}

// ToIR lifts a native circuit against the default registry.
func ToIR(native any) (*ir.Circuit, Package, error) {
	return Default().ToIR(native)
}

// FromIR lowers an intermediate circuit against the default registry.
func FromIR(c *ir.Circuit, target Package) (any, error) {
	return Default().FromIR(c, target)
}

// Transpile converts src between packages against the default registry.
func Transpile(src string, from, to Package) (string, error) {
	return Default().Transpile(src, from, to)
}

// Supported lists the packages of the default registry.
func Supported() []Package {
	return Default().Supported()
}

func (w *wrapper) Circuit() any {
	return w.native
}

func (w *wrapper) Qubits() []int {
	out := make([]int, w.circ.NumQubits)
	for i := range out {
		out[i] = i
	}
	return out
}

func (w *wrapper) Package() Package {
	return w.pkg
}

func (w *wrapper) NumQubits() int {
	return w.circ.NumQubits
}

func (w *wrapper) NumClbits() int {
	return w.circ.NumClbits
}

func (w *wrapper) Depth() int {
	return w.circ.Depth()
}

func (w *wrapper) Params() []ir.ParamID {
	out := make([]ir.ParamID, len(w.circ.Params))
	copy(out, w.circ.Params)
	return out
}

func (w *wrapper) ParamNames() []string {
	return w.circ.ParamNames()
}

func (w *wrapper) InputParamMapping() map[string]ir.ParamID {
	out := make(map[string]ir.ParamID, len(w.circ.Params))
	for _, id := range w.circ.Params {
		out[id.Name] = id
	}
	return out
}

func (w *wrapper) Gates() []GateWrapper {
	out := make([]GateWrapper, len(w.circ.Ops))
	for i, op := range w.circ.Ops {
		out[i] = GateWrapper{op: op, pkg: w.pkg}
	}
	return out
}

func (w *wrapper) Text() string {
	return w.text
}

func (w *wrapper) ToIR() (*ir.Circuit, error) {
	return w.circ.Clone(), nil
}

func (w *wrapper) FromIR(c *ir.Circuit, target Package) (any, error) {
	return w.reg.FromIR(c, target)
}

func (w *wrapper) Transpile(target Package) (CircuitWrapper, error) {
	if target == w.pkg {
		return w, nil
	}
	ad, ok := w.reg.Lookup(target)
	if !ok {
		return nil, &UnsupportedCircuitError{Pkg: string(target), Role: RoleTarget, Supported: w.reg.Supported()}
	}
	native, err := ad.FromIR(w.circ)
	if err != nil {
		return nil, &CircuitConversionError{From: w.pkg, To: target, Stage: StageFromIR, Err: err}
	}
	text, err := ad.Render(native)
	if err != nil {
		return nil, &CircuitConversionError{From: w.pkg, To: target, Stage: StageFromIR, Err: err}
	}
	return &wrapper{pkg: target, reg: w.reg, native: native, text: text, circ: w.circ}, nil
}

// DetectPackage guesses the package of src from its surface shape: a
// JSON document is ionq, an OPENQASM header names its dialect and
// anything starting with a Quil instruction is quil.
func DetectPackage(src string) (Package, error) {
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "{"):
			return IonQ, nil
		case strings.HasPrefix(line, "OPENQASM 2"):
			return QASM2, nil
		case strings.HasPrefix(line, "OPENQASM 3"):
			return QASM3, nil
		case strings.HasPrefix(line, "OPENQASM"):
			return "", &UnsupportedCircuitError{Pkg: "qasm", Role: RoleSource, Supported: Supported()}
		case strings.HasPrefix(line, "#"):
			continue
		case strings.HasPrefix(line, "DECLARE") || strings.HasPrefix(line, "MEASURE") ||
			strings.HasPrefix(line, "DAGGER") || strings.HasPrefix(line, "CONTROLLED") ||
			isQuilGateLine(line):
			return Quil, nil
		default:
			return "", &UnsupportedCircuitError{Pkg: "unknown", Role: RoleSource, Supported: Supported()}
		}
	}
	return "", &UnsupportedCircuitError{Pkg: "empty", Role: RoleSource, Supported: Supported()}
}

// isQuilGateLine matches an upper-case gate name followed by operands.
func isQuilGateLine(line string) bool {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return false
	}
	name := fields[0]
	if i := strings.IndexByte(name, '('); i > 0 {
		name = name[:i]
	}
	if name == "" {
		return false
	}
	for _, c := range name {
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	last := fields[len(fields)-1]
	for _, c := range last {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
