package transpiler

import (
	"github.com/qonduit-team/qonduit-engine/ir"
)

// PackageAdapter binds one supported package to the intermediate form.
// Each adapter owns exactly one native circuit type: Detect recognizes
// it, Parse and Render move between it and source text, ToIR and FromIR
// move between it and the intermediate form. Adapters are stateless.
type PackageAdapter interface {
	Package() Package
	// Detect reports whether native is this package's circuit type.
	Detect(native any) bool
	// Parse reads native source text into the package's circuit type.
	Parse(src string) (any, error)
	// Render serializes the package's circuit type back to source text.
	Render(native any) (string, error)
	// ToIR lifts a native circuit into the intermediate form.
	ToIR(native any) (*ir.Circuit, error)
	// FromIR lowers the intermediate form into a new native circuit.
	FromIR(c *ir.Circuit) (any, error)
}

// Registry is an immutable set of package adapters. The process-wide
// default covers every supported package; NewRegistry builds reduced or
// reordered sets for injection.
type Registry struct {
	order []Package
	byPkg map[Package]PackageAdapter
}

func NewRegistry(adapters ...PackageAdapter) *Registry {
	r := &Registry{byPkg: map[Package]PackageAdapter{}}
	for _, ad := range adapters {
		if _, ok := r.byPkg[ad.Package()]; !ok {
			r.order = append(r.order, ad.Package())
		}
		r.byPkg[ad.Package()] = ad
	}
	return r
}

// Supported lists the registered packages in registration order.
func (r *Registry) Supported() []Package {
	out := make([]Package, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Lookup(pkg Package) (PackageAdapter, bool) {
	ad, ok := r.byPkg[pkg]
	return ad, ok
}

// DetectNative finds the adapter owning a native circuit value.
func (r *Registry) DetectNative(native any) (PackageAdapter, bool) {
	for _, pkg := range r.order {
		ad := r.byPkg[pkg]
		if ad.Detect(native) {
			return ad, true
		}
	}
	return nil, false
}

var defaultRegistry = NewRegistry(
	qasm2Adapter{},
	qasm3Adapter{},
	quilAdapter{},
	ionqAdapter{},
)

// Default is the process-wide registry with every supported package.
func Default() *Registry {
	return defaultRegistry
}
