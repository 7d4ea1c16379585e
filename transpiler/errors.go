package transpiler

import (
	"fmt"
	"strings"
)

// Role says which side of a conversion named the offending package.
type Role string

const (
	RoleSource Role = "source"
	RoleTarget Role = "target"
)

// Stage identifies which half of a conversion failed.
type Stage int

const (
	StageToIR Stage = iota + 1
	StageFromIR
)

func (s Stage) String() string {
	switch s {
	case StageToIR:
		return "to-ir"
	case StageFromIR:
		return "from-ir"
	default:
		return "unknown"
	}
}

// UnsupportedCircuitError reports a package outside the supported set.
type UnsupportedCircuitError struct {
	Pkg       string
	Role      Role
	Supported []Package
}

func (e *UnsupportedCircuitError) Error() string {
	names := make([]string, len(e.Supported))
	for i, p := range e.Supported {
		names[i] = string(p)
	}
	return fmt.Sprintf("unsupported %s package %q, supported packages are %s",
		e.Role, e.Pkg, strings.Join(names, ", "))
}

// CircuitConversionError reports a failed conversion together with the
// stage that failed. To is empty for failures before a target is known
// and From is empty when the intermediate form is lowered directly.
type CircuitConversionError struct {
	From  Package
	To    Package
	Stage Stage
	Err   error
}

func (e *CircuitConversionError) Error() string {
	switch {
	case e.To == "":
		return fmt.Sprintf("failed to convert %s circuit at stage %s: %s", e.From, e.Stage, e.Err)
	case e.From == "":
		return fmt.Sprintf("failed to convert circuit to %s at stage %s: %s", e.To, e.Stage, e.Err)
	}
	return fmt.Sprintf("failed to convert circuit from %s to %s at stage %s: %s",
		e.From, e.To, e.Stage, e.Err)
}

func (e *CircuitConversionError) Unwrap() error {
	return e.Err
}

// UnitaryCalculationError reports a failed unitary computation.
type UnitaryCalculationError struct {
	Subject string
	Err     error
}

func (e *UnitaryCalculationError) Error() string {
	return fmt.Sprintf("failed to calculate unitary of %s: %s", e.Subject, e.Err)
}

func (e *UnitaryCalculationError) Unwrap() error {
	return e.Err
}
