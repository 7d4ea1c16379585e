package transpiler

import (
	"github.com/go-faster/errors"

	"github.com/qonduit-team/qonduit-engine/ir"
	"github.com/qonduit-team/qonduit-engine/program/ionq"
)

// ionqGates covers the qis gateset. Controls come from the control and
// controls fields, so cnot is plain x plus a required control.
var ionqGates = map[string]gateDef{
	"x":    {kind: ir.X},
	"not":  {kind: ir.X},
	"cnot": {kind: ir.X},
	"y":    {kind: ir.Y},
	"z":    {kind: ir.Z},
	"h":    {kind: ir.H},
	"s":    {kind: ir.S},
	"si":   {kind: ir.SDG},
	"t":    {kind: ir.T},
	"ti":   {kind: ir.TDG},
	"v":    {kind: ir.SX},
	"vi":   {kind: ir.SXDG},
	"rx":   {kind: ir.RX},
	"ry":   {kind: ir.RY},
	"rz":   {kind: ir.RZ},
	"swap": {kind: ir.SWAP},
}

var ionqNames = map[ir.GateKind]string{
	ir.X:    "x",
	ir.Y:    "y",
	ir.Z:    "z",
	ir.H:    "h",
	ir.S:    "s",
	ir.SDG:  "si",
	ir.T:    "t",
	ir.TDG:  "ti",
	ir.SX:   "v",
	ir.SXDG: "vi",
	ir.RX:   "rx",
	ir.RY:   "ry",
	ir.RZ:   "rz",
	ir.SWAP: "swap",
}

type ionqAdapter struct{}

func (ionqAdapter) Package() Package {
	return IonQ
}

func (ionqAdapter) Detect(native any) bool {
	_, ok := native.(*ionq.Circuit)
	return ok
}

func (ionqAdapter) Parse(src string) (any, error) {
	return ionq.Decode([]byte(src))
}

func (ionqAdapter) Render(native any) (string, error) {
	doc, ok := native.(*ionq.Circuit)
	if !ok {
		return "", errors.Errorf("not an IonQ circuit: %T", native)
	}
	data, err := doc.Encode()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (ionqAdapter) ToIR(native any) (*ir.Circuit, error) {
	doc, ok := native.(*ionq.Circuit)
	if !ok {
		return nil, errors.Errorf("not an IonQ circuit: %T", native)
	}
	circ := ir.NewCircuit(doc.Qubits, 0)
	for i, g := range doc.Circuit {
		def, ok := ionqGates[g.Gate]
		if !ok {
			return nil, errors.Errorf("gate %d: unknown gate %q", i, g.Gate)
		}
		controls := g.AllControls()
		if g.Gate == "cnot" && len(controls) == 0 {
			return nil, errors.Errorf("gate %d: cnot requires a control qubit", i)
		}
		var params []ir.Param
		if isRotation(def.kind) {
			if g.Rotation == nil {
				return nil, errors.Errorf("gate %d (%s): missing rotation", i, g.Gate)
			}
			params = []ir.Param{ir.Number(*g.Rotation)}
		} else if g.Rotation != nil {
			return nil, errors.Errorf("gate %d (%s): unexpected rotation", i, g.Gate)
		}
		qubits := append(append([]int{}, controls...), g.AllTargets()...)
		op := ir.Operation{Kind: def.kind, Controls: len(controls), Qubits: qubits, Params: params}
		if err := circ.Add(op); err != nil {
			return nil, errors.Wrapf(err, "gate %d (%s)", i, g.Gate)
		}
	}
	return circ, nil
}

// FromIR rejects measurement, symbolic parameters and the phase-style
// gates the qis gateset has no spelling for. Identity operations drop
// out since they carry no effect.
func (ionqAdapter) FromIR(c *ir.Circuit) (any, error) {
	if c.HasMeasure() {
		return nil, errors.New("IonQ circuits cannot express measurement")
	}
	if c.HasUnboundParams() {
		return nil, errors.New("IonQ circuits cannot express symbolic parameters")
	}
	doc := ionq.NewCircuit(c.NumQubits)
	for _, op := range c.Ops {
		if op.Kind == ir.I {
			continue
		}
		name, ok := ionqNames[op.Kind]
		if !ok {
			return nil, errors.Errorf("no IonQ qis gate for %s", op.Kind)
		}
		if op.Kind == ir.X && op.Controls == 1 {
			name = "cnot"
		}
		g := ionq.Gate{Gate: name}
		targets := op.Targets()
		if len(targets) == 1 {
			t := targets[0]
			g.Target = &t
		} else {
			g.Targets = append([]int{}, targets...)
		}
		controls := op.Qubits[:op.Controls]
		if len(controls) == 1 {
			ctl := controls[0]
			g.Control = &ctl
		} else if len(controls) > 1 {
			g.Controls = append([]int{}, controls...)
		}
		if isRotation(op.Kind) {
			r := float64(op.Params[0].(ir.Number))
			g.Rotation = &r
		}
		doc.Add(g)
	}
	return doc, nil
}
