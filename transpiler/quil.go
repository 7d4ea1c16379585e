package transpiler

import (
	"github.com/go-faster/errors"

	"github.com/qonduit-team/qonduit-engine/ir"
	"github.com/qonduit-team/qonduit-engine/program/quil"
)

var quilGates = map[string]gateDef{
	"I":      {kind: ir.I},
	"X":      {kind: ir.X},
	"Y":      {kind: ir.Y},
	"Z":      {kind: ir.Z},
	"H":      {kind: ir.H},
	"S":      {kind: ir.S},
	"T":      {kind: ir.T},
	"RX":     {kind: ir.RX},
	"RY":     {kind: ir.RY},
	"RZ":     {kind: ir.RZ},
	"PHASE":  {kind: ir.PHASE},
	"SWAP":   {kind: ir.SWAP},
	"CNOT":   {kind: ir.X, ctrls: 1},
	"CZ":     {kind: ir.Z, ctrls: 1},
	"CCNOT":  {kind: ir.X, ctrls: 2},
	"CSWAP":  {kind: ir.SWAP, ctrls: 1},
	"CPHASE": {kind: ir.PHASE, ctrls: 1},
}

var quilNames = map[gateKey]string{
	{ir.I, 0}:     "I",
	{ir.X, 0}:     "X",
	{ir.X, 1}:     "CNOT",
	{ir.X, 2}:     "CCNOT",
	{ir.Y, 0}:     "Y",
	{ir.Z, 0}:     "Z",
	{ir.Z, 1}:     "CZ",
	{ir.H, 0}:     "H",
	{ir.S, 0}:     "S",
	{ir.T, 0}:     "T",
	{ir.RX, 0}:    "RX",
	{ir.RY, 0}:    "RY",
	{ir.RZ, 0}:    "RZ",
	{ir.PHASE, 0}: "PHASE",
	{ir.PHASE, 1}: "CPHASE",
	{ir.SWAP, 0}:  "SWAP",
	{ir.SWAP, 1}:  "CSWAP",
}

// quilDagger resolves a DAGGER modifier into the inverse kind for the
// non-rotation gates. Rotations invert by negating their angle instead.
var quilDagger = map[ir.GateKind]ir.GateKind{
	ir.I: ir.I, ir.X: ir.X, ir.Y: ir.Y, ir.Z: ir.Z, ir.H: ir.H, ir.SWAP: ir.SWAP,
	ir.S: ir.SDG, ir.SDG: ir.S, ir.T: ir.TDG, ir.TDG: ir.T,
	ir.SX: ir.SXDG, ir.SXDG: ir.SX,
}

func isRotation(k ir.GateKind) bool {
	switch k {
	case ir.RX, ir.RY, ir.RZ, ir.PHASE:
		return true
	}
	return false
}

type quilAdapter struct{}

func (quilAdapter) Package() Package {
	return Quil
}

func (quilAdapter) Detect(native any) bool {
	_, ok := native.(*quil.Program)
	return ok
}

func (quilAdapter) Parse(src string) (any, error) {
	return quil.Parse(src)
}

func (quilAdapter) Render(native any) (string, error) {
	prog, ok := native.(*quil.Program)
	if !ok {
		return "", errors.Errorf("not a Quil program: %T", native)
	}
	return prog.Serialize(), nil
}

func (quilAdapter) ToIR(native any) (*ir.Circuit, error) {
	prog, ok := native.(*quil.Program)
	if !ok {
		return nil, errors.Errorf("not a Quil program: %T", native)
	}
	circ := ir.NewCircuit(prog.QubitCount(), prog.ClbitCount())
	for _, d := range prog.Reals() {
		if d.Size != 1 {
			return nil, errors.Errorf("REAL region %q has size %d, only size 1 is supported", d.Name, d.Size)
		}
		circ.DeclareParam(d.Name)
	}
	boff := bitOffsets(prog)
	for _, in := range prog.Instrs {
		switch v := in.(type) {
		case quil.Gate:
			def, ok := quilGates[v.Name]
			if !ok {
				return nil, errors.Errorf("unknown gate %q", v.Name)
			}
			kind := def.kind
			params := make([]ir.Param, 0, len(v.Params))
			for _, a := range v.Params {
				switch arg := a.(type) {
				case quil.Number:
					params = append(params, ir.Number(arg))
				case quil.Sym:
					id, ok := circ.ParamByName(arg.Name)
					if !ok {
						return nil, errors.Errorf("parameter %q not declared", arg.Name)
					}
					params = append(params, ir.Ref(id))
				}
			}
			if len(params) == 0 {
				params = nil
			}
			if v.Dagger {
				if isRotation(kind) {
					for i, p := range params {
						n, ok := p.(ir.Number)
						if !ok {
							return nil, errors.Errorf("cannot apply DAGGER to %s with a symbolic parameter", v.Name)
						}
						params[i] = ir.Number(-float64(n))
					}
				} else {
					inv, ok := quilDagger[kind]
					if !ok {
						return nil, errors.Errorf("cannot apply DAGGER to %s", v.Name)
					}
					kind = inv
				}
			}
			op := ir.Operation{Kind: kind, Controls: def.ctrls + v.Ctrls, Qubits: v.Qubits, Params: params}
			if err := circ.Add(op); err != nil {
				return nil, err
			}
		case quil.Measure:
			if v.Target == nil {
				return nil, errors.Errorf("MEASURE %d without a target cannot be converted", v.Qubit)
			}
			op := ir.Operation{
				Kind:   ir.MEASURE,
				Qubits: []int{v.Qubit},
				Clbit:  boff[v.Target.Name] + v.Target.Index,
			}
			if err := circ.Add(op); err != nil {
				return nil, err
			}
		}
	}
	return circ, nil
}

func (quilAdapter) FromIR(c *ir.Circuit) (any, error) {
	prog := quil.NewProgram()
	if c.NumClbits > 0 {
		prog.Declare("ro", "BIT", c.NumClbits)
	}
	for _, id := range c.Params {
		prog.Declare(id.Name, "REAL", 1)
	}
	for _, op := range c.Ops {
		if op.Kind == ir.MEASURE {
			prog.AddMeasure(op.Qubits[0], &quil.MemRef{Name: "ro", Index: op.Clbit})
			continue
		}
		g := quil.Gate{Qubits: op.Qubits}
		if name, ok := quilNames[gateKey{op.Kind, op.Controls}]; ok {
			g.Name = name
		} else {
			kind, dagger := op.Kind, false
			switch kind {
			case ir.SDG:
				kind, dagger = ir.S, true
			case ir.TDG:
				kind, dagger = ir.T, true
			}
			base, ok := quilNames[gateKey{kind, 0}]
			if !ok {
				return nil, errors.Errorf("no Quil gate for %s", op.Kind)
			}
			g.Name, g.Dagger, g.Ctrls = base, dagger, op.Controls
		}
		for _, p := range op.Params {
			switch v := p.(type) {
			case ir.Number:
				g.Params = append(g.Params, quil.Number(v))
			case ir.Ref:
				g.Params = append(g.Params, quil.Sym(quil.MemRef{Name: v.Name}))
			}
		}
		prog.AddGate(g)
	}
	return prog, nil
}

func bitOffsets(prog *quil.Program) map[string]int {
	offsets := map[string]int{}
	off := 0
	for _, d := range prog.Decls {
		if d.Type == "BIT" {
			offsets[d.Name] = off
			off += d.Size
		}
	}
	return offsets
}
