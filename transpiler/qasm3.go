package transpiler

import (
	"math"

	"github.com/go-faster/errors"

	"github.com/qonduit-team/qonduit-engine/ir"
	"github.com/qonduit-team/qonduit-engine/program/qasm3"
)

// qasm3Gates covers the stdgates names, the uppercase U builtin and the
// legacy u1/u2/u3 spellings. Explicit ctrl modifiers stack on top of
// the implied control count.
var qasm3Gates = map[string]gateDef{
	"id":     {kind: ir.I},
	"x":      {kind: ir.X},
	"y":      {kind: ir.Y},
	"z":      {kind: ir.Z},
	"h":      {kind: ir.H},
	"s":      {kind: ir.S},
	"sdg":    {kind: ir.SDG},
	"t":      {kind: ir.T},
	"tdg":    {kind: ir.TDG},
	"sx":     {kind: ir.SX},
	"sxdg":   {kind: ir.SXDG},
	"rx":     {kind: ir.RX},
	"ry":     {kind: ir.RY},
	"rz":     {kind: ir.RZ},
	"p":      {kind: ir.PHASE},
	"phase":  {kind: ir.PHASE},
	"u1":     {kind: ir.PHASE},
	"u2":     {kind: ir.U, prefix: []float64{math.Pi / 2}},
	"u3":     {kind: ir.U},
	"U":      {kind: ir.U},
	"cx":     {kind: ir.X, ctrls: 1},
	"CX":     {kind: ir.X, ctrls: 1},
	"cy":     {kind: ir.Y, ctrls: 1},
	"cz":     {kind: ir.Z, ctrls: 1},
	"ch":     {kind: ir.H, ctrls: 1},
	"crx":    {kind: ir.RX, ctrls: 1},
	"cry":    {kind: ir.RY, ctrls: 1},
	"crz":    {kind: ir.RZ, ctrls: 1},
	"cp":     {kind: ir.PHASE, ctrls: 1},
	"cphase": {kind: ir.PHASE, ctrls: 1},
	"cu1":    {kind: ir.PHASE, ctrls: 1},
	"ccx":    {kind: ir.X, ctrls: 2},
	"swap":   {kind: ir.SWAP},
	"cswap":  {kind: ir.SWAP, ctrls: 1},
}

var qasm3Names = map[gateKey]string{
	{ir.I, 0}:     "id",
	{ir.X, 0}:     "x",
	{ir.X, 1}:     "cx",
	{ir.X, 2}:     "ccx",
	{ir.Y, 0}:     "y",
	{ir.Y, 1}:     "cy",
	{ir.Z, 0}:     "z",
	{ir.Z, 1}:     "cz",
	{ir.H, 0}:     "h",
	{ir.H, 1}:     "ch",
	{ir.S, 0}:     "s",
	{ir.SDG, 0}:   "sdg",
	{ir.T, 0}:     "t",
	{ir.TDG, 0}:   "tdg",
	{ir.SX, 0}:    "sx",
	{ir.SXDG, 0}:  "sxdg",
	{ir.RX, 0}:    "rx",
	{ir.RX, 1}:    "crx",
	{ir.RY, 0}:    "ry",
	{ir.RY, 1}:    "cry",
	{ir.RZ, 0}:    "rz",
	{ir.RZ, 1}:    "crz",
	{ir.PHASE, 0}: "p",
	{ir.PHASE, 1}: "cp",
	{ir.U, 0}:     "U",
	{ir.SWAP, 0}:  "swap",
	{ir.SWAP, 1}:  "cswap",
}

type qasm3Adapter struct{}

func (qasm3Adapter) Package() Package {
	return QASM3
}

func (qasm3Adapter) Detect(native any) bool {
	_, ok := native.(*qasm3.Program)
	return ok
}

func (qasm3Adapter) Parse(src string) (any, error) {
	return qasm3.Parse(src)
}

func (qasm3Adapter) Render(native any) (string, error) {
	prog, ok := native.(*qasm3.Program)
	if !ok {
		return "", errors.Errorf("not an OPENQASM 3 program: %T", native)
	}
	return prog.Serialize(), nil
}

func (qasm3Adapter) ToIR(native any) (*ir.Circuit, error) {
	prog, ok := native.(*qasm3.Program)
	if !ok {
		return nil, errors.Errorf("not an OPENQASM 3 program: %T", native)
	}
	circ := ir.NewCircuit(prog.QubitCount(), prog.ClbitCount())
	for _, name := range prog.Inputs {
		circ.DeclareParam(name)
	}
	qoff := registerOffsets3(prog.QRegs)
	coff := registerOffsets3(prog.CRegs)
	for _, s := range prog.Stmts {
		switch st := s.(type) {
		case qasm3.GateStmt:
			def, ok := qasm3Gates[st.Name]
			if !ok {
				return nil, errors.Errorf("unknown gate %q", st.Name)
			}
			params := make([]ir.Param, 0, len(def.prefix)+len(st.Params))
			for _, v := range def.prefix {
				params = append(params, ir.Number(v))
			}
			for _, a := range st.Params {
				switch v := a.(type) {
				case qasm3.Number:
					params = append(params, ir.Number(v))
				case qasm3.Sym:
					id, ok := circ.ParamByName(string(v))
					if !ok {
						return nil, errors.Errorf("parameter %q not declared", string(v))
					}
					params = append(params, ir.Ref(id))
				}
			}
			if len(params) == 0 {
				params = nil
			}
			qubits := make([]int, len(st.Qubits))
			for i, q := range st.Qubits {
				qubits[i] = qoff[q.Reg] + q.Index
			}
			op := ir.Operation{Kind: def.kind, Controls: def.ctrls + st.Ctrls, Qubits: qubits, Params: params}
			if err := circ.Add(op); err != nil {
				return nil, err
			}
		case qasm3.MeasureStmt:
			op := ir.Operation{
				Kind:   ir.MEASURE,
				Qubits: []int{qoff[st.Qubit.Reg] + st.Qubit.Index},
				Clbit:  coff[st.Bit.Reg] + st.Bit.Index,
			}
			if err := circ.Add(op); err != nil {
				return nil, err
			}
		}
	}
	return circ, nil
}

// FromIR lowers every circuit: control counts beyond the stdgates
// names fall back to ctrl modifiers on the base gate.
func (qasm3Adapter) FromIR(c *ir.Circuit) (any, error) {
	prog := qasm3.NewProgram()
	for _, id := range c.Params {
		prog.AddInput(id.Name)
	}
	if c.NumQubits > 0 {
		prog.AddQReg("q", c.NumQubits)
	}
	if c.NumClbits > 0 {
		prog.AddCReg("c", c.NumClbits)
	}
	for _, op := range c.Ops {
		if op.Kind == ir.MEASURE {
			prog.AddMeasure(
				qasm3.Ref{Reg: "q", Index: op.Qubits[0]},
				qasm3.Ref{Reg: "c", Index: op.Clbit},
			)
			continue
		}
		name, ctrls := qasm3Names[gateKey{op.Kind, op.Controls}], 0
		if name == "" {
			base, ok := qasm3Names[gateKey{op.Kind, 0}]
			if !ok {
				return nil, errors.Errorf("no OPENQASM 3 gate for %s", op.Kind)
			}
			name, ctrls = base, op.Controls
		}
		var params []qasm3.Arg
		for _, p := range op.Params {
			switch v := p.(type) {
			case ir.Number:
				params = append(params, qasm3.Number(v))
			case ir.Ref:
				params = append(params, qasm3.Sym(v.Name))
			}
		}
		refs := make([]qasm3.Ref, len(op.Qubits))
		for i, q := range op.Qubits {
			refs[i] = qasm3.Ref{Reg: "q", Index: q}
		}
		prog.AddGate(name, ctrls, params, refs...)
	}
	return prog, nil
}

func registerOffsets3(regs []qasm3.Register) map[string]int {
	offsets := make(map[string]int, len(regs))
	off := 0
	for _, r := range regs {
		offsets[r.Name] = off
		off += r.Size
	}
	return offsets
}
