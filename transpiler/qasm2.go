package transpiler

import (
	"math"

	"github.com/go-faster/errors"

	"github.com/qonduit-team/qonduit-engine/ir"
	"github.com/qonduit-team/qonduit-engine/program/qasm2"
)

// gateDef maps a native gate name to its base kind, implied control
// count and any fixed leading parameters.
type gateDef struct {
	kind   ir.GateKind
	ctrls  int
	prefix []float64
}

// gateKey addresses the reverse tables: base kind plus control count.
type gateKey struct {
	kind  ir.GateKind
	ctrls int
}

// qasm2Gates covers the qelib1 names plus the uppercase builtins. u2 is
// a u3 with theta fixed to pi/2.
var qasm2Gates = map[string]gateDef{
	"id":   {kind: ir.I},
	"x":    {kind: ir.X},
	"y":    {kind: ir.Y},
	"z":    {kind: ir.Z},
	"h":    {kind: ir.H},
	"s":    {kind: ir.S},
	"sdg":  {kind: ir.SDG},
	"t":    {kind: ir.T},
	"tdg":  {kind: ir.TDG},
	"sx":   {kind: ir.SX},
	"sxdg": {kind: ir.SXDG},
	"rx":   {kind: ir.RX},
	"ry":   {kind: ir.RY},
	"rz":   {kind: ir.RZ},
	"p":    {kind: ir.PHASE},
	"u1":   {kind: ir.PHASE},
	"u2":   {kind: ir.U, prefix: []float64{math.Pi / 2}},
	"u3":   {kind: ir.U},
	"u":    {kind: ir.U},
	"U":    {kind: ir.U},
	"cx":   {kind: ir.X, ctrls: 1},
	"CX":   {kind: ir.X, ctrls: 1},
	"cy":   {kind: ir.Y, ctrls: 1},
	"cz":   {kind: ir.Z, ctrls: 1},
	"ch":   {kind: ir.H, ctrls: 1},
	"crx":  {kind: ir.RX, ctrls: 1},
	"cry":  {kind: ir.RY, ctrls: 1},
	"crz":  {kind: ir.RZ, ctrls: 1},
	"cp":   {kind: ir.PHASE, ctrls: 1},
	"cu1":  {kind: ir.PHASE, ctrls: 1},
	"ccx":  {kind: ir.X, ctrls: 2},
	"swap": {kind: ir.SWAP},
	"cswap": {kind: ir.SWAP, ctrls: 1},
}

var qasm2Names = map[gateKey]string{
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
	{ir.PHASE, 0}: "u1",
	{ir.PHASE, 1}: "cu1",
	{ir.U, 0}:     "u3",
	{ir.SWAP, 0}:  "swap",
	{ir.SWAP, 1}:  "cswap",
}

type qasm2Adapter struct{}

func (qasm2Adapter) Package() Package {
	return QASM2
}

func (qasm2Adapter) Detect(native any) bool {
	_, ok := native.(*qasm2.Program)
	return ok
}

func (qasm2Adapter) Parse(src string) (any, error) {
	return qasm2.Parse(src)
}

func (qasm2Adapter) Render(native any) (string, error) {
	prog, ok := native.(*qasm2.Program)
	if !ok {
		return "", errors.Errorf("not an OPENQASM 2.0 program: %T", native)
	}
	return prog.Serialize(), nil
}

func (qasm2Adapter) ToIR(native any) (*ir.Circuit, error) {
	prog, ok := native.(*qasm2.Program)
	if !ok {
		return nil, errors.Errorf("not an OPENQASM 2.0 program: %T", native)
	}
	circ := ir.NewCircuit(prog.QubitCount(), prog.ClbitCount())
	qoff := registerOffsets2(prog.QRegs)
	coff := registerOffsets2(prog.CRegs)
	for _, s := range prog.Stmts {
		switch st := s.(type) {
		case qasm2.GateStmt:
			def, ok := qasm2Gates[st.Name]
			if !ok {
				return nil, errors.Errorf("unknown gate %q", st.Name)
			}
			params := make([]ir.Param, 0, len(def.prefix)+len(st.Params))
			for _, v := range def.prefix {
				params = append(params, ir.Number(v))
			}
			for _, v := range st.Params {
				params = append(params, ir.Number(v))
			}
			if len(params) == 0 {
				params = nil
			}
			qubits := make([]int, len(st.Qubits))
			for i, q := range st.Qubits {
				qubits[i] = qoff[q.Reg] + q.Index
			}
			op := ir.Operation{Kind: def.kind, Controls: def.ctrls, Qubits: qubits, Params: params}
			if err := circ.Add(op); err != nil {
				return nil, err
			}
		case qasm2.MeasureStmt:
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

func (qasm2Adapter) FromIR(c *ir.Circuit) (any, error) {
	if c.HasUnboundParams() {
		return nil, errors.New("OPENQASM 2.0 cannot express symbolic parameters")
	}
	prog := qasm2.NewProgram()
	if c.NumQubits > 0 {
		prog.AddQReg("q", c.NumQubits)
	}
	if c.NumClbits > 0 {
		prog.AddCReg("c", c.NumClbits)
	}
	for _, op := range c.Ops {
		if op.Kind == ir.MEASURE {
			prog.AddMeasure(
				qasm2.Ref{Reg: "q", Index: op.Qubits[0]},
				qasm2.Ref{Reg: "c", Index: op.Clbit},
			)
			continue
		}
		name, ok := qasm2Names[gateKey{op.Kind, op.Controls}]
		if !ok {
			return nil, errors.Errorf("no OPENQASM 2.0 gate for %s with %d controls", op.Kind, op.Controls)
		}
		var params []float64
		for _, p := range op.Params {
			params = append(params, float64(p.(ir.Number)))
		}
		refs := make([]qasm2.Ref, len(op.Qubits))
		for i, q := range op.Qubits {
			refs[i] = qasm2.Ref{Reg: "q", Index: q}
		}
		prog.AddGate(name, params, refs...)
	}
	return prog, nil
}

func registerOffsets2(regs []qasm2.Register) map[string]int {
	offsets := make(map[string]int, len(regs))
	off := 0
	for _, r := range regs {
		offsets[r.Name] = off
		off += r.Size
	}
	return offsets
}
