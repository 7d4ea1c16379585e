//go:build unit
// +build unit

package transpiler

import (
	"math"
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"

	"github.com/qonduit-team/qonduit-engine/ir"
)

func TestQASM2LegacyGateNames(t *testing.T) {
	w, err := Wrap(QASM2, heredoc.Doc(`
		OPENQASM 2.0;
		include "qelib1.inc";
		qreg q[2];
		u1(0.5) q[0];
		u2(0.1,0.2) q[0];
		u3(0.1,0.2,0.3) q[1];
		CX q[0],q[1];
		U(0.1,0.2,0.3) q[0];
	`))
	assert.Nil(t, err)
	gates := w.Gates()
	assert.Equal(t, gates[0].Kind(), ir.PHASE)
	assert.Equal(t, gates[1].Kind(), ir.U)
	assert.Equal(t, gates[1].Params(), []ir.Param{
		ir.Number(math.Pi / 2), ir.Number(0.1), ir.Number(0.2),
	})
	assert.Equal(t, gates[2].Kind(), ir.U)
	assert.Equal(t, gates[3].Kind(), ir.X)
	assert.Equal(t, gates[3].Controls(), 1)
	assert.Equal(t, gates[4].Kind(), ir.U)
}

func TestQASM2MultiRegisterFlattening(t *testing.T) {
	w, err := Wrap(QASM2, heredoc.Doc(`
		OPENQASM 2.0;
		include "qelib1.inc";
		qreg a[1];
		qreg b[2];
		creg m[1];
		creg n[2];
		cx a[0],b[1];
		measure b[0] -> n[1];
	`))
	assert.Nil(t, err)
	assert.Equal(t, w.NumQubits(), 3)
	assert.Equal(t, w.NumClbits(), 3)
	circ, err := w.ToIR()
	assert.Nil(t, err)
	ops := circ.Ops
	assert.Equal(t, ops[0].Qubits, []int{0, 2})
	assert.Equal(t, ops[1].Qubits, []int{1})
	assert.Equal(t, ops[1].Clbit, 2)
}

func TestQASM2ControlCountLimit(t *testing.T) {
	// Three controls parse in Quil but qasm2 has no gate for them.
	w, err := Wrap(Quil, "CONTROLLED CCNOT 0 1 2 3\n")
	assert.Nil(t, err)
	_, err = w.Transpile(QASM2)
	var ce *CircuitConversionError
	assert.True(t, errors.As(err, &ce))
	assert.Equal(t, ce.Stage, StageFromIR)
	assert.Contains(t, err.Error(), "no OPENQASM 2.0 gate for x with 3 controls")
}

func TestQASM3ControlModifierFallback(t *testing.T) {
	text, err := Transpile("CONTROLLED CCNOT 0 1 2 3\n", Quil, QASM3)
	assert.Nil(t, err)
	assert.Equal(t, text, heredoc.Doc(`
		OPENQASM 3;
		include "stdgates.inc";
		qubit[4] q;
		ctrl @ ctrl @ ctrl @ x q[0], q[1], q[2], q[3];
	`))

	back, err := Wrap(QASM3, text)
	assert.Nil(t, err)
	assert.Equal(t, back.Gates()[0].Kind(), ir.X)
	assert.Equal(t, back.Gates()[0].Controls(), 3)
}

func TestQuilDaggerConversions(t *testing.T) {
	w, err := Wrap(Quil, heredoc.Doc(`
		DAGGER S 0
		DAGGER T 0
		DAGGER RX(0.5) 0
	`))
	assert.Nil(t, err)
	gates := w.Gates()
	assert.Equal(t, gates[0].Kind(), ir.SDG)
	assert.Equal(t, gates[1].Kind(), ir.TDG)
	assert.Equal(t, gates[2].Kind(), ir.RX)
	assert.Equal(t, gates[2].Params(), []ir.Param{ir.Number(-0.5)})

	out, err := w.Transpile(QASM2)
	assert.Nil(t, err)
	assert.Contains(t, out.Text(), "sdg q[0];")
	assert.Contains(t, out.Text(), "tdg q[0];")

	// And back out of qasm2 the inverse kinds become DAGGER forms again.
	quilText, err := Transpile("OPENQASM 2.0;\nqreg q[1];\nsdg q[0];\ntdg q[0];", QASM2, Quil)
	assert.Nil(t, err)
	assert.Equal(t, quilText, "DAGGER S 0\nDAGGER T 0\n")
}

func TestQuilRejectsWideRealRegions(t *testing.T) {
	_, err := Wrap(Quil, "DECLARE beta REAL[2]\nRX(beta[0]) 0\n")
	var ce *CircuitConversionError
	assert.True(t, errors.As(err, &ce))
	assert.Equal(t, ce.Stage, StageToIR)
	assert.Contains(t, err.Error(), `REAL region "beta" has size 2`)
}

func TestQuilRejectsDiscardingMeasure(t *testing.T) {
	_, err := Wrap(Quil, "H 0\nMEASURE 0\n")
	var ce *CircuitConversionError
	assert.True(t, errors.As(err, &ce))
	assert.Contains(t, err.Error(), "MEASURE 0 without a target cannot be converted")
}

func TestQuilSymbolicDaggerRejected(t *testing.T) {
	_, err := Wrap(Quil, "DECLARE theta REAL[1]\nDAGGER RX(theta) 0\n")
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "cannot apply DAGGER to RX with a symbolic parameter")
}

func TestIonQGateValidation(t *testing.T) {
	tests := []struct {
		name         string
		src          string
		wantErrorMsg string
	}{
		{
			name:         "unknown gate",
			src:          `{"qubits":1,"circuit":[{"gate":"u3","target":0}]}`,
			wantErrorMsg: `gate 0: unknown gate "u3"`,
		},
		{
			name:         "cnot without control",
			src:          `{"qubits":2,"circuit":[{"gate":"cnot","target":1}]}`,
			wantErrorMsg: "gate 0: cnot requires a control qubit",
		},
		{
			name:         "missing rotation",
			src:          `{"qubits":1,"circuit":[{"gate":"rx","target":0}]}`,
			wantErrorMsg: "gate 0 (rx): missing rotation",
		},
		{
			name:         "unexpected rotation",
			src:          `{"qubits":1,"circuit":[{"gate":"h","target":0,"rotation":0.5}]}`,
			wantErrorMsg: "gate 0 (h): unexpected rotation",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Wrap(IonQ, tt.src)
			var ce *CircuitConversionError
			assert.True(t, errors.As(err, &ce))
			assert.Equal(t, ce.Stage, StageToIR)
			assert.Contains(t, err.Error(), tt.wantErrorMsg)
		})
	}
}

func TestIonQSqrtXNames(t *testing.T) {
	w, err := Wrap(IonQ, `{"qubits":1,"circuit":[{"gate":"v","target":0},{"gate":"vi","target":0}]}`)
	assert.Nil(t, err)
	assert.Equal(t, w.Gates()[0].Kind(), ir.SX)
	assert.Equal(t, w.Gates()[1].Kind(), ir.SXDG)

	out, err := w.Transpile(QASM2)
	assert.Nil(t, err)
	assert.Contains(t, out.Text(), "sx q[0];")
	assert.Contains(t, out.Text(), "sxdg q[0];")

	back, err := Transpile(out.Text(), QASM2, IonQ)
	assert.Nil(t, err)
	assert.Contains(t, back, `{"gate":"v","target":0}`)
	assert.Contains(t, back, `{"gate":"vi","target":0}`)
}

func TestIonQSwapAndMultiControl(t *testing.T) {
	src := `{"qubits":3,"circuit":[{"gate":"swap","targets":[0,1]},{"gate":"x","target":2,"controls":[0,1]}]}`
	w, err := Wrap(IonQ, src)
	assert.Nil(t, err)
	assert.Equal(t, w.Gates()[0].Kind(), ir.SWAP)
	assert.Equal(t, w.Gates()[1].Controls(), 2)

	text, err := Transpile(src, IonQ, QASM2)
	assert.Nil(t, err)
	assert.Contains(t, text, "swap q[0],q[1];")
	assert.Contains(t, text, "ccx q[0],q[1],q[2];")
}

func TestIonQDropsIdentity(t *testing.T) {
	text, err := Transpile("OPENQASM 2.0;\nqreg q[1];\nid q[0];\nh q[0];", QASM2, IonQ)
	assert.Nil(t, err)
	assert.Equal(t, text,
		`{"format":"ionq.circuit.v0","gateset":"qis","qubits":1,`+
			`"circuit":[{"gate":"h","target":0}]}`)
}