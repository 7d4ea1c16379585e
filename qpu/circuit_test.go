//go:build unit
// +build unit

package qpu

import (
	"strconv"
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/qonduit-team/qonduit-engine/common"
	"github.com/qonduit-team/qonduit-engine/core"
	"github.com/qonduit-team/qonduit-engine/transpiler"
	"github.com/stretchr/testify/assert"
)

var testDeviceSetting *DeviceSetting = &DeviceSetting{
	GateSupport: NewGateSupport(),
}

func TestCircuitValidate(t *testing.T) {
	s := core.SCWithUnimplementedContainer()
	defer s.TearDown()
	maxQubits := s.GetDeviceInfo().MaxQubits
	assert.Equal(t, maxQubits, core.MockMaxQubits)

	tests := []struct {
		name          string
		program       string
		pkg           string
		deviceSetting *DeviceSetting
		wantErrorMsg  string
	}{
		{
			name:          "no program",
			program:       "",
			pkg:           "qasm3",
			deviceSetting: testDeviceSetting,
			wantErrorMsg:  "no input program",
		},
		{
			name:          "not a qasm3 program",
			program:       "hoge",
			pkg:           "qasm3",
			deviceSetting: testDeviceSetting,
			wantErrorMsg:  `failed to convert qasm3 circuit at stage to-ir: line 1:1 expected OPENQASM header, got "hoge"`,
		},
		{
			name:          "undetectable package",
			program:       "hoge",
			pkg:           "",
			deviceSetting: testDeviceSetting,
			wantErrorMsg:  `unsupported source package "unknown", supported packages are qasm2, qasm3, quil, ionq`,
		},
		{
			name:          "detected quil program",
			program:       "H 0\n",
			pkg:           "",
			deviceSetting: testDeviceSetting,
			wantErrorMsg:  "",
		},
		{
			name:          "qubit declaration",
			program:       "OPENQASM 3;qubit[3] q;",
			pkg:           "qasm3",
			deviceSetting: testDeviceSetting,
			wantErrorMsg:  "",
		},
		{
			name:          "full size qubits",
			program:       "OPENQASM 3;qubit[" + strconv.Itoa(maxQubits) + "] q;",
			pkg:           "qasm3",
			deviceSetting: testDeviceSetting,
			wantErrorMsg:  "",
		},
		{
			name:          "too many qubits",
			program:       "OPENQASM 3;qubit[" + strconv.Itoa(maxQubits+1) + "] q;",
			pkg:           "qasm3",
			deviceSetting: testDeviceSetting,
			wantErrorMsg: "too many qubits in your circuit. we only have " +
				strconv.Itoa(maxQubits) + " qubits",
		},
		{
			name:    "gate not in allow list",
			program: "OPENQASM 3;qubit[2] q;swap q[0], q[1];",
			pkg:     "qasm3",
			deviceSetting: &DeviceSetting{
				GateSupport: NewGateSupportWithAllowList(&GateFilter{
					Enabled: true,
					Gates: []*GateType{
						{Name: "h"},
						{Name: "x"},
						{Name: "cx"},
						{Name: "measure"},
					},
				}),
			},
			wantErrorMsg: "gate:swap is not supported",
		},
		{
			name:    "allow and deny list",
			program: "OPENQASM 3;qubit[2] q;cx q[0], q[1];",
			pkg:     "qasm3",
			deviceSetting: &DeviceSetting{
				GateSupport: &GateSupport{
					AllowList: &GateFilter{
						Enabled: true,
						Gates: []*GateType{
							{Name: "cx"},
						},
					},
					DenyList: &GateFilter{
						Enabled: true,
						Gates: []*GateType{
							{Name: "cx"},
						},
					},
				},
			},
			wantErrorMsg: "gate:cx is not supported",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := circuitValidate(tt.program, tt.pkg, tt.deviceSetting)
			if tt.wantErrorMsg == "" {
				assert.Nil(t, err)
			} else {
				assert.Equal(t, err.Error(), tt.wantErrorMsg)
			}
		})
	}
}

func TestParseBellPair(t *testing.T) {
	testQASM, commonErr := common.GetAsset("bell_pair.qasm")
	assert.Nil(t, commonErr)
	w, parseErr := parseProgram(testQASM, "qasm3")
	assert.Nil(t, parseErr)

	assert.Equal(t, w.NumQubits(), 2)
	assert.Equal(t, w.NumClbits(), 2)

	names := []string{}
	for _, g := range w.Gates() {
		names = append(names, gateName(g))
	}
	assert.Equal(t, names, []string{"h", "cx", "measure", "measure"})
}

func TestGateName(t *testing.T) {
	w, err := parseProgram("OPENQASM 3;qubit[3] q;ctrl @ ctrl @ x q[0], q[1], q[2];", "qasm3")
	assert.Nil(t, err)
	gates := w.Gates()
	assert.Equal(t, len(gates), 1)
	assert.Equal(t, gateName(gates[0]), "ccx")
}

func TestCheckResource(t *testing.T) {
	tests := []struct {
		name         string
		program      string
		wantErrorMsg string
	}{
		{
			name: "fitting circuit",
			program: heredoc.Doc(`
				OPENQASM 3;
				qubit[2] q;
				bit[2] c;
				h q[0];
				cx q[0], q[1];
				c[0] = measure q[0];
				c[1] = measure q[1];
			`),
			wantErrorMsg: "",
		},
		{
			name: "too many qubits",
			program: heredoc.Doc(`
				OPENQASM 3;
				qubit[3] q;
				h q[0];
			`),
			wantErrorMsg: "too many qubits in your circuit. we only have 2 qubits",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, parseErr := transpiler.Wrap(transpiler.QASM3, tt.program)
			assert.Nil(t, parseErr)
			err := checkResource(w, 2)
			if tt.wantErrorMsg == "" {
				assert.Nil(t, err)
			} else {
				assert.Equal(t, err.Error(), tt.wantErrorMsg)
			}
		})
	}
}
