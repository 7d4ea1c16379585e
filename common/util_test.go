//go:build unit
// +build unit

package common

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetAsset(t *testing.T) {
	program, err := GetAsset("bell_pair.qasm")
	assert.Nil(t, err)
	assert.Equal(t,
		"OPENQASM 3;\ninclude \"stdgates.inc\";\nqubit[2] q;\nbit[2] c;\nh q[0];\ncx q[0], q[1];\nc[0] = measure q[0];\nc[1] = measure q[1];\n",
		program)
}

func TestContainsGateName(t *testing.T) {
	list := []string{"h", "CX", "sx_dg"}
	tests := []struct {
		name string
		gate string
		want bool
	}{
		{
			name: "exact match",
			gate: "h",
			want: true,
		},
		{
			name: "case insensitive",
			gate: "cx",
			want: true,
		},
		{
			name: "underscore insensitive",
			gate: "sxdg",
			want: true,
		},
		{
			name: "not in list",
			gate: "rz",
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, ContainsGateName(tt.gate, list), tt.want)
		})
	}
}

// TODO use TDT
func TestValidAddressWrongHost(t *testing.T) {
	host := "hogehoge^^^-server.com"
	port := "23413"
	address, err := ValidAddress(host, port)

	assert.EqualError(t, err, fmt.Sprintf("%s is an invalid host name", host))
	assert.Equal(t, address, "")
}
func TestValidAddressWrongPort(t *testing.T) {
	host := "hogehoge-server.com"
	port := "-23413"
	address, err := ValidAddress(host, port)

	assert.EqualError(t, err, fmt.Sprintf("%s is an invalid port number", port))
	assert.Equal(t, address, "")
}

func TestValidAddressWrongRangePort(t *testing.T) {
	host := "hogehoge-server.com"
	port := "23413431243214"
	address, err := ValidAddress(host, port)

	assert.EqualError(t, err, fmt.Sprintf("%s is not a port number within the allowed range", port))
	assert.Equal(t, address, "")
}

func TestPlaninJsonString(t *testing.T) {
	jsonString := "{\n  \"name\": \"wako\",\n  \"qubits\"}"
	expected := "{\"name\":\"wako\",\"qubits\"}"

	actual := PlainJsonString(jsonString)
	assert.Equal(t, expected, actual)
}
