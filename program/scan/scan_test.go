//go:build unit
// +build unit

package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func kinds(toks []Token) []Kind {
	ks := make([]Kind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func TestScanQASMStatement(t *testing.T) {
	toks, err := All(`rx(pi/2) q[0]; // comment`, Options{})
	assert.Nil(t, err)
	assert.Equal(t, kinds(toks), []Kind{
		Ident, LParen, Ident, Slash, Number, RParen,
		Ident, LBracket, Number, RBracket, Semi, EOF,
	})
	assert.Equal(t, toks[0].Text, "rx")
	assert.Equal(t, toks[2].Text, "pi")
	assert.Equal(t, toks[0].Line, 1)
	assert.Equal(t, toks[0].Col, 1)
}

func TestScanArrowAndMinus(t *testing.T) {
	toks, err := All(`measure q[0] -> c[0]; u(-0.5)`, Options{})
	assert.Nil(t, err)
	var arrow, minus bool
	for _, tok := range toks {
		if tok.Kind == Arrow {
			arrow = true
		}
		if tok.Kind == Minus {
			minus = true
		}
	}
	assert.True(t, arrow)
	assert.True(t, minus)
}

func TestScanNumbers(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "integer", src: "42", want: "42"},
		{name: "float", src: "0.25", want: "0.25"},
		{name: "leading dot", src: ".5", want: ".5"},
		{name: "exponent", src: "1e-3", want: "1e-3"},
		{name: "upper exponent", src: "2E+4", want: "2E+4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := All(tt.src, Options{})
			assert.Nil(t, err)
			assert.Equal(t, toks[0].Kind, Number)
			assert.Equal(t, toks[0].Text, tt.want)
		})
	}
}

func TestScanKeepNewlines(t *testing.T) {
	toks, err := All("H 0\nCNOT 0 1 # tail\n", Options{KeepNewlines: true, LineComment: "#"})
	assert.Nil(t, err)
	assert.Equal(t, kinds(toks), []Kind{
		Ident, Number, Newline, Ident, Number, Number, Newline, EOF,
	})
}

func TestScanString(t *testing.T) {
	toks, err := All(`include "qelib1.inc";`, Options{})
	assert.Nil(t, err)
	assert.Equal(t, toks[1].Kind, Str)
	assert.Equal(t, toks[1].Text, "qelib1.inc")
}

func TestScanUnicodeIdent(t *testing.T) {
	toks, err := All("rx(θ0) q[0];", Options{})
	assert.Nil(t, err)
	assert.Equal(t, toks[2].Kind, Ident)
	assert.Equal(t, toks[2].Text, "θ0")
}

func TestScanErrors(t *testing.T) {
	tests := []struct {
		name         string
		src          string
		wantErrorMsg string
	}{
		{name: "bad char", src: "h q{0};", wantErrorMsg: `line 1:4 unexpected character "{"`},
		{name: "unterminated string", src: `include "qelib`, wantErrorMsg: "line 1:9 unterminated string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := All(tt.src, Options{})
			assert.NotNil(t, err)
			assert.Equal(t, err.Error(), tt.wantErrorMsg)
		})
	}
}
