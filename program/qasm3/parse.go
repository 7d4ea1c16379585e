package qasm3

import (
	"fmt"
	"math"
	"strconv"

	"github.com/go-faster/errors"

	"github.com/qonduit-team/qonduit-engine/program/scan"
)

// Parse reads OpenQASM 3 source into a Program. The accepted subset is
// header, includes, input float declarations, qubit/bit declarations,
// gate calls with ctrl @ modifiers and measurement in both the arrow and
// the assignment form. Whole-register operands broadcast over the
// register for single-qubit gates and for measurement.
func Parse(src string) (p *Program, err error) {
	toks, err := scan.All(src, scan.Options{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			p = nil
			if pe, ok := r.(parseError); ok {
				err = errors.New(string(pe))
				return
			}
			err = fmt.Errorf("failed to parse OPENQASM 3 program: %v", r)
		}
	}()
	ps := &parser{
		toks:   toks,
		prog:   NewProgram(),
		regs:   map[string]int{},
		inputs: map[string]bool{},
		qregs:  map[string]bool{},
	}
	ps.prog.Includes = nil
	ps.run()
	return ps.prog, nil
}

// parseError marks panics raised by the grammar itself so Parse can
// surface them verbatim; any other panic is reported with its cause.
type parseError string

type parser struct {
	toks   []scan.Token
	pos    int
	prog   *Program
	regs   map[string]int  // register name to size, qubit and bit share the namespace
	inputs map[string]bool // declared input parameter names
	qregs  map[string]bool
}

func (p *parser) cur() scan.Token { return p.toks[p.pos] }

func (p *parser) next() scan.Token {
	t := p.toks[p.pos]
	if t.Kind != scan.EOF {
		p.pos++
	}
	return t
}

func (p *parser) errf(t scan.Token, format string, args ...any) {
	panic(parseError(fmt.Sprintf("line %d:%d %s", t.Line, t.Col, fmt.Sprintf(format, args...))))
}

func (p *parser) expect(kind scan.Kind, what string) scan.Token {
	t := p.next()
	if t.Kind != kind {
		p.errf(t, "expected %s, got %q", what, t.Text)
	}
	return t
}

func (p *parser) run() {
	p.header()
	for p.cur().Kind != scan.EOF {
		p.statement()
	}
}

func (p *parser) header() {
	t := p.expect(scan.Ident, "OPENQASM header")
	if t.Text != "OPENQASM" {
		p.errf(t, "expected OPENQASM header, got %q", t.Text)
	}
	v := p.expect(scan.Number, "version number")
	if v.Text != "3" && v.Text != "3.0" {
		p.errf(v, "unsupported OPENQASM version %s", v.Text)
	}
	p.expect(scan.Semi, "';'")
}

func (p *parser) statement() {
	t := p.cur()
	if t.Kind != scan.Ident {
		p.errf(t, "expected statement, got %q", t.Text)
	}
	switch t.Text {
	case "include":
		p.next()
		inc := p.expect(scan.Str, "include path")
		p.expect(scan.Semi, "';'")
		p.prog.Includes = append(p.prog.Includes, inc.Text)
	case "input":
		p.inputDecl()
	case "qubit", "bit":
		p.regDecl(t.Text == "qubit")
	case "qreg", "creg":
		p.legacyRegDecl(t.Text == "qreg")
	case "measure":
		p.next()
		q := p.ref(true)
		p.expect(scan.Arrow, "'->'")
		c := p.ref(false)
		p.expect(scan.Semi, "';'")
		p.appendMeasure(t, q, c)
	case "barrier", "reset", "gate", "def", "if", "for", "while", "const", "output", "gphase", "pragma", "cal", "defcal", "let", "delay", "box":
		p.errf(t, "unsupported statement %q", t.Text)
	default:
		if p.regs[t.Text] > 0 && !p.qregs[t.Text] {
			p.assignMeasure()
			return
		}
		p.gateCall()
	}
}

func (p *parser) inputDecl() {
	p.next()
	ty := p.expect(scan.Ident, "input type")
	if ty.Text != "float" && ty.Text != "angle" {
		p.errf(ty, "unsupported input type %q", ty.Text)
	}
	if p.cur().Kind == scan.LBracket {
		p.next()
		p.expect(scan.Number, "width")
		p.expect(scan.RBracket, "']'")
	}
	name := p.expect(scan.Ident, "parameter name")
	if p.inputs[name.Text] {
		p.errf(name, "input %q already declared", name.Text)
	}
	p.expect(scan.Semi, "';'")
	p.inputs[name.Text] = true
	p.prog.AddInput(name.Text)
}

func (p *parser) regDecl(quantum bool) {
	p.next()
	size := 1
	if p.cur().Kind == scan.LBracket {
		p.next()
		n := p.expect(scan.Number, "register size")
		size = atoiTok(p, n)
		p.expect(scan.RBracket, "']'")
	}
	name := p.expect(scan.Ident, "register name")
	p.expect(scan.Semi, "';'")
	p.declare(name, size, quantum)
}

// legacyRegDecl accepts the OpenQASM 2 style qreg/creg spelling which
// remains legal in version 3 programs.
func (p *parser) legacyRegDecl(quantum bool) {
	p.next()
	name := p.expect(scan.Ident, "register name")
	size := 1
	if p.cur().Kind == scan.LBracket {
		p.next()
		n := p.expect(scan.Number, "register size")
		size = atoiTok(p, n)
		p.expect(scan.RBracket, "']'")
	}
	p.expect(scan.Semi, "';'")
	p.declare(name, size, quantum)
}

func (p *parser) declare(name scan.Token, size int, quantum bool) {
	if size < 1 {
		p.errf(name, "register %q has invalid size %d", name.Text, size)
	}
	if p.regs[name.Text] > 0 {
		p.errf(name, "register %q already declared", name.Text)
	}
	p.regs[name.Text] = size
	if quantum {
		p.qregs[name.Text] = true
		p.prog.AddQReg(name.Text, size)
	} else {
		p.prog.AddCReg(name.Text, size)
	}
}

func (p *parser) assignMeasure() {
	at := p.cur()
	c := p.ref(false)
	p.expect(scan.Assign, "'='")
	m := p.expect(scan.Ident, "measure")
	if m.Text != "measure" {
		p.errf(m, "expected measure, got %q", m.Text)
	}
	q := p.ref(true)
	p.expect(scan.Semi, "';'")
	p.appendMeasure(at, q, c)
}

func (p *parser) gateCall() {
	name := p.next()
	ctrls := 0
	for name.Text == "ctrl" && p.cur().Kind == scan.At {
		p.next()
		ctrls++
		name = p.expect(scan.Ident, "gate name")
	}
	switch name.Text {
	case "negctrl", "inv", "pow":
		p.errf(name, "unsupported gate modifier %q", name.Text)
	}
	var params []Arg
	if p.cur().Kind == scan.LParen {
		p.next()
		for {
			params = append(params, p.arg())
			if p.cur().Kind == scan.Comma {
				p.next()
				continue
			}
			break
		}
		p.expect(scan.RParen, "')'")
	}
	var qubits []Ref
	for {
		qubits = append(qubits, p.ref(true))
		if p.cur().Kind == scan.Comma {
			p.next()
			continue
		}
		break
	}
	p.expect(scan.Semi, "';'")
	p.appendGate(name, ctrls, params, qubits)
}

// arg reads one gate argument. A bare identifier names a declared input
// parameter; anything else must evaluate to a number. Symbols inside
// arithmetic are rejected so every argument stays either fully bound or
// a single symbol.
func (p *parser) arg() Arg {
	t := p.cur()
	if t.Kind == scan.Ident && t.Text != "pi" {
		nt := p.toks[p.pos+1]
		if nt.Kind == scan.Comma || nt.Kind == scan.RParen {
			if !p.inputs[t.Text] {
				p.errf(t, "undeclared input parameter %q", t.Text)
			}
			p.next()
			return Sym(t.Text)
		}
	}
	return Number(p.expr())
}

func (p *parser) expr() float64 {
	v := p.term()
	for {
		switch p.cur().Kind {
		case scan.Plus:
			p.next()
			v += p.term()
		case scan.Minus:
			p.next()
			v -= p.term()
		default:
			return v
		}
	}
}

func (p *parser) term() float64 {
	v := p.factor()
	for {
		switch p.cur().Kind {
		case scan.Star:
			p.next()
			v *= p.factor()
		case scan.Slash:
			p.next()
			t := p.cur()
			d := p.factor()
			if d == 0 {
				p.errf(t, "division by zero in parameter expression")
			}
			v /= d
		default:
			return v
		}
	}
}

func (p *parser) factor() float64 {
	t := p.next()
	switch t.Kind {
	case scan.Number:
		return atofTok(p, t)
	case scan.Minus:
		return -p.factor()
	case scan.Plus:
		return p.factor()
	case scan.LParen:
		v := p.expr()
		p.expect(scan.RParen, "')'")
		return v
	case scan.Ident:
		if t.Text == "pi" {
			return math.Pi
		}
		p.errf(t, "symbolic parameter %q cannot appear in an expression", t.Text)
	default:
		p.errf(t, "expected parameter expression, got %q", t.Text)
	}
	return 0
}

// ref reads a register operand. Index -1 means the whole register.
func (p *parser) ref(quantum bool) Ref {
	name := p.expect(scan.Ident, "register name")
	size, ok := p.regs[name.Text]
	if !ok {
		p.errf(name, "unknown register %q", name.Text)
	}
	if p.qregs[name.Text] != quantum {
		if quantum {
			p.errf(name, "register %q is not a qubit register", name.Text)
		}
		p.errf(name, "register %q is not a bit register", name.Text)
	}
	idx := -1
	if p.cur().Kind == scan.LBracket {
		p.next()
		n := p.expect(scan.Number, "index")
		idx = atoiTok(p, n)
		p.expect(scan.RBracket, "']'")
		if idx >= size {
			p.errf(n, "index %d out of range for %s[%d]", idx, name.Text, size)
		}
	}
	return Ref{Reg: name.Text, Index: idx}
}

func (p *parser) appendGate(name scan.Token, ctrls int, params []Arg, qubits []Ref) {
	broadcast := ""
	for _, q := range qubits {
		if q.Index < 0 {
			broadcast = q.Reg
		}
	}
	if broadcast == "" {
		p.prog.AddGate(name.Text, ctrls, params, qubits...)
		return
	}
	if len(qubits) > 1 || ctrls > 0 {
		p.errf(name, "register broadcast not supported for multi-qubit gates")
	}
	for i := 0; i < p.regs[broadcast]; i++ {
		p.prog.AddGate(name.Text, ctrls, params, Ref{Reg: broadcast, Index: i})
	}
}

func (p *parser) appendMeasure(at scan.Token, q, c Ref) {
	if (q.Index < 0) != (c.Index < 0) {
		p.errf(at, "measure operands must both be indexed or both be registers")
	}
	if q.Index >= 0 {
		p.prog.AddMeasure(q, c)
		return
	}
	qs, cs := p.regs[q.Reg], p.regs[c.Reg]
	if qs != cs {
		p.errf(at, "measure register sizes differ: %s[%d] vs %s[%d]", q.Reg, qs, c.Reg, cs)
	}
	for i := 0; i < qs; i++ {
		p.prog.AddMeasure(Ref{Reg: q.Reg, Index: i}, Ref{Reg: c.Reg, Index: i})
	}
}

func atoiTok(p *parser, t scan.Token) int {
	n, err := strconv.Atoi(t.Text)
	if err != nil {
		p.errf(t, "expected integer, got %q", t.Text)
	}
	return n
}

func atofTok(p *parser, t scan.Token) float64 {
	f, err := strconv.ParseFloat(t.Text, 64)
	if err != nil {
		p.errf(t, "expected number, got %q", t.Text)
	}
	return f
}
