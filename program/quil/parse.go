package quil

import (
	"fmt"
	"math"
	"strconv"

	"github.com/go-faster/errors"

	"github.com/qonduit-team/qonduit-engine/program/scan"
)

// Parse reads Quil source into a Program. One instruction per line,
// comments start with #. The accepted subset is DECLARE with BIT and
// REAL regions, gate applications with DAGGER and CONTROLLED modifiers
// and MEASURE with an optional target.
func Parse(src string) (p *Program, err error) {
	toks, err := scan.All(src, scan.Options{KeepNewlines: true, LineComment: "#"})
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
			err = fmt.Errorf("failed to parse Quil program: %v", r)
		}
	}()
	ps := &parser{toks: toks, prog: NewProgram(), decls: map[string]Declaration{}}
	ps.run()
	return ps.prog, nil
}

type parseError string

type parser struct {
	toks  []scan.Token
	pos   int
	prog  *Program
	decls map[string]Declaration
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
	for {
		for p.cur().Kind == scan.Newline {
			p.next()
		}
		if p.cur().Kind == scan.EOF {
			return
		}
		p.instruction()
	}
}

func (p *parser) instruction() {
	t := p.cur()
	if t.Kind != scan.Ident {
		p.errf(t, "expected instruction, got %q", t.Text)
	}
	switch t.Text {
	case "DECLARE":
		p.declare()
	case "MEASURE":
		p.measure()
	case "RESET", "PRAGMA", "DEFGATE", "DEFCIRCUIT", "JUMP", "LABEL", "HALT",
		"NOP", "WAIT", "MOVE", "ADD", "SUB", "MUL", "DIV", "EXCHANGE", "NOT",
		"AND", "IOR", "XOR":
		p.errf(t, "unsupported instruction %q", t.Text)
	default:
		p.gate()
	}
}

func (p *parser) declare() {
	p.next()
	name := p.expect(scan.Ident, "region name")
	typ := p.expect(scan.Ident, "region type")
	if typ.Text != "BIT" && typ.Text != "REAL" {
		p.errf(typ, "unsupported declaration type %q", typ.Text)
	}
	size := 1
	if p.cur().Kind == scan.LBracket {
		p.next()
		n := p.expect(scan.Number, "region size")
		size = p.atoi(n)
		p.expect(scan.RBracket, "']'")
	}
	if size < 1 {
		p.errf(name, "region %q has invalid size %d", name.Text, size)
	}
	if _, ok := p.decls[name.Text]; ok {
		p.errf(name, "region %q already declared", name.Text)
	}
	p.endLine()
	d := Declaration{Name: name.Text, Type: typ.Text, Size: size}
	p.decls[name.Text] = d
	p.prog.Decls = append(p.prog.Decls, d)
}

func (p *parser) measure() {
	p.next()
	q := p.qubit()
	var target *MemRef
	if p.cur().Kind == scan.Ident {
		r := p.memRef("BIT")
		target = &r
	}
	p.endLine()
	p.prog.AddMeasure(q, target)
}

func (p *parser) gate() {
	g := Gate{}
	name := p.next()
	for {
		if name.Text == "DAGGER" {
			g.Dagger = !g.Dagger
			name = p.expect(scan.Ident, "gate name")
			continue
		}
		if name.Text == "CONTROLLED" {
			g.Ctrls++
			name = p.expect(scan.Ident, "gate name")
			continue
		}
		break
	}
	g.Name = name.Text
	if p.cur().Kind == scan.LParen {
		p.next()
		for {
			g.Params = append(g.Params, p.arg())
			if p.cur().Kind == scan.Comma {
				p.next()
				continue
			}
			break
		}
		p.expect(scan.RParen, "')'")
	}
	for p.cur().Kind == scan.Number {
		g.Qubits = append(g.Qubits, p.qubit())
	}
	if len(g.Qubits) == 0 {
		p.errf(name, "gate %q has no qubit operands", name.Text)
	}
	p.endLine()
	p.prog.AddGate(g)
}

// arg reads one gate argument. A bare or indexed identifier references a
// REAL memory slot; anything else must evaluate to a number. Memory
// references inside arithmetic are rejected.
func (p *parser) arg() Arg {
	t := p.cur()
	if t.Kind == scan.Ident && t.Text != "pi" {
		nt := p.toks[p.pos+1]
		if nt.Kind == scan.Comma || nt.Kind == scan.RParen || nt.Kind == scan.LBracket {
			return Sym(p.memRef("REAL"))
		}
		p.errf(t, "memory reference %q cannot appear in an expression", t.Text)
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
		f, err := strconv.ParseFloat(t.Text, 64)
		if err != nil {
			p.errf(t, "expected number, got %q", t.Text)
		}
		return f
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
		p.errf(t, "memory reference %q cannot appear in an expression", t.Text)
	default:
		p.errf(t, "expected parameter expression, got %q", t.Text)
	}
	return 0
}

// memRef reads a bare or indexed memory reference and checks it against
// the declared region of the wanted type.
func (p *parser) memRef(wantType string) MemRef {
	name := p.expect(scan.Ident, "memory region")
	d, ok := p.decls[name.Text]
	if !ok {
		p.errf(name, "undeclared memory region %q", name.Text)
	}
	if d.Type != wantType {
		p.errf(name, "region %q is not %s", name.Text, wantType)
	}
	idx := 0
	if p.cur().Kind == scan.LBracket {
		p.next()
		n := p.expect(scan.Number, "index")
		idx = p.atoi(n)
		p.expect(scan.RBracket, "']'")
	}
	if idx >= d.Size {
		p.errf(name, "index %d out of range for %s[%d]", idx, d.Name, d.Size)
	}
	return MemRef{Name: name.Text, Index: idx}
}

func (p *parser) qubit() int {
	t := p.expect(scan.Number, "qubit index")
	n, err := strconv.Atoi(t.Text)
	if err != nil || n < 0 {
		p.errf(t, "expected qubit index, got %q", t.Text)
	}
	return n
}

func (p *parser) endLine() {
	t := p.next()
	if t.Kind != scan.Newline && t.Kind != scan.EOF {
		p.errf(t, "expected end of line, got %q", t.Text)
	}
}

func (p *parser) atoi(t scan.Token) int {
	n, err := strconv.Atoi(t.Text)
	if err != nil {
		p.errf(t, "expected integer, got %q", t.Text)
	}
	return n
}
