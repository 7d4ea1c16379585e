package qasm2

import (
	"math"
	"strconv"

	"github.com/go-faster/errors"

	"github.com/qonduit-team/qonduit-engine/program/scan"
)

// Parse reads OpenQASM 2.0 text into a Program. Whole-register operands are
// expanded to per-index statements for single-qubit gates and measurements;
// gate definitions, conditionals and barriers are rejected.
func Parse(src string) (prog *Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			prog = nil
			err = errors.Errorf("failed to parse OPENQASM 2.0 program: %v", r)
		}
	}()
	toks, err := scan.All(src, scan.Options{})
	if err != nil {
		return nil, err
	}
	p := &parser{
		toks:  toks,
		prog:  &Program{},
		qregs: map[string]int{},
		cregs: map[string]int{},
	}
	if err := p.parseHeader(); err != nil {
		return nil, err
	}
	for p.cur().Kind != scan.EOF {
		if err := p.parseStatement(); err != nil {
			return nil, err
		}
	}
	return p.prog, nil
}

type parser struct {
	toks  []scan.Token
	pos   int
	prog  *Program
	qregs map[string]int
	cregs map[string]int
}

func (p *parser) cur() scan.Token {
	return p.toks[p.pos]
}

func (p *parser) next() scan.Token {
	t := p.toks[p.pos]
	if t.Kind != scan.EOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(k scan.Kind, what string) (scan.Token, error) {
	t := p.next()
	if t.Kind != k {
		return t, errors.Errorf("line %d:%d expected %s, got %q", t.Line, t.Col, what, t.Text)
	}
	return t, nil
}

func (p *parser) parseHeader() error {
	t, err := p.expect(scan.Ident, "OPENQASM")
	if err != nil {
		return err
	}
	if t.Text != "OPENQASM" {
		return errors.Errorf("line %d:%d expected OPENQASM header, got %q", t.Line, t.Col, t.Text)
	}
	v, err := p.expect(scan.Number, "version")
	if err != nil {
		return err
	}
	if v.Text != "2" && v.Text != "2.0" {
		return errors.Errorf("line %d:%d unsupported OPENQASM version %s", v.Line, v.Col, v.Text)
	}
	p.prog.Version = "2.0"
	_, err = p.expect(scan.Semi, "';'")
	return err
}

func (p *parser) parseStatement() error {
	t := p.cur()
	if t.Kind != scan.Ident {
		return errors.Errorf("line %d:%d expected statement, got %q", t.Line, t.Col, t.Text)
	}
	switch t.Text {
	case "include":
		return p.parseInclude()
	case "qreg", "creg":
		return p.parseRegister()
	case "measure":
		return p.parseMeasure()
	case "barrier", "gate", "opaque", "if", "reset":
		return errors.Errorf("line %d:%d unsupported statement %q", t.Line, t.Col, t.Text)
	default:
		return p.parseGateCall()
	}
}

func (p *parser) parseInclude() error {
	p.next()
	t, err := p.expect(scan.Str, "include path")
	if err != nil {
		return err
	}
	p.prog.Includes = append(p.prog.Includes, t.Text)
	_, err = p.expect(scan.Semi, "';'")
	return err
}

func (p *parser) parseRegister() error {
	kw := p.next()
	name, err := p.expect(scan.Ident, "register name")
	if err != nil {
		return err
	}
	if _, ok := p.qregs[name.Text]; ok {
		return errors.Errorf("line %d:%d register %q already declared", name.Line, name.Col, name.Text)
	}
	if _, ok := p.cregs[name.Text]; ok {
		return errors.Errorf("line %d:%d register %q already declared", name.Line, name.Col, name.Text)
	}
	if _, err := p.expect(scan.LBracket, "'['"); err != nil {
		return err
	}
	sizeTok, err := p.expect(scan.Number, "register size")
	if err != nil {
		return err
	}
	size, err := strconv.Atoi(sizeTok.Text)
	if err != nil || size <= 0 {
		return errors.Errorf("line %d:%d invalid register size %q", sizeTok.Line, sizeTok.Col, sizeTok.Text)
	}
	if _, err := p.expect(scan.RBracket, "']'"); err != nil {
		return err
	}
	if _, err := p.expect(scan.Semi, "';'"); err != nil {
		return err
	}
	if kw.Text == "qreg" {
		p.prog.AddQReg(name.Text, size)
		p.qregs[name.Text] = size
	} else {
		p.prog.AddCReg(name.Text, size)
		p.cregs[name.Text] = size
	}
	return nil
}

// ref with Index -1 means the whole register.
func (p *parser) parseRef(regs map[string]int, what string) (Ref, error) {
	name, err := p.expect(scan.Ident, what)
	if err != nil {
		return Ref{}, err
	}
	size, ok := regs[name.Text]
	if !ok {
		return Ref{}, errors.Errorf("line %d:%d unknown register %q", name.Line, name.Col, name.Text)
	}
	if p.cur().Kind != scan.LBracket {
		return Ref{Reg: name.Text, Index: -1}, nil
	}
	p.next()
	idxTok, err := p.expect(scan.Number, "index")
	if err != nil {
		return Ref{}, err
	}
	idx, err := strconv.Atoi(idxTok.Text)
	if err != nil || idx < 0 || idx >= size {
		return Ref{}, errors.Errorf("line %d:%d index %s out of range for %s[%d]",
			idxTok.Line, idxTok.Col, idxTok.Text, name.Text, size)
	}
	if _, err := p.expect(scan.RBracket, "']'"); err != nil {
		return Ref{}, err
	}
	return Ref{Reg: name.Text, Index: idx}, nil
}

func (p *parser) parseMeasure() error {
	t := p.next()
	q, err := p.parseRef(p.qregs, "qubit operand")
	if err != nil {
		return err
	}
	if _, err := p.expect(scan.Arrow, "'->'"); err != nil {
		return err
	}
	c, err := p.parseRef(p.cregs, "bit operand")
	if err != nil {
		return err
	}
	if _, err := p.expect(scan.Semi, "';'"); err != nil {
		return err
	}
	if (q.Index == -1) != (c.Index == -1) {
		return errors.Errorf("line %d:%d measure operands mix register and bit addressing", t.Line, t.Col)
	}
	if q.Index == -1 {
		if p.qregs[q.Reg] != p.cregs[c.Reg] {
			return errors.Errorf("line %d:%d measure register sizes differ: %s[%d] vs %s[%d]",
				t.Line, t.Col, q.Reg, p.qregs[q.Reg], c.Reg, p.cregs[c.Reg])
		}
		for i := 0; i < p.qregs[q.Reg]; i++ {
			p.prog.AddMeasure(Ref{Reg: q.Reg, Index: i}, Ref{Reg: c.Reg, Index: i})
		}
		return nil
	}
	p.prog.AddMeasure(q, c)
	return nil
}

func (p *parser) parseGateCall() error {
	name := p.next()
	var params []float64
	if p.cur().Kind == scan.LParen {
		p.next()
		for {
			v, err := p.parseExpr()
			if err != nil {
				return err
			}
			params = append(params, v)
			if p.cur().Kind != scan.Comma {
				break
			}
			p.next()
		}
		if _, err := p.expect(scan.RParen, "')'"); err != nil {
			return err
		}
	}
	var qubits []Ref
	for {
		r, err := p.parseRef(p.qregs, "qubit operand")
		if err != nil {
			return err
		}
		qubits = append(qubits, r)
		if p.cur().Kind != scan.Comma {
			break
		}
		p.next()
	}
	if _, err := p.expect(scan.Semi, "';'"); err != nil {
		return err
	}

	bare := 0
	for _, q := range qubits {
		if q.Index == -1 {
			bare++
		}
	}
	switch {
	case bare == 0:
		p.prog.AddGate(name.Text, params, qubits...)
	case len(qubits) == 1:
		for i := 0; i < p.qregs[qubits[0].Reg]; i++ {
			p.prog.AddGate(name.Text, params, Ref{Reg: qubits[0].Reg, Index: i})
		}
	default:
		return errors.Errorf("line %d:%d register broadcast not supported for multi-qubit gates",
			name.Line, name.Col)
	}
	return nil
}

// expr := term { (+|-) term } ; term := factor { (*|/) factor }
// factor := NUMBER | pi | (expr) | -factor | +factor
func (p *parser) parseExpr() (float64, error) {
	v, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		switch p.cur().Kind {
		case scan.Plus:
			p.next()
			w, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			v += w
		case scan.Minus:
			p.next()
			w, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			v -= w
		default:
			return v, nil
		}
	}
}

func (p *parser) parseTerm() (float64, error) {
	v, err := p.parseFactor()
	if err != nil {
		return 0, err
	}
	for {
		switch p.cur().Kind {
		case scan.Star:
			p.next()
			w, err := p.parseFactor()
			if err != nil {
				return 0, err
			}
			v *= w
		case scan.Slash:
			p.next()
			w, err := p.parseFactor()
			if err != nil {
				return 0, err
			}
			if w == 0 {
				t := p.cur()
				return 0, errors.Errorf("line %d:%d division by zero in parameter", t.Line, t.Col)
			}
			v /= w
		default:
			return v, nil
		}
	}
}

func (p *parser) parseFactor() (float64, error) {
	t := p.next()
	switch t.Kind {
	case scan.Number:
		v, err := strconv.ParseFloat(t.Text, 64)
		if err != nil {
			return 0, errors.Errorf("line %d:%d invalid number %q", t.Line, t.Col, t.Text)
		}
		return v, nil
	case scan.Ident:
		if t.Text == "pi" {
			return math.Pi, nil
		}
		return 0, errors.Errorf("line %d:%d symbolic parameters are not supported in OPENQASM 2.0", t.Line, t.Col)
	case scan.Minus:
		v, err := p.parseFactor()
		return -v, err
	case scan.Plus:
		return p.parseFactor()
	case scan.LParen:
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		_, err = p.expect(scan.RParen, "')'")
		return v, err
	default:
		return 0, errors.Errorf("line %d:%d expected parameter expression, got %q", t.Line, t.Col, t.Text)
	}
}
