// Package scan is the shared token scanner for the text circuit dialects.
package scan

import (
	"strings"

	"github.com/go-faster/errors"
)

type Kind int

const (
	EOF Kind = iota
	Ident
	Number
	Str
	Newline
	LParen
	RParen
	LBracket
	RBracket
	Comma
	Semi
	Colon
	At
	Arrow
	Assign
	Plus
	Minus
	Star
	Slash
)

type Token struct {
	Kind Kind
	Text string
	Line int
	Col  int
}

// Options tunes the scanner per dialect: quil is line oriented and comments
// with '#', the QASM dialects ignore newlines and comment with '//'.
type Options struct {
	KeepNewlines bool
	LineComment  string
}

type Scanner struct {
	src  string
	pos  int
	line int
	col  int
	opts Options
}

func New(src string, opts Options) *Scanner {
	if opts.LineComment == "" {
		opts.LineComment = "//"
	}
	return &Scanner{src: src, line: 1, col: 1, opts: opts}
}

// All scans the whole source up front.
func All(src string, opts Options) ([]Token, error) {
	s := New(src, opts)
	var toks []Token
	for {
		t, err := s.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, t)
		if t.Kind == EOF {
			return toks, nil
		}
	}
}

func (s *Scanner) Next() (Token, error) {
	for {
		s.skipSpaces()
		if strings.HasPrefix(s.src[s.pos:], s.opts.LineComment) {
			for s.pos < len(s.src) && s.src[s.pos] != '\n' {
				s.advance()
			}
			continue
		}
		break
	}
	if s.pos >= len(s.src) {
		return Token{Kind: EOF, Line: s.line, Col: s.col}, nil
	}

	line, col := s.line, s.col
	c := s.src[s.pos]
	switch {
	case c == '\n':
		s.advance()
		return Token{Kind: Newline, Text: "\n", Line: line, Col: col}, nil
	case isIdentStart(c):
		start := s.pos
		for s.pos < len(s.src) && isIdentPart(s.src[s.pos]) {
			s.advance()
		}
		return Token{Kind: Ident, Text: s.src[start:s.pos], Line: line, Col: col}, nil
	case isDigit(c) || (c == '.' && s.pos+1 < len(s.src) && isDigit(s.src[s.pos+1])):
		return s.scanNumber(line, col)
	case c == '"':
		s.advance()
		start := s.pos
		for s.pos < len(s.src) && s.src[s.pos] != '"' {
			if s.src[s.pos] == '\n' {
				return Token{}, errors.Errorf("line %d:%d unterminated string", line, col)
			}
			s.advance()
		}
		if s.pos >= len(s.src) {
			return Token{}, errors.Errorf("line %d:%d unterminated string", line, col)
		}
		text := s.src[start:s.pos]
		s.advance()
		return Token{Kind: Str, Text: text, Line: line, Col: col}, nil
	}

	single := map[byte]Kind{
		'(': LParen, ')': RParen, '[': LBracket, ']': RBracket,
		',': Comma, ';': Semi, ':': Colon, '@': At,
		'+': Plus, '*': Star, '/': Slash, '=': Assign,
	}
	if c == '-' {
		s.advance()
		if s.pos < len(s.src) && s.src[s.pos] == '>' {
			s.advance()
			return Token{Kind: Arrow, Text: "->", Line: line, Col: col}, nil
		}
		return Token{Kind: Minus, Text: "-", Line: line, Col: col}, nil
	}
	if k, ok := single[c]; ok {
		s.advance()
		return Token{Kind: k, Text: string(c), Line: line, Col: col}, nil
	}
	return Token{}, errors.Errorf("line %d:%d unexpected character %q", line, col, string(c))
}

func (s *Scanner) scanNumber(line, col int) (Token, error) {
	start := s.pos
	for s.pos < len(s.src) && isDigit(s.src[s.pos]) {
		s.advance()
	}
	if s.pos < len(s.src) && s.src[s.pos] == '.' {
		s.advance()
		for s.pos < len(s.src) && isDigit(s.src[s.pos]) {
			s.advance()
		}
	}
	if s.pos < len(s.src) && (s.src[s.pos] == 'e' || s.src[s.pos] == 'E') {
		markPos, markCol := s.pos, s.col
		s.advance()
		if s.pos < len(s.src) && (s.src[s.pos] == '+' || s.src[s.pos] == '-') {
			s.advance()
		}
		if s.pos < len(s.src) && isDigit(s.src[s.pos]) {
			for s.pos < len(s.src) && isDigit(s.src[s.pos]) {
				s.advance()
			}
		} else {
			// not an exponent, e.g. "2e" followed by an ident char
			s.pos, s.col = markPos, markCol
		}
	}
	return Token{Kind: Number, Text: s.src[start:s.pos], Line: line, Col: col}, nil
}

func (s *Scanner) skipSpaces() {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if c == ' ' || c == '\t' || c == '\r' {
			s.advance()
			continue
		}
		if c == '\n' && !s.opts.KeepNewlines {
			s.advance()
			continue
		}
		return
	}
}

func (s *Scanner) advance() {
	if s.src[s.pos] == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	s.pos++
}

// Bytes outside ASCII count as identifier characters so that unicode
// parameter names like θ0 scan as one token. Columns count bytes.
func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
