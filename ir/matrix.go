package ir

import (
	"math"
	"math/cmplx"

	"github.com/go-faster/errors"
)

// Matrix is a dense complex matrix in row-major order. Circuit unitaries
// use big-endian qubit ordering: qubit 0 is the most significant bit of the
// basis-state index.
type Matrix [][]complex128

func NewMatrix(dim int) Matrix {
	m := make(Matrix, dim)
	for i := range m {
		m[i] = make([]complex128, dim)
	}
	return m
}

func Identity(dim int) Matrix {
	m := NewMatrix(dim)
	for i := 0; i < dim; i++ {
		m[i][i] = 1
	}
	return m
}

func (m Matrix) Dim() int {
	return len(m)
}

// Mul returns m * o.
func (m Matrix) Mul(o Matrix) Matrix {
	dim := m.Dim()
	r := NewMatrix(dim)
	for i := 0; i < dim; i++ {
		for k := 0; k < dim; k++ {
			if m[i][k] == 0 {
				continue
			}
			for j := 0; j < dim; j++ {
				r[i][j] += m[i][k] * o[k][j]
			}
		}
	}
	return r
}

// Allclose reports element-wise equality within tol.
func Allclose(a, b Matrix, tol float64) bool {
	if a.Dim() != b.Dim() {
		return false
	}
	for i := range a {
		for j := range a[i] {
			if cmplx.Abs(a[i][j]-b[i][j]) > tol {
				return false
			}
		}
	}
	return true
}

// AllcloseUpToGlobalPhase reports equality within tol after removing an
// overall complex-unit factor. The factor is fixed from the first entry of a
// with magnitude above tol.
func AllcloseUpToGlobalPhase(a, b Matrix, tol float64) bool {
	if a.Dim() != b.Dim() {
		return false
	}
	phase := complex(1, 0)
	found := false
	for i := range a {
		for j := range a[i] {
			if cmplx.Abs(a[i][j]) > tol {
				if cmplx.Abs(b[i][j]) <= tol {
					return false
				}
				phase = b[i][j] / a[i][j]
				found = true
				break
			}
		}
		if found {
			break
		}
	}
	scaled := NewMatrix(a.Dim())
	for i := range a {
		for j := range a[i] {
			scaled[i][j] = phase * a[i][j]
		}
	}
	return Allclose(scaled, b, tol)
}

// KindMatrix returns the base matrix of a gate kind for bound angle values.
// MEASURE has no finite matrix.
func KindMatrix(kind GateKind, args []float64) (Matrix, error) {
	if kind == MEASURE {
		return nil, errors.New("measure has no matrix")
	}
	if len(args) != kind.ParamCount() {
		return nil, errors.Errorf("%s wants %d args, got %d", kind, kind.ParamCount(), len(args))
	}
	s2 := complex(1/math.Sqrt2, 0)
	switch kind {
	case I:
		return Identity(2), nil
	case X:
		return Matrix{{0, 1}, {1, 0}}, nil
	case Y:
		return Matrix{{0, -1i}, {1i, 0}}, nil
	case Z:
		return Matrix{{1, 0}, {0, -1}}, nil
	case H:
		return Matrix{{s2, s2}, {s2, -s2}}, nil
	case S:
		return Matrix{{1, 0}, {0, 1i}}, nil
	case SDG:
		return Matrix{{1, 0}, {0, -1i}}, nil
	case T:
		return Matrix{{1, 0}, {0, cmplx.Exp(1i * math.Pi / 4)}}, nil
	case TDG:
		return Matrix{{1, 0}, {0, cmplx.Exp(-1i * math.Pi / 4)}}, nil
	case SX:
		return Matrix{
			{complex(0.5, 0.5), complex(0.5, -0.5)},
			{complex(0.5, -0.5), complex(0.5, 0.5)},
		}, nil
	case SXDG:
		return Matrix{
			{complex(0.5, -0.5), complex(0.5, 0.5)},
			{complex(0.5, 0.5), complex(0.5, -0.5)},
		}, nil
	case RX:
		c := complex(math.Cos(args[0]/2), 0)
		s := complex(0, -math.Sin(args[0]/2))
		return Matrix{{c, s}, {s, c}}, nil
	case RY:
		c := complex(math.Cos(args[0]/2), 0)
		s := complex(math.Sin(args[0]/2), 0)
		return Matrix{{c, -s}, {s, c}}, nil
	case RZ:
		return Matrix{
			{cmplx.Exp(complex(0, -args[0]/2)), 0},
			{0, cmplx.Exp(complex(0, args[0]/2))},
		}, nil
	case PHASE:
		return Matrix{{1, 0}, {0, cmplx.Exp(complex(0, args[0]))}}, nil
	case U:
		theta, phi, lambda := args[0], args[1], args[2]
		c := complex(math.Cos(theta/2), 0)
		s := complex(math.Sin(theta/2), 0)
		return Matrix{
			{c, -cmplx.Exp(complex(0, lambda)) * s},
			{cmplx.Exp(complex(0, phi)) * s, cmplx.Exp(complex(0, phi+lambda)) * c},
		}, nil
	case SWAP:
		return Matrix{
			{1, 0, 0, 0},
			{0, 0, 1, 0},
			{0, 1, 0, 0},
			{0, 0, 0, 1},
		}, nil
	default:
		return nil, errors.Errorf("no matrix for kind %d", kind)
	}
}

// Controlled embeds a base matrix under the given number of controls, with
// control qubits as the leading (most significant) wires: one control turns
// U into [[I,0],[0,U]].
func Controlled(base Matrix, controls int) Matrix {
	m := base
	for i := 0; i < controls; i++ {
		dim := m.Dim()
		next := Identity(dim * 2)
		for r := 0; r < dim; r++ {
			for c := 0; c < dim; c++ {
				next[dim+r][dim+c] = m[r][c]
			}
		}
		m = next
	}
	return m
}

// Unitary computes the full 2^n x 2^n matrix of the circuit by applying
// every operation to each basis column. Circuits containing measurement or
// unbound symbolic parameters have no unitary.
func (c *Circuit) Unitary() (Matrix, error) {
	if c.HasMeasure() {
		return nil, errors.New("circuit contains measurement")
	}
	if c.HasUnboundParams() {
		return nil, errors.Errorf("unbound params %v", c.ParamNames())
	}
	dim := 1 << c.NumQubits
	u := NewMatrix(dim)
	state := make([]complex128, dim)
	for col := 0; col < dim; col++ {
		for i := range state {
			state[i] = 0
		}
		state[col] = 1
		for _, op := range c.Ops {
			if err := applyOp(state, op, c.NumQubits); err != nil {
				return nil, err
			}
		}
		for row := 0; row < dim; row++ {
			u[row][col] = state[row]
		}
	}
	return u, nil
}

func applyOp(state []complex128, op Operation, numQubits int) error {
	args := make([]float64, len(op.Params))
	for i, p := range op.Params {
		n, ok := p.(Number)
		if !ok {
			return errors.Errorf("unbound param in %s", op.Kind)
		}
		args[i] = float64(n)
	}
	base, err := KindMatrix(op.Kind, args)
	if err != nil {
		return err
	}

	bit := func(q int) uint { return uint(numQubits - 1 - q) }
	var controlMask int
	for _, q := range op.Qubits[:op.Controls] {
		controlMask |= 1 << bit(q)
	}
	targets := op.Targets()
	sub := 1 << len(targets)
	var targetMask int
	for _, q := range targets {
		targetMask |= 1 << bit(q)
	}

	amps := make([]complex128, sub)
	for idx := range state {
		if idx&targetMask != 0 {
			continue
		}
		if idx&controlMask != controlMask {
			continue
		}
		// member index for sub-state s: first target is the high bit
		member := func(s int) int {
			m := idx
			for ti, q := range targets {
				if s&(1<<(len(targets)-1-ti)) != 0 {
					m |= 1 << bit(q)
				}
			}
			return m
		}
		for s := 0; s < sub; s++ {
			amps[s] = state[member(s)]
		}
		for s := 0; s < sub; s++ {
			var v complex128
			for t := 0; t < sub; t++ {
				v += base[s][t] * amps[t]
			}
			state[member(s)] = v
		}
	}
	return nil
}
