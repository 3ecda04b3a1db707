package linear

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"webtext_baseline/internal/sparse"
)

const (
	DefaultTol     = 1e-4
	DefaultMaxIter = 100
)

var (
	ErrNoSamples     = errors.New("linear: cannot fit a classifier with zero training rows")
	ErrSingleClass   = errors.New("linear: training labels contain a single class")
	ErrBadLabel      = errors.New("linear: labels must be 0 or 1")
	ErrInvalidC      = errors.New("linear: regularization strength must be positive")
	ErrNotConverged  = errors.New("linear: solver did not converge")
	ErrNumeric       = errors.New("linear: numerical failure")
	ErrShapeMismatch = errors.New("linear: rows and labels differ in length")
)

type Options struct {
	C       float64
	Tol     float64
	MaxIter int
	// InterceptScaling is the value of the synthetic constant feature used
	// to learn the bias; its weight is regularized like any other.
	InterceptScaling float64
	Logger           *zap.Logger
}

// Model is a fitted binary linear classifier. Label 1 is predicted when the
// decision value is positive.
type Model struct {
	Weights    []float64
	Bias       float64
	C          float64
	Iterations int
}

func (m *Model) Decision(x *sparse.CSR, i int) float64 {
	return x.RowDot(i, m.Weights) + m.Bias
}

func (m *Model) Predict(x *sparse.CSR) ([]int, error) {
	if x.Cols() != len(m.Weights) {
		return nil, fmt.Errorf("predict on %d columns with %d weights: %w", x.Cols(), len(m.Weights), ErrShapeMismatch)
	}
	out := make([]int, x.Rows())
	for i := range out {
		if m.Decision(x, i) > 0 {
			out[i] = 1
		}
	}
	return out, nil
}

// Fit trains an L2-regularized logistic regression with a trust-region
// Newton method, minimizing 0.5*|w|^2 + C * sum(log(1 + exp(-y_i w.x_i))).
func Fit(ctx context.Context, x *sparse.CSR, labels []int, opts Options) (*Model, error) {
	if opts.C <= 0 || math.IsNaN(opts.C) || math.IsInf(opts.C, 0) {
		return nil, fmt.Errorf("C=%v: %w", opts.C, ErrInvalidC)
	}
	if x.Rows() == 0 {
		return nil, ErrNoSamples
	}
	if x.Rows() != len(labels) {
		return nil, fmt.Errorf("%d rows, %d labels: %w", x.Rows(), len(labels), ErrShapeMismatch)
	}
	if opts.Tol <= 0 {
		opts.Tol = DefaultTol
	}
	if opts.MaxIter <= 0 {
		opts.MaxIter = DefaultMaxIter
	}
	if opts.InterceptScaling == 0 {
		opts.InterceptScaling = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	y := make([]float64, len(labels))
	pos, neg := 0, 0
	for i, l := range labels {
		switch l {
		case 0:
			y[i] = -1
			neg++
		case 1:
			y[i] = 1
			pos++
		default:
			return nil, fmt.Errorf("row %d has label %d: %w", i, l, ErrBadLabel)
		}
	}
	if pos == 0 || neg == 0 {
		return nil, fmt.Errorf("%d positive, %d negative: %w", pos, neg, ErrSingleClass)
	}

	p := newProblem(x, y, opts.C, opts.InterceptScaling)
	eps := opts.Tol * float64(max(min(pos, neg), 1)) / float64(len(y))
	t := &tron{
		fn:      p,
		eps:     eps,
		maxIter: opts.MaxIter,
		logger:  logger.With(zap.Float64("C", opts.C)),
	}
	w := make([]float64, p.size())
	iters, err := t.minimize(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("fit C=%v: %w", opts.C, err)
	}

	cols := x.Cols()
	return &Model{
		Weights:    append([]float64(nil), w[:cols]...),
		Bias:       w[cols] * opts.InterceptScaling,
		C:          opts.C,
		Iterations: iters,
	}, nil
}

// problem holds the logistic loss over the training rows with the bias as
// an extra trailing variable.
type problem struct {
	x    *sparse.CSR
	y    []float64
	c    float64
	bias float64
	z    []float64
	d    []float64
}

func newProblem(x *sparse.CSR, y []float64, c, bias float64) *problem {
	return &problem{
		x:    x,
		y:    y,
		c:    c,
		bias: bias,
		z:    make([]float64, len(y)),
		d:    make([]float64, len(y)),
	}
}

func (p *problem) size() int { return p.x.Cols() + 1 }

func (p *problem) xv(v, out []float64) {
	last := v[p.x.Cols()] * p.bias
	for i := range out {
		out[i] = p.x.RowDot(i, v) + last
	}
}

func (p *problem) xtv(v, out []float64) {
	for i := range out {
		out[i] = 0
	}
	cols := p.x.Cols()
	for i, vi := range v {
		if vi == 0 {
			continue
		}
		idx, vals := p.x.Row(i)
		for k, c := range idx {
			out[c] += vi * vals[k]
		}
		out[cols] += vi * p.bias
	}
}

func (p *problem) fun(w []float64) float64 {
	p.xv(w, p.z)
	f := 0.5 * floats.Dot(w, w)
	for i, yz := range p.z {
		f += p.c * logLoss(p.y[i]*yz)
	}
	return f
}

// grad must follow fun on the same w.
func (p *problem) grad(w, g []float64) {
	for i := range p.z {
		s := 1 / (1 + math.Exp(-p.y[i]*p.z[i]))
		p.d[i] = s * (1 - s)
		p.z[i] = p.c * (s - 1) * p.y[i]
	}
	p.xtv(p.z, g)
	floats.Add(g, w)
}

func (p *problem) hv(s, hs []float64) {
	wa := make([]float64, len(p.y))
	p.xv(s, wa)
	for i := range wa {
		wa[i] *= p.c * p.d[i]
	}
	p.xtv(wa, hs)
	floats.Add(hs, s)
}

func logLoss(yz float64) float64 {
	if yz >= 0 {
		return math.Log1p(math.Exp(-yz))
	}
	return -yz + math.Log1p(math.Exp(yz))
}
