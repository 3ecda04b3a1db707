package linear

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

type objective interface {
	size() int
	fun(w []float64) float64
	grad(w, g []float64)
	hv(s, hs []float64)
}

// tron is a trust-region Newton minimizer with a truncated conjugate
// gradient inner solve.
type tron struct {
	fn      objective
	eps     float64
	maxIter int
	logger  *zap.Logger
}

const (
	eta0, eta1, eta2       = 1e-4, 0.25, 0.75
	sigma1, sigma2, sigma3 = 0.25, 0.5, 4.0
)

// minimize updates w in place and returns the number of accepted Newton
// steps.
func (t *tron) minimize(ctx context.Context, w []float64) (int, error) {
	n := t.fn.size()
	g := make([]float64, n)
	s := make([]float64, n)
	r := make([]float64, n)
	wNew := make([]float64, n)

	f := t.fn.fun(w)
	t.fn.grad(w, g)
	delta := floats.Norm(g, 2)
	gnorm0 := delta
	gnorm := gnorm0
	if !finite(f) || !finite(gnorm) {
		return 0, fmt.Errorf("initial objective %v: %w", f, ErrNumeric)
	}
	if gnorm <= t.eps*gnorm0 {
		return 0, nil
	}

	iter := 1
	// rejected steps only shrink the region; bound them so a stalled
	// problem still terminates
	for passes := 0; iter <= t.maxIter && passes < 10*t.maxIter; passes++ {
		if err := ctx.Err(); err != nil {
			return iter - 1, err
		}
		cgIter := t.trcg(delta, g, s, r)

		floats.AddTo(wNew, w, s)
		gs := floats.Dot(g, s)
		prered := -0.5 * (gs - floats.Dot(s, r))
		fNew := t.fn.fun(wNew)
		if !finite(fNew) {
			return iter - 1, fmt.Errorf("objective %v at iteration %d: %w", fNew, iter, ErrNumeric)
		}
		actred := f - fNew

		snorm := floats.Norm(s, 2)
		if iter == 1 {
			delta = math.Min(delta, snorm)
		}
		var alpha float64
		if fNew-f-gs <= 0 {
			alpha = sigma3
		} else {
			alpha = math.Max(sigma1, -0.5*(gs/(fNew-f-gs)))
		}
		switch {
		case actred < eta0*prered:
			delta = math.Min(math.Max(alpha, sigma1)*snorm, sigma2*delta)
		case actred < eta1*prered:
			delta = math.Max(sigma1*delta, math.Min(alpha*snorm, sigma2*delta))
		case actred < eta2*prered:
			delta = math.Max(sigma1*delta, math.Min(alpha*snorm, sigma3*delta))
		default:
			delta = math.Max(delta, math.Min(alpha*snorm, sigma3*delta))
		}

		t.logger.Debug("newton step",
			zap.Int("iter", iter),
			zap.Float64("act", actred),
			zap.Float64("pre", prered),
			zap.Float64("delta", delta),
			zap.Float64("f", f),
			zap.Float64("gnorm", gnorm),
			zap.Int("cg", cgIter),
		)

		if actred > eta0*prered {
			iter++
			copy(w, wNew)
			f = fNew
			t.fn.grad(w, g)
			gnorm = floats.Norm(g, 2)
			if !finite(gnorm) {
				return iter - 1, fmt.Errorf("gradient norm %v: %w", gnorm, ErrNumeric)
			}
			if gnorm <= t.eps*gnorm0 {
				return iter - 1, nil
			}
		}
		if f < -1.0e32 {
			return iter - 1, fmt.Errorf("objective unbounded below: %w", ErrNumeric)
		}
		// no further progress is representable; w is as good as it gets
		if math.Abs(actred) <= 0 && prered <= 0 {
			t.logger.Debug("stopping: actred and prered <= 0", zap.Int("iter", iter))
			return iter - 1, nil
		}
		if math.Abs(actred) <= 1.0e-12*math.Abs(f) && math.Abs(prered) <= 1.0e-12*math.Abs(f) {
			t.logger.Debug("stopping: actred and prered too small", zap.Int("iter", iter))
			return iter - 1, nil
		}
	}
	return iter - 1, fmt.Errorf("%d iterations, gradient norm %.3g > %.3g: %w", iter-1, gnorm, t.eps*gnorm0, ErrNotConverged)
}

// trcg approximately solves H s = -g inside the trust region of radius
// delta. On return s is the step and r the final residual.
func (t *tron) trcg(delta float64, g, s, r []float64) int {
	n := len(g)
	d := make([]float64, n)
	hd := make([]float64, n)
	for i := range s {
		s[i] = 0
		r[i] = -g[i]
		d[i] = r[i]
	}
	cgtol := 0.1 * floats.Norm(g, 2)
	rTr := floats.Dot(r, r)

	cgIter := 0
	for cgIter < n {
		if math.Sqrt(rTr) <= cgtol {
			break
		}
		cgIter++
		t.fn.hv(d, hd)
		dHd := floats.Dot(d, hd)
		if dHd <= 0 {
			break
		}
		alpha := rTr / dHd
		floats.AddScaled(s, alpha, d)
		if floats.Norm(s, 2) > delta {
			// step back and move to the boundary along d
			floats.AddScaled(s, -alpha, d)
			std := floats.Dot(s, d)
			sts := floats.Dot(s, s)
			dtd := floats.Dot(d, d)
			dsq := delta * delta
			rad := math.Sqrt(std*std + dtd*(dsq-sts))
			if std >= 0 {
				alpha = (dsq - sts) / (std + rad)
			} else {
				alpha = (rad - std) / dtd
			}
			floats.AddScaled(s, alpha, d)
			floats.AddScaled(r, -alpha, hd)
			break
		}
		floats.AddScaled(r, -alpha, hd)
		rNew := floats.Dot(r, r)
		beta := rNew / rTr
		floats.Scale(beta, d)
		floats.Add(d, r)
		rTr = rNew
	}
	return cgIter
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
