package linear

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webtext_baseline/internal/sparse"
)

func matrix(t *testing.T, cols int, rows [][]float64) *sparse.CSR {
	t.Helper()
	b := sparse.NewBuilder(cols)
	for _, r := range rows {
		idx := make([]int, len(r))
		for i := range r {
			idx[i] = i
		}
		require.NoError(t, b.AppendRow(idx, r))
	}
	return b.Build()
}

func TestFitSeparable(t *testing.T) {
	x := matrix(t, 2, [][]float64{{1, 0}, {0.9, 0.1}, {0, 1}, {0.2, 0.8}})
	y := []int{0, 0, 1, 1}

	m, err := Fit(context.Background(), x, y, Options{C: 1})
	require.NoError(t, err)
	assert.Less(t, m.Weights[0], 0.0)
	assert.Greater(t, m.Weights[1], 0.0)
	assert.Positive(t, m.Iterations)

	pred, err := m.Predict(x)
	require.NoError(t, err)
	assert.Equal(t, y, pred)
}

func TestFitReachesStationaryPoint(t *testing.T) {
	x := matrix(t, 3, [][]float64{
		{1, 0, 0.5}, {0.3, 0.7, 0}, {0, 1, 0.2}, {0.6, 0.6, 0.6}, {0.1, 0, 1},
	})
	y := []int{0, 1, 1, 0, 1}
	c := 2.0

	m, err := Fit(context.Background(), x, y, Options{C: c, Tol: 1e-10})
	require.NoError(t, err)

	// gradient of 0.5|w|^2 + C*sum(loss) over weights and bias
	w := append(append([]float64(nil), m.Weights...), m.Bias)
	g := append([]float64(nil), w...)
	for i := range y {
		sign := -1.0
		if y[i] == 1 {
			sign = 1
		}
		z := sign * m.Decision(x, i)
		coef := c * (1/(1+math.Exp(-z)) - 1) * sign
		idx, vals := x.Row(i)
		for k, col := range idx {
			g[col] += coef * vals[k]
		}
		g[len(g)-1] += coef
	}
	for i, gi := range g {
		assert.InDelta(t, 0, gi, 1e-4, "gradient component %d", i)
	}
}

func TestStrongerRegularizationShrinksWeights(t *testing.T) {
	x := matrix(t, 2, [][]float64{{1, 0}, {0.8, 0.3}, {0, 1}, {0.3, 0.9}})
	y := []int{0, 0, 1, 1}

	weak, err := Fit(context.Background(), x, y, Options{C: 64})
	require.NoError(t, err)
	strong, err := Fit(context.Background(), x, y, Options{C: 1.0 / 64})
	require.NoError(t, err)

	norm := func(m *Model) float64 {
		return math.Hypot(m.Weights[0], m.Weights[1])
	}
	assert.Greater(t, norm(weak), norm(strong))
}

func TestFitErrors(t *testing.T) {
	ctx := context.Background()
	x := matrix(t, 1, [][]float64{{1}, {0.5}})

	_, err := Fit(ctx, sparse.NewBuilder(1).Build(), nil, Options{C: 1})
	require.ErrorIs(t, err, ErrNoSamples)

	_, err = Fit(ctx, x, []int{1, 1}, Options{C: 1})
	require.ErrorIs(t, err, ErrSingleClass)

	_, err = Fit(ctx, x, []int{0, 2}, Options{C: 1})
	require.ErrorIs(t, err, ErrBadLabel)

	_, err = Fit(ctx, x, []int{0}, Options{C: 1})
	require.ErrorIs(t, err, ErrShapeMismatch)

	_, err = Fit(ctx, x, []int{0, 1}, Options{C: 0})
	require.ErrorIs(t, err, ErrInvalidC)
}

func TestFitNotConverged(t *testing.T) {
	x := matrix(t, 2, [][]float64{{1, 0}, {0, 1}, {1, 0.1}, {0.1, 1}})
	_, err := Fit(context.Background(), x, []int{0, 1, 0, 1}, Options{C: 64, Tol: 1e-15, MaxIter: 1})
	require.ErrorIs(t, err, ErrNotConverged)
}

func TestFitCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	x := matrix(t, 1, [][]float64{{1}, {-1}})
	_, err := Fit(ctx, x, []int{0, 1}, Options{C: 1})
	require.ErrorIs(t, err, context.Canceled)
}

func TestPredictShapeMismatch(t *testing.T) {
	m := &Model{Weights: []float64{1, 2}}
	_, err := m.Predict(sparse.NewBuilder(3).Build())
	require.ErrorIs(t, err, ErrShapeMismatch)
}
