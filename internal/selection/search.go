package selection

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"webtext_baseline/internal/linear"
	"webtext_baseline/internal/pipeline"
	"webtext_baseline/internal/sparse"
)

// Candidates are the regularization strengths swept by Search, ascending.
var Candidates = []float64{
	1.0 / 64, 1.0 / 32, 1.0 / 16, 1.0 / 8, 1.0 / 4, 1.0 / 2,
	1, 2, 4, 8, 16, 32, 64,
}

var (
	ErrMultipleFolds = errors.New("selection: only a single validation fold is supported")
	ErrNoCandidates  = errors.New("selection: no candidate strengths")
)

type Options struct {
	Cs      []float64
	Jobs    int
	Tol     float64
	MaxIter int
	Logger  *zap.Logger
}

type CandidateScore struct {
	C          float64
	Accuracy   float64
	Iterations int
}

// Result holds the winning validation-fold model. It is never refit on the
// combined train+valid rows.
type Result struct {
	Best   CandidateScore
	Model  *linear.Model
	Scores []CandidateScore
}

// Search fits one model per candidate strength on the training rows of the
// split, scores each on the validation rows, and keeps the most accurate.
// Ties go to the earliest candidate. Any failed fit aborts the search.
func Search(ctx context.Context, x *sparse.CSR, y []int, split PredefinedSplit, opts Options) (*Result, error) {
	cs := opts.Cs
	if cs == nil {
		cs = Candidates
	}
	if len(cs) == 0 {
		return nil, ErrNoCandidates
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(split) != x.Rows() || len(y) != x.Rows() {
		return nil, fmt.Errorf("split %d, labels %d, rows %d: %w", len(split), len(y), x.Rows(), linear.ErrShapeMismatch)
	}
	folds, err := split.Folds()
	if err != nil {
		return nil, err
	}
	if len(folds) != 1 {
		return nil, fmt.Errorf("%d folds: %w", len(folds), ErrMultipleFolds)
	}
	fold := folds[0]

	trainX, err := x.SelectRows(fold.Train)
	if err != nil {
		return nil, fmt.Errorf("select training rows: %w", err)
	}
	validX, err := x.SelectRows(fold.Test)
	if err != nil {
		return nil, fmt.Errorf("select validation rows: %w", err)
	}
	trainY := pick(y, fold.Train)
	validY := pick(y, fold.Test)

	models := make([]*linear.Model, len(cs))
	scores := make([]CandidateScore, len(cs))
	err = pipeline.Run(ctx, len(cs), opts.Jobs, func(ctx context.Context, i int) error {
		m, err := linear.Fit(ctx, trainX, trainY, linear.Options{
			C:       cs[i],
			Tol:     opts.Tol,
			MaxIter: opts.MaxIter,
			Logger:  logger,
		})
		if err != nil {
			return err
		}
		acc, err := Accuracy(m, validX, validY)
		if err != nil {
			return err
		}
		models[i] = m
		scores[i] = CandidateScore{C: cs[i], Accuracy: acc, Iterations: m.Iterations}
		logger.Debug("candidate scored",
			zap.Float64("C", cs[i]),
			zap.Float64("valid_accuracy", acc),
			zap.Int("iterations", m.Iterations),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	best := 0
	for i := range scores {
		if scores[i].Accuracy > scores[best].Accuracy {
			best = i
		}
	}
	return &Result{Best: scores[best], Model: models[best], Scores: scores}, nil
}

// Accuracy returns the percentage of rows whose predicted label matches.
func Accuracy(m *linear.Model, x *sparse.CSR, y []int) (float64, error) {
	if x.Rows() != len(y) {
		return 0, fmt.Errorf("%d rows, %d labels: %w", x.Rows(), len(y), linear.ErrShapeMismatch)
	}
	if len(y) == 0 {
		return 0, fmt.Errorf("score on zero rows: %w", linear.ErrNoSamples)
	}
	pred, err := m.Predict(x)
	if err != nil {
		return 0, err
	}
	hits := 0
	for i := range y {
		if pred[i] == y[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(y)) * 100, nil
}

func pick(y []int, rows []int) []int {
	out := make([]int, len(rows))
	for k, r := range rows {
		out[k] = y[r]
	}
	return out
}
