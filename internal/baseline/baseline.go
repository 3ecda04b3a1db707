package baseline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"webtext_baseline/internal/config"
	"webtext_baseline/internal/corpus"
	"webtext_baseline/internal/db"
	"webtext_baseline/internal/report"
	"webtext_baseline/internal/selection"
	"webtext_baseline/internal/sparse"
	"webtext_baseline/internal/tfidf"
)

var ErrNoTrainingRows = errors.New("baseline: training split is empty, cannot fit a classifier with zero training rows")

// Result carries the written report along with the details of the run.
type Result struct {
	Report     report.Report
	ReportPath string
	Selection  *selection.Result
	Features   int
	TrainRows  int
	ValidRows  int
	TestRows   int
	RunID      string
}

// Run executes load, extract, select and report once, in that order. Any
// error aborts the run; nothing is retried.
func Run(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("source", cfg.Source))
	started := time.Now()

	train, err := loadSplit(cfg, corpus.SplitTrain, cfg.NTrain, logger)
	if err != nil {
		return nil, err
	}
	if train.Len() == 0 {
		return nil, ErrNoTrainingRows
	}
	valid, err := loadSplit(cfg, corpus.SplitValid, cfg.NValid, logger)
	if err != nil {
		return nil, err
	}
	test, err := loadSplit(cfg, corpus.SplitTest, corpus.Unbounded, logger)
	if err != nil {
		return nil, err
	}

	vect := tfidf.New(cfg.MinDF)
	trainX, err := vect.FitTransform(train.Texts)
	if err != nil {
		return nil, fmt.Errorf("extract train features: %w", err)
	}
	validX, err := vect.Transform(valid.Texts)
	if err != nil {
		return nil, fmt.Errorf("extract valid features: %w", err)
	}
	testX, err := vect.Transform(test.Texts)
	if err != nil {
		return nil, fmt.Errorf("extract test features: %w", err)
	}
	logger.Info("features extracted",
		zap.String("vocabulary", humanize.Comma(int64(vect.NumFeatures()))),
		zap.String("train_nnz", humanize.Comma(int64(trainX.NNZ()))),
	)

	stacked, err := sparse.VStack(trainX, validX)
	if err != nil {
		return nil, fmt.Errorf("stack train and valid: %w", err)
	}
	labels := append(append([]int(nil), train.Labels...), valid.Labels...)
	split := selection.NewPredefinedSplit(train.Len(), valid.Len())

	sel, err := selection.Search(ctx, stacked, labels, split, selection.Options{
		Jobs:    cfg.Jobs,
		Tol:     cfg.Tol,
		MaxIter: cfg.MaxIter,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("select model: %w", err)
	}
	logger.Info("model selected", zap.Float64("C", sel.Best.C), zap.Float64("valid_accuracy", sel.Best.Accuracy))

	validAcc, err := selection.Accuracy(sel.Model, validX, valid.Labels)
	if err != nil {
		return nil, fmt.Errorf("score valid: %w", err)
	}
	testAcc, err := selection.Accuracy(sel.Model, testX, test.Labels)
	if err != nil {
		return nil, fmt.Errorf("score test: %w", err)
	}

	rep := report.Report{
		Source:        cfg.Source,
		NTrain:        cfg.NTrain,
		ValidAccuracy: validAcc,
		TestAccuracy:  testAcc,
	}
	path, err := report.Save(cfg.LogDir, rep)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Report:     rep,
		ReportPath: path,
		Selection:  sel,
		Features:   vect.NumFeatures(),
		TrainRows:  train.Len(),
		ValidRows:  valid.Len(),
		TestRows:   test.Len(),
	}
	if cfg.HistoryDB != "" {
		if res.RunID, err = db.RecordRun(cfg.HistoryDB, historyRun(cfg, res)); err != nil {
			return nil, fmt.Errorf("record run: %w", err)
		}
	}
	logger.Info("run complete",
		zap.String("report", path),
		zap.Float64("valid_accuracy", validAcc),
		zap.Float64("test_accuracy", testAcc),
		zap.Duration("elapsed", time.Since(started)),
	)
	return res, nil
}

func loadSplit(cfg config.Config, split string, n int, logger *zap.Logger) (*corpus.Split, error) {
	s, err := corpus.LoadSplit(cfg.DataDir, cfg.Source, split, n)
	if err != nil {
		return nil, err
	}
	logger.Info("split loaded",
		zap.String("split", split),
		zap.String(corpus.WebText, humanize.Comma(int64(s.Human))),
		zap.String("generated", humanize.Comma(int64(s.Generated()))),
	)
	return s, nil
}

func historyRun(cfg config.Config, res *Result) db.Run {
	run := db.Run{
		Source:        cfg.Source,
		NTrain:        cfg.NTrain,
		NValid:        cfg.NValid,
		TrainRows:     res.TrainRows,
		ValidRows:     res.ValidRows,
		TestRows:      res.TestRows,
		Features:      res.Features,
		BestC:         res.Selection.Best.C,
		ValidAccuracy: res.Report.ValidAccuracy,
		TestAccuracy:  res.Report.TestAccuracy,
	}
	for _, s := range res.Selection.Scores {
		run.Candidates = append(run.Candidates, db.Candidate{
			C:             s.C,
			ValidAccuracy: s.Accuracy,
			Iterations:    s.Iterations,
		})
	}
	return run
}
