package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run is one recorded baseline run with its full candidate sweep.
type Run struct {
	ID            string
	CreatedAt     time.Time
	Source        string
	NTrain        int
	NValid        int
	TrainRows     int
	ValidRows     int
	TestRows      int
	Features      int
	BestC         float64
	ValidAccuracy float64
	TestAccuracy  float64
	Candidates    []Candidate
}

type Candidate struct {
	C             float64
	ValidAccuracy float64
	Iterations    int
}

var ErrNoRuns = errors.New("db: no recorded runs")

// RecordRun stores run and its candidates in one transaction and returns
// the run id, generating one when run.ID is empty.
func RecordRun(dbPath string, run Run) (string, error) {
	conn, err := Open(dbPath)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := conn.Begin()
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO runs(id, created_at, source, n_train, n_valid, train_rows, valid_rows, test_rows, features, best_c, valid_accuracy, test_accuracy) VALUES(?,?,?,?,?,?,?,?,?,?,?,?)`,
		run.ID,
		run.CreatedAt.UTC().Format(time.RFC3339Nano),
		run.Source,
		run.NTrain,
		run.NValid,
		run.TrainRows,
		run.ValidRows,
		run.TestRows,
		run.Features,
		run.BestC,
		run.ValidAccuracy,
		run.TestAccuracy,
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	for _, c := range run.Candidates {
		if _, err := tx.Exec(
			`INSERT INTO candidates(run_id, c, valid_accuracy, iterations) VALUES(?,?,?,?)`,
			run.ID, c.C, c.ValidAccuracy, c.Iterations,
		); err != nil {
			return "", fmt.Errorf("insert candidate: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit tx: %w", err)
	}
	return run.ID, nil
}

// LatestRun returns the most recent run recorded for source.
func LatestRun(dbPath, source string) (*Run, error) {
	conn, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var (
		run     Run
		created string
	)
	row := conn.QueryRow(
		`SELECT id, created_at, source, n_train, n_valid, train_rows, valid_rows, test_rows, features, best_c, valid_accuracy, test_accuracy
		 FROM runs WHERE source = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, source)
	err = row.Scan(&run.ID, &created, &run.Source, &run.NTrain, &run.NValid, &run.TrainRows, &run.ValidRows,
		&run.TestRows, &run.Features, &run.BestC, &run.ValidAccuracy, &run.TestAccuracy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("source %s: %w", source, ErrNoRuns)
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	if run.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	rows, err := conn.Query(`SELECT c, valid_accuracy, iterations FROM candidates WHERE run_id = ? ORDER BY c`, run.ID)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.C, &c.ValidAccuracy, &c.Iterations); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		run.Candidates = append(run.Candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return &run, nil
}

func CountRows(dbPath, table string) (int, error) {
	conn, err := Open(dbPath)
	if err != nil {
		return 0, err
	}
	defer conn.Close()
	return countRowsConn(conn, table)
}

func countRowsConn(conn *sql.DB, table string) (int, error) {
	row := conn.QueryRow(`SELECT COUNT(*) FROM ` + table)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("scan count: %w", err)
	}
	return count, nil
}
