package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const SchemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    created_at TEXT,
    source TEXT,
    n_train INTEGER,
    n_valid INTEGER,
    train_rows INTEGER,
    valid_rows INTEGER,
    test_rows INTEGER,
    features INTEGER,
    best_c REAL,
    valid_accuracy REAL,
    test_accuracy REAL
);

CREATE TABLE IF NOT EXISTS candidates (
    id INTEGER PRIMARY KEY,
    run_id TEXT,
    c REAL,
    valid_accuracy REAL,
    iterations INTEGER
);
`

func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(SchemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}
