package corpus

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Unbounded disables the record limit.
const Unbounded = -1

// WebText is the human-written reference source, always labeled 0.
const WebText = "webtext"

const (
	SplitTrain = "train"
	SplitValid = "valid"
	SplitTest  = "test"
)

var (
	ErrMalformedRecord = errors.New("corpus: malformed json record")
	ErrMissingText     = errors.New("corpus: record has no text field")
)

type record struct {
	Text *string `json:"text"`
}

// Path returns the location of one source's split file.
func Path(dataDir, source, split string) string {
	return filepath.Join(dataDir, fmt.Sprintf("%s.%s.jsonl", source, split))
}

// ReadSource reads the text field of at most limit records from the
// source's split file. Reading stops at the limit; the rest of the file is
// never touched. A negative limit reads everything.
func ReadSource(dataDir, source, split string, limit int) ([]string, error) {
	path := Path(dataDir, source, split)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	texts, err := readRecords(f, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return texts, nil
}

func readRecords(r io.Reader, limit int) ([]string, error) {
	br := bufio.NewReaderSize(r, 1<<20)
	var texts []string
	for line := 1; limit < 0 || len(texts) < limit; line++ {
		raw, err := br.ReadBytes('\n')
		if len(raw) == 0 && errors.Is(err, io.EOF) {
			break
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		var rec record
		if jsonErr := json.Unmarshal(raw, &rec); jsonErr != nil {
			return nil, fmt.Errorf("line %d: %w: %v", line, ErrMalformedRecord, jsonErr)
		}
		if rec.Text == nil {
			return nil, fmt.Errorf("line %d: %w", line, ErrMissingText)
		}
		texts = append(texts, *rec.Text)
		if errors.Is(err, io.EOF) {
			break
		}
	}
	return texts, nil
}
