package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
)

// Report is the summary of one run. NTrain is the requested training size,
// which may exceed what the corpus actually supplied.
type Report struct {
	Source        string  `json:"source"`
	NTrain        int     `json:"n_train"`
	ValidAccuracy float64 `json:"valid_accuracy"`
	TestAccuracy  float64 `json:"test_accuracy"`
}

func Path(logDir, source string) string {
	return filepath.Join(logDir, source+".json")
}

// Save writes the report to {logDir}/{source}.json, replacing any previous
// file. logDir must already exist.
func Save(logDir string, r Report) (string, error) {
	raw, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	path := Path(logDir, r.Source)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

func Load(path string) (*Report, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return &r, nil
}

var (
	keyColor   = color.New(color.FgCyan)
	valueColor = color.New(color.FgGreen, color.Bold)
)

// Print writes the report as a single console line.
func Print(w io.Writer, r Report) {
	fmt.Fprintf(w, "%s %s  %s %d  %s %s  %s %s\n",
		keyColor.Sprint("source:"), valueColor.Sprint(r.Source),
		keyColor.Sprint("n_train:"), r.NTrain,
		keyColor.Sprint("valid_accuracy:"), valueColor.Sprintf("%.2f", r.ValidAccuracy),
		keyColor.Sprint("test_accuracy:"), valueColor.Sprintf("%.2f", r.TestAccuracy),
	)
}
