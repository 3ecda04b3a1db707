package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Segment splits text into records of at most words words, each starting
// words-overlap words after the previous one. Whitespace inside a record
// collapses to single spaces.
func Segment(text string, words, overlap int) []string {
	if words <= 0 {
		return nil
	}
	overlap = min(max(overlap, 0), words-1)

	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}
	step := words - overlap
	out := make([]string, 0, len(tokens)/step+1)
	for start := 0; start < len(tokens); start += step {
		end := min(start+words, len(tokens))
		out = append(out, strings.Join(tokens[start:end], " "))
		if end == len(tokens) {
			break
		}
	}
	return out
}

// WriteJSONL writes one {"text": ...} object per line to path, replacing
// any existing file.
func WriteJSONL(path string, texts []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create corpus: %w", err)
	}
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i, text := range texts {
		if err := enc.Encode(map[string]string{"text": text}); err != nil {
			_ = f.Close()
			return fmt.Errorf("encode record %d: %w", i, err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush corpus: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close corpus: %w", err)
	}
	return nil
}
