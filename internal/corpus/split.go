package corpus

import "fmt"

const (
	LabelHuman     = 0
	LabelGenerated = 1
)

// Split is a labeled split: webtext records first (label 0), then the
// generated source's records (label 1). The order is significant because
// the predefined validation mask is aligned to it.
type Split struct {
	Name   string
	Texts  []string
	Labels []int
	Human  int
}

func (s *Split) Len() int { return len(s.Texts) }

func (s *Split) Generated() int { return len(s.Texts) - s.Human }

// LoadSplit reads floor(n/2) records from webtext and from source for the
// given split. A negative n loads both files in full.
func LoadSplit(dataDir, source, split string, n int) (*Split, error) {
	limit := Unbounded
	if n >= 0 {
		limit = n / 2
	}
	human, err := ReadSource(dataDir, WebText, split, limit)
	if err != nil {
		return nil, fmt.Errorf("load %s %s: %w", WebText, split, err)
	}
	generated, err := ReadSource(dataDir, source, split, limit)
	if err != nil {
		return nil, fmt.Errorf("load %s %s: %w", source, split, err)
	}

	out := &Split{
		Name:   split,
		Texts:  make([]string, 0, len(human)+len(generated)),
		Labels: make([]int, 0, len(human)+len(generated)),
		Human:  len(human),
	}
	out.Texts = append(out.Texts, human...)
	out.Texts = append(out.Texts, generated...)
	for range human {
		out.Labels = append(out.Labels, LabelHuman)
	}
	for range generated {
		out.Labels = append(out.Labels, LabelGenerated)
	}
	return out, nil
}
