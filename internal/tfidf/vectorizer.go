package tfidf

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"webtext_baseline/internal/sparse"
)

// MaxFeatures caps the vocabulary at 2^21 columns.
const MaxFeatures = 1 << 21

const DefaultMinDF = 5

var (
	ErrEmptyVocabulary = errors.New("tfidf: empty vocabulary after pruning")
	ErrNotFitted       = errors.New("tfidf: vectorizer is not fitted")
)

// Vectorizer is a unigram+bigram TF-IDF extractor with smoothed idf and
// L2-normalized rows. It is fitted once and read-only afterwards.
type Vectorizer struct {
	MinDF       int
	MaxFeatures int

	vocab map[string]int
	terms []string
	idf   []float64
}

func New(minDF int) *Vectorizer {
	if minDF <= 0 {
		minDF = DefaultMinDF
	}
	return &Vectorizer{MinDF: minDF, MaxFeatures: MaxFeatures}
}

type termStat struct {
	df int
	tf int
}

// Fit learns the vocabulary and idf weights from texts.
func (v *Vectorizer) Fit(texts []string) error {
	stats := map[string]*termStat{}
	for _, text := range texts {
		for term, count := range countTerms(text) {
			s, ok := stats[term]
			if !ok {
				s = &termStat{}
				stats[term] = s
			}
			s.df++
			s.tf += count
		}
	}

	kept := make([]string, 0, len(stats))
	for term, s := range stats {
		if s.df >= v.MinDF {
			kept = append(kept, term)
		}
	}
	if v.MaxFeatures > 0 && len(kept) > v.MaxFeatures {
		sort.Slice(kept, func(i, j int) bool {
			a, b := stats[kept[i]], stats[kept[j]]
			if a.tf != b.tf {
				return a.tf > b.tf
			}
			return kept[i] < kept[j]
		})
		kept = kept[:v.MaxFeatures]
	}
	if len(kept) == 0 {
		return fmt.Errorf("fit on %d documents with min_df=%d: %w", len(texts), v.MinDF, ErrEmptyVocabulary)
	}
	sort.Strings(kept)

	n := float64(len(texts))
	v.terms = kept
	v.vocab = make(map[string]int, len(kept))
	v.idf = make([]float64, len(kept))
	for col, term := range kept {
		v.vocab[term] = col
		v.idf[col] = math.Log((1+n)/(1+float64(stats[term].df))) + 1
	}
	return nil
}

// Transform maps texts onto the fitted feature space. Terms outside the
// vocabulary contribute nothing.
func (v *Vectorizer) Transform(texts []string) (*sparse.CSR, error) {
	if v.vocab == nil {
		return nil, ErrNotFitted
	}
	b := sparse.NewBuilder(len(v.terms))
	for i, text := range texts {
		weights := map[int]float64{}
		for term, count := range countTerms(text) {
			if col, ok := v.vocab[term]; ok {
				weights[col] = float64(count) * v.idf[col]
			}
		}
		cols := make([]int, 0, len(weights))
		for col := range weights {
			cols = append(cols, col)
		}
		// column order fixes the summation order of the norm
		sort.Ints(cols)
		vals := make([]float64, len(cols))
		norm := 0.0
		for k, col := range cols {
			vals[k] = weights[col]
			norm += vals[k] * vals[k]
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for k := range vals {
				vals[k] /= norm
			}
		}
		if err := b.AppendRow(cols, vals); err != nil {
			return nil, fmt.Errorf("transform document %d: %w", i, err)
		}
	}
	return b.Build(), nil
}

func (v *Vectorizer) FitTransform(texts []string) (*sparse.CSR, error) {
	if err := v.Fit(texts); err != nil {
		return nil, err
	}
	return v.Transform(texts)
}

// Vocabulary returns the fitted terms in column order.
func (v *Vectorizer) Vocabulary() []string {
	return append([]string(nil), v.terms...)
}

func (v *Vectorizer) IDF(term string) (float64, bool) {
	col, ok := v.vocab[term]
	if !ok {
		return 0, false
	}
	return v.idf[col], true
}

func (v *Vectorizer) NumFeatures() int { return len(v.terms) }

func countTerms(text string) map[string]int {
	counts := map[string]int{}
	for _, term := range analyze(text) {
		counts[term]++
	}
	return counts
}
