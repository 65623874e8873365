package rank

import (
	"strings"

	"github.com/mistakeknot/interscout/internal/registry"
)

// Weights holds the additive scoring constants. The defaults are hand-tuned
// and carry no derivation; override them through configuration.
type Weights struct {
	ExactName     float64
	NamePrefix    float64
	NameSubstring float64
	DescPrefix    float64
	DescSubstring float64
	NameWord      float64
	DescWord      float64
	CategoryBonus float64
	// PreferredCategory receives CategoryBonus. Compared case-insensitively.
	PreferredCategory string
}

// DefaultWeights returns 100/75/50/30/20/15/5/5 with Reference preferred.
func DefaultWeights() Weights {
	return Weights{
		ExactName:         100,
		NamePrefix:        75,
		NameSubstring:     50,
		DescPrefix:        30,
		DescSubstring:     20,
		NameWord:          15,
		DescWord:          5,
		CategoryBonus:     5,
		PreferredCategory: registry.TypeReference,
	}
}

func (w Weights) HasNegative() bool {
	for _, v := range []float64{
		w.ExactName, w.NamePrefix, w.NameSubstring,
		w.DescPrefix, w.DescSubstring,
		w.NameWord, w.DescWord, w.CategoryBonus,
	} {
		if v < 0 {
			return true
		}
	}
	return false
}

// Scorer computes relevance scores with a fixed set of weights.
type Scorer struct {
	weights Weights
}

func NewScorer(w Weights) *Scorer {
	return &Scorer{weights: w}
}

// Score returns the relevance of s for query. The query is lower-cased here,
// so callers may pass it as typed. An empty query only earns the category bonus.
func (sc *Scorer) Score(s registry.Server, query string) float64 {
	w := sc.weights
	query = strings.ToLower(query)
	name := strings.ToLower(s.Name)
	desc := strings.ToLower(s.Description)

	score := 0.0

	if query != "" {
		switch {
		case name == query:
			score += w.ExactName
		case strings.HasPrefix(name, query):
			score += w.NamePrefix
		case strings.Contains(name, query):
			score += w.NameSubstring
		}

		switch {
		case strings.HasPrefix(desc, query):
			score += w.DescPrefix
		case strings.Contains(desc, query):
			score += w.DescSubstring
		}

		queryWords := wordSet(query)
		score += float64(overlap(queryWords, wordSet(name))) * w.NameWord
		score += float64(overlap(queryWords, wordSet(desc))) * w.DescWord
	}

	if w.PreferredCategory != "" && strings.EqualFold(s.Type, w.PreferredCategory) {
		score += w.CategoryBonus
	}
	return score
}

// Score uses DefaultWeights.
func Score(s registry.Server, query string) float64 {
	return NewScorer(DefaultWeights()).Score(s, query)
}

func wordSet(text string) map[string]struct{} {
	fields := strings.Fields(text)
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		out[f] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for word := range a {
		if _, ok := b[word]; ok {
			n++
		}
	}
	return n
}
