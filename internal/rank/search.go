package rank

import (
	"sort"
	"strings"

	"github.com/mistakeknot/interscout/internal/registry"
)

// Scored pairs a server with its relevance for one query.
type Scored struct {
	registry.Server
	Relevance float64 `json:"relevance"`
}

// Search filters, scores and truncates candidates. It keeps no state between
// calls and never returns nil.
//
// With a non-empty query, only servers whose name or description contains the
// query are kept, ordered by descending score; equal scores keep input order.
// With an empty query every server is returned ordered by name.
func (sc *Scorer) Search(candidates []registry.Server, query string, limit int) []Scored {
	if limit <= 0 || len(candidates) == 0 {
		return []Scored{}
	}

	q := strings.ToLower(query)
	matched := make([]Scored, 0, len(candidates))

	if q == "" {
		for _, c := range candidates {
			matched = append(matched, Scored{Server: c, Relevance: sc.Score(c, q)})
		}
		sort.SliceStable(matched, func(i, j int) bool {
			return strings.ToLower(matched[i].Name) < strings.ToLower(matched[j].Name)
		})
	} else {
		for _, c := range candidates {
			if !strings.Contains(strings.ToLower(c.Name), q) && !strings.Contains(strings.ToLower(c.Description), q) {
				continue
			}
			matched = append(matched, Scored{Server: c, Relevance: sc.Score(c, q)})
		}
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].Relevance > matched[j].Relevance
		})
	}

	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}

// Search uses DefaultWeights.
func Search(candidates []registry.Server, query string, limit int) []Scored {
	return NewScorer(DefaultWeights()).Search(candidates, query, limit)
}
