package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mistakeknot/interscout/internal/logger"
	"github.com/mistakeknot/interscout/internal/metrics"
	"github.com/mistakeknot/interscout/internal/rank"
	"github.com/mistakeknot/interscout/internal/registry"
)

const DefaultLimit = 10

// DocumentSource returns the raw README text.
type DocumentSource interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Options narrows a Find call. Type is a category name, matched
// case-insensitively; an unknown Type is rejected. A zero Limit means
// DefaultLimit.
type Options struct {
	Query string
	Type  string
	Limit int
}

// Finder answers server searches against the MCP servers README.
type Finder struct {
	source    DocumentSource
	readmeURL string
	scorer    *rank.Scorer
	logger    logger.Logger
}

func NewFinder(source DocumentSource, readmeURL string, scorer *rank.Scorer, log logger.Logger) *Finder {
	return &Finder{
		source:    source,
		readmeURL: readmeURL,
		scorer:    scorer,
		logger:    log,
	}
}

// Find returns ranked servers. An empty result is an empty slice, not an error.
func (f *Finder) Find(ctx context.Context, opts Options) ([]rank.Scored, error) {
	limit := opts.Limit
	if limit == 0 {
		limit = DefaultLimit
	}

	kind := ""
	if strings.TrimSpace(opts.Type) != "" {
		kind = registry.NormalizeType(opts.Type)
		if kind == "" {
			return nil, fmt.Errorf("unknown server type %q: must be one of %s",
				opts.Type, strings.ToLower(strings.Join(registry.Types(), ", ")))
		}
	}

	if registry.IsSkeletonQuery(opts.Query) {
		metrics.SearchesTotal.WithLabelValues("skeleton").Inc()
		skeleton := registry.Skeleton()
		return []rank.Scored{{Server: skeleton, Relevance: f.scorer.Score(skeleton, opts.Query)}}, nil
	}

	start := time.Now()
	doc, err := f.source.Fetch(ctx, f.readmeURL)
	if err != nil {
		return nil, fmt.Errorf("fetch README: %w", err)
	}

	servers := registry.Parse(doc, kind)
	results := f.scorer.Search(servers, opts.Query, limit)

	metrics.SearchesTotal.WithLabelValues("readme").Inc()
	metrics.SearchResults.Observe(float64(len(results)))
	f.logger.Info("search completed", map[string]interface{}{
		"query":      opts.Query,
		"type":       kind,
		"parsed":     len(servers),
		"returned":   len(results),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return results, nil
}

// Best returns the top match for query, or ok=false when nothing matches.
func (f *Finder) Best(ctx context.Context, query string) (rank.Scored, bool, error) {
	results, err := f.Find(ctx, Options{Query: query, Limit: 1})
	if err != nil {
		return rank.Scored{}, false, err
	}
	if len(results) == 0 {
		return rank.Scored{}, false, nil
	}
	return results[0], true, nil
}
