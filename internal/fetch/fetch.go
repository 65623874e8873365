package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mistakeknot/interscout/internal/logger"
	"github.com/mistakeknot/interscout/internal/metrics"
)

const maxDocumentBytes = 8 << 20 // 8 MB

var (
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
	ErrDocumentTooLarge = errors.New("document exceeds size limit")
)

// statsReporter is implemented by stores that keep lookup counters.
type statsReporter interface {
	Stats() string
}

// Fetcher downloads text documents, consulting an optional Store first.
type Fetcher struct {
	client *http.Client
	store  Store
	logger logger.Logger
}

// NewFetcher builds a Fetcher. store may be nil to disable caching.
func NewFetcher(timeout time.Duration, store Store, log logger.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		store:  store,
		logger: log,
	}
}

// Fetch returns the body of url. Cache failures are logged and bypassed.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if f.store != nil {
		value, ok, err := f.store.Get(ctx, url)
		if sr, isReporter := f.store.(statsReporter); isReporter {
			f.logger.Debug("cache stats", map[string]interface{}{"backend": f.store.Name(), "stats": sr.Stats()})
		}
		switch {
		case err != nil:
			metrics.CacheLookups.WithLabelValues(f.store.Name(), "error").Inc()
			f.logger.Warn("cache lookup failed", map[string]interface{}{"backend": f.store.Name(), "error": err.Error()})
		case ok:
			metrics.CacheLookups.WithLabelValues(f.store.Name(), "hit").Inc()
			return value, nil
		default:
			metrics.CacheLookups.WithLabelValues(f.store.Name(), "miss").Inc()
		}
	}

	body, err := f.get(ctx, url)
	if err != nil {
		metrics.ReadmeFetches.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.ReadmeFetches.WithLabelValues("ok").Inc()

	if f.store != nil {
		if err := f.store.Put(ctx, url, body); err != nil {
			f.logger.Warn("cache store failed", map[string]interface{}{"backend": f.store.Name(), "error": err.Error()})
		}
	}
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: %w: %d", url, ErrUnexpectedStatus, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes+1))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > maxDocumentBytes {
		return "", fmt.Errorf("fetch %s: %w (%d bytes)", url, ErrDocumentTooLarge, maxDocumentBytes)
	}

	f.logger.Debug("document fetched", map[string]interface{}{
		"url":        url,
		"bytes":      len(data),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return string(data), nil
}
