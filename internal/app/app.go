package app

import (
	"context"
	"fmt"

	"github.com/mistakeknot/interscout/internal/catalog"
	"github.com/mistakeknot/interscout/internal/config"
	"github.com/mistakeknot/interscout/internal/fetch"
	"github.com/mistakeknot/interscout/internal/keepgoing"
	"github.com/mistakeknot/interscout/internal/logger"
	"github.com/mistakeknot/interscout/internal/rank"
)

// Services holds the components shared by the CLI and the MCP server.
type Services struct {
	Config *config.Config
	Finder *catalog.Finder
	Flag   *keepgoing.FileStore
	Logger logger.Logger

	closers []func() error
}

// New wires services from cfg. A redis cache that cannot be reached is an
// error here rather than a silent fallback.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*Services, error) {
	svc := &Services{
		Config: cfg,
		Flag:   keepgoing.NewFileStore(cfg.Flag.Path),
		Logger: log,
	}

	store, err := svc.newStore(ctx)
	if err != nil {
		return nil, err
	}

	fetcher := fetch.NewFetcher(cfg.Readme.Timeout, store, log)
	svc.Finder = catalog.NewFinder(fetcher, cfg.Readme.URL, rank.NewScorer(cfg.Ranking.Weights()), log)
	return svc, nil
}

func (s *Services) newStore(ctx context.Context) (fetch.Store, error) {
	cfg := s.Config
	switch cfg.Cache.Backend {
	case "none":
		s.Logger.Debug("README cache disabled", nil)
		return nil, nil
	case "redis":
		client := fetch.NewRedisClient(fetch.RedisOptions{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store := fetch.NewRedisStore(client, cfg.Redis.KeyPrefix, cfg.Cache.TTL)
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("connect redis cache at %s: %w", cfg.Redis.Address, err)
		}
		s.closers = append(s.closers, store.Close)
		s.Logger.Info("README cache connected", map[string]interface{}{"backend": "redis", "address": cfg.Redis.Address})
		return store, nil
	default:
		return fetch.NewMemoryStore(cfg.Cache.MaxEntries, cfg.Cache.TTL), nil
	}
}

// Close releases cache connections.
func (s *Services) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}
