package config

import (
	"time"

	"github.com/mistakeknot/interscout/internal/rank"
)

const DefaultReadmeURL = "https://raw.githubusercontent.com/modelcontextprotocol/servers/main/README.md"

// Config is the application configuration shared by the CLI and MCP server.
type Config struct {
	Readme   ReadmeConfig   `mapstructure:"readme"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Flag     FlagConfig     `mapstructure:"flag"`
	Install  InstallConfig  `mapstructure:"install"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Ranking  RankingConfig  `mapstructure:"ranking"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type ReadmeConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CacheConfig selects where fetched README documents are kept.
// Backend is "memory", "redis" or "none".
type CacheConfig struct {
	Backend    string        `mapstructure:"backend"`
	TTL        time.Duration `mapstructure:"ttl"`
	MaxEntries int           `mapstructure:"max_entries"`
}

type RedisConfig struct {
	Address   string `mapstructure:"address"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// FlagConfig locates the keep-going flag file and its poll interval.
type FlagConfig struct {
	Path     string        `mapstructure:"path"`
	Interval time.Duration `mapstructure:"interval"`
}

type InstallConfig struct {
	MCPJSONPath string `mapstructure:"mcp_json_path"`
}

type DispatchConfig struct {
	Path string `mapstructure:"path"`
}

// RankingConfig mirrors rank.Weights so the tuning constants can be overridden.
type RankingConfig struct {
	ExactName         float64 `mapstructure:"exact_name"`
	NamePrefix        float64 `mapstructure:"name_prefix"`
	NameSubstring     float64 `mapstructure:"name_substring"`
	DescPrefix        float64 `mapstructure:"desc_prefix"`
	DescSubstring     float64 `mapstructure:"desc_substring"`
	NameWord          float64 `mapstructure:"name_word"`
	DescWord          float64 `mapstructure:"desc_word"`
	CategoryBonus     float64 `mapstructure:"category_bonus"`
	PreferredCategory string  `mapstructure:"preferred_category"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Weights converts the ranking section into scorer weights.
func (r RankingConfig) Weights() rank.Weights {
	return rank.Weights{
		ExactName:         r.ExactName,
		NamePrefix:        r.NamePrefix,
		NameSubstring:     r.NameSubstring,
		DescPrefix:        r.DescPrefix,
		DescSubstring:     r.DescSubstring,
		NameWord:          r.NameWord,
		DescWord:          r.DescWord,
		CategoryBonus:     r.CategoryBonus,
		PreferredCategory: r.PreferredCategory,
	}
}
