package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mistakeknot/interscout/internal/rank"
)

const envPrefix = "INTERSCOUT"

// Load reads configuration from an optional .env file, an optional
// interscout.yaml and INTERSCOUT_* environment variables, in that order of
// increasing precedence. configFile may be empty.
func Load(configFile string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("interscout")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir := configDir(); dir != "" {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Flag.Path = expandHome(cfg.Flag.Path)
	cfg.Install.MCPJSONPath = expandHome(cfg.Install.MCPJSONPath)
	cfg.Dispatch.Path = expandHome(cfg.Dispatch.Path)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	w := rank.DefaultWeights()

	v.SetDefault("readme.url", DefaultReadmeURL)
	v.SetDefault("readme.timeout", 10*time.Second)

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", time.Hour)
	v.SetDefault("cache.max_entries", 16)

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "interscout:")

	v.SetDefault("flag.path", "~/.interscout/keep_going.txt")
	v.SetDefault("flag.interval", 2*time.Second)

	v.SetDefault("install.mcp_json_path", "~/.cursor/mcp.json")
	v.SetDefault("dispatch.path", "")

	v.SetDefault("ranking.exact_name", w.ExactName)
	v.SetDefault("ranking.name_prefix", w.NamePrefix)
	v.SetDefault("ranking.name_substring", w.NameSubstring)
	v.SetDefault("ranking.desc_prefix", w.DescPrefix)
	v.SetDefault("ranking.desc_substring", w.DescSubstring)
	v.SetDefault("ranking.name_word", w.NameWord)
	v.SetDefault("ranking.desc_word", w.DescWord)
	v.SetDefault("ranking.category_bonus", w.CategoryBonus)
	v.SetDefault("ranking.preferred_category", w.PreferredCategory)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("metrics.addr", "")
}

func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Readme.URL) == "" {
		return fmt.Errorf("readme.url is required")
	}
	if cfg.Readme.Timeout <= 0 {
		return fmt.Errorf("readme.timeout must be positive")
	}
	switch cfg.Cache.Backend {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("cache.backend must be memory, redis, or none (got %q)", cfg.Cache.Backend)
	}
	if cfg.Cache.Backend == "memory" && cfg.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache.max_entries must be positive")
	}
	if cfg.Cache.Backend == "redis" && strings.TrimSpace(cfg.Redis.Address) == "" {
		return fmt.Errorf("redis.address is required for the redis cache backend")
	}
	if strings.TrimSpace(cfg.Flag.Path) == "" {
		return fmt.Errorf("flag.path is required")
	}
	if cfg.Flag.Interval <= 0 {
		return fmt.Errorf("flag.interval must be positive")
	}
	if cfg.Ranking.Weights().HasNegative() {
		return fmt.Errorf("ranking weights cannot be negative")
	}
	return nil
}

// loadEnvFile loads the first .env found walking up from the working directory.
func loadEnvFile() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}
	for {
		path := filepath.Join(dir, ".env")
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".interscout")
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
