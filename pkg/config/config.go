// Package config loads runtime configuration from higdocs.yaml, .env files
// and HIG_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dtnitsch/higdocs/models"
	"github.com/dtnitsch/higdocs/pkg/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. HIG_DB_PATH.
const EnvPrefix = "HIG"

// Defaults.
const (
	DefaultContentDir = "content"
	DefaultDBPath     = "higdocs.db"
	DefaultWorkers    = 4
	DefaultAddr       = ":8080"
	DefaultCacheTTL   = 5 * time.Minute
)

// SetDefaults registers every known key so that environment overrides
// apply even when no config file is present.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("content_dir", DefaultContentDir)
	v.SetDefault("db_path", DefaultDBPath)
	v.SetDefault("workers", DefaultWorkers)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("server.addr", DefaultAddr)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("server.cache_ttl", DefaultCacheTTL)
	v.SetDefault("server.admin_token", "")
	v.SetDefault("server.watch", false)
	v.SetDefault("output.format", "yaml")
}

// Load reads configuration into a Config. An explicit configFile must
// exist; otherwise higdocs.yaml is searched in the working directory and
// in ~/.config/higdocs, and a missing file is not an error.
func Load(v *viper.Viper, configFile string) (*models.Config, error) {
	loadDotEnv()

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("higdocs")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "higdocs"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg models.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// loadDotEnv loads .env and .env.local when present. Existing
// environment variables win.
func loadDotEnv() {
	for _, name := range []string{".env.local", ".env"} {
		if _, err := os.Stat(name); err == nil {
			_ = godotenv.Load(name)
		}
	}
}

// Validate checks a loaded configuration and returns every problem found.
func Validate(cfg *models.Config) []*errors.ValidationError {
	var problems []*errors.ValidationError

	if strings.TrimSpace(cfg.ContentDir) == "" {
		problems = append(problems, errors.NewValidationError("content_dir", cfg.ContentDir, "must not be empty"))
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		problems = append(problems, errors.NewValidationError("db_path", cfg.DBPath, "must not be empty"))
	}
	if cfg.Workers < 1 || cfg.Workers > 64 {
		problems = append(problems, errors.NewValidationError("workers", cfg.Workers, "must be between 1 and 64"))
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "", "console", "json":
	default:
		problems = append(problems, errors.NewValidationError("log.format", cfg.Log.Format, "must be console or json"))
	}
	switch strings.ToLower(cfg.Output.Format) {
	case "", "yaml", "json":
	default:
		problems = append(problems, errors.NewValidationError("output.format", cfg.Output.Format, "must be yaml or json"))
	}
	if cfg.Server.RateLimit < 0 {
		problems = append(problems, errors.NewValidationError("server.rate_limit", cfg.Server.RateLimit, "must not be negative"))
	}
	if cfg.Server.RateLimit > 0 && cfg.Server.RateBurst < 1 {
		problems = append(problems, errors.NewValidationError("server.rate_burst", cfg.Server.RateBurst, "must be at least 1 when rate limiting"))
	}
	if cfg.Server.CacheTTL < 0 {
		problems = append(problems, errors.NewValidationError("server.cache_ttl", cfg.Server.CacheTTL, "must not be negative"))
	}

	return problems
}
