package models

import "time"

// Config holds runtime configuration. Values come from higdocs.yaml,
// HIG_* environment variables and CLI flags, in increasing precedence.
type Config struct {
	ContentDir string       `mapstructure:"content_dir" yaml:"content_dir" json:"content_dir"`
	DBPath     string       `mapstructure:"db_path" yaml:"db_path" json:"db_path"`
	Workers    int          `mapstructure:"workers" yaml:"workers" json:"workers"`
	Log        LogConfig    `mapstructure:"log" yaml:"log" json:"log"`
	Server     ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
	Output     OutputConfig `mapstructure:"output" yaml:"output" json:"output"`
}

// LogConfig selects log verbosity and encoding.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"` // console or json
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr        string        `mapstructure:"addr" yaml:"addr" json:"addr"`
	CORSOrigins []string      `mapstructure:"cors_origins" yaml:"cors_origins" json:"cors_origins"`
	RateLimit   float64       `mapstructure:"rate_limit" yaml:"rate_limit" json:"rate_limit"` // requests per second per client, 0 disables
	RateBurst   int           `mapstructure:"rate_burst" yaml:"rate_burst" json:"rate_burst"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl" json:"cache_ttl"`
	AdminToken  string        `mapstructure:"admin_token" yaml:"admin_token" json:"-"`
	Watch       bool          `mapstructure:"watch" yaml:"watch" json:"watch"`
}

// OutputConfig controls CLI rendering.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"` // yaml or json
}
