package common

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/higdocs/models"
	"github.com/dtnitsch/higdocs/pkg/config"
	dbpkg "github.com/dtnitsch/higdocs/pkg/db"
	"github.com/dtnitsch/higdocs/pkg/logging"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitPartial = 1 // validation errors or per-file failures
	ExitFatal   = 2
)

// Global flag names shared by every command.
const (
	FlagConfig     = "config"
	FlagContentDir = "content-dir"
	FlagDB         = "db"
	FlagWorkers    = "workers"
	FlagLogLevel   = "log-level"
	FlagLogFormat  = "log-format"
	FlagFormat     = "format"
	FlagFields     = "fields"
	FlagQuiet      = "quiet"
)

// GlobalFlags are registered on the app.
func GlobalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: FlagConfig, Usage: "Config file (default: higdocs.yaml in . or ~/.config/higdocs)"},
		&cli.StringFlag{Name: FlagContentDir, Aliases: []string{"c"}, Usage: "Root of the Markdown corpus"},
		&cli.StringFlag{Name: FlagDB, Usage: "SQLite index path"},
		&cli.IntFlag{Name: FlagWorkers, Usage: "Loader worker goroutines"},
		&cli.StringFlag{Name: FlagLogLevel, Usage: "debug, info, warn or error"},
		&cli.StringFlag{Name: FlagLogFormat, Usage: "console or json"},
		&cli.StringFlag{Name: FlagFormat, Aliases: []string{"o"}, Usage: "Output format: yaml or json (get also takes markdown or html)"},
		&cli.StringFlag{Name: FlagFields, Usage: "Comma-separated top-level fields to keep in yaml/json output"},
		&cli.BoolFlag{Name: FlagQuiet, Aliases: []string{"q"}, Usage: "Only log errors"},
	}
}

// LoadConfig reads the config file and environment, then applies flags.
func LoadConfig(c *cli.Context) (*models.Config, error) {
	cfg, err := config.Load(viper.New(), c.String(FlagConfig))
	if err != nil {
		return nil, err
	}

	if c.IsSet(FlagContentDir) {
		cfg.ContentDir = c.String(FlagContentDir)
	}
	if c.IsSet(FlagDB) {
		cfg.DBPath = c.String(FlagDB)
	}
	if c.IsSet(FlagWorkers) {
		cfg.Workers = c.Int(FlagWorkers)
	}
	if c.IsSet(FlagLogLevel) {
		cfg.Log.Level = c.String(FlagLogLevel)
	}
	if c.IsSet(FlagLogFormat) {
		cfg.Log.Format = c.String(FlagLogFormat)
	}
	if c.Bool(FlagQuiet) {
		cfg.Log.Level = "error"
	}
	if c.IsSet(FlagFormat) && !IsRenderFormat(c.String(FlagFormat)) {
		cfg.Output.Format = c.String(FlagFormat)
	}

	if problems := config.Validate(cfg); len(problems) > 0 {
		msgs := make([]string, len(problems))
		for i, p := range problems {
			msgs[i] = p.Error()
		}
		return nil, fmt.Errorf("invalid configuration:\n  %s", strings.Join(msgs, "\n  "))
	}
	return cfg, nil
}

// IsRenderFormat reports whether format asks for a rendered document
// instead of structured output.
func IsRenderFormat(format string) bool {
	switch strings.ToLower(format) {
	case "markdown", "md", "html":
		return true
	}
	return false
}

// Env is what a command needs at run time.
type Env struct {
	Config *models.Config
	Logger *zerolog.Logger
	DB     *dbpkg.DB
}

// Setup loads config, installs the logger and opens the index.
func Setup(c *cli.Context) (*Env, error) {
	cfg, err := LoadConfig(c)
	if err != nil {
		return nil, cli.Exit(err.Error(), ExitFatal)
	}
	logger := logging.Configure(cfg.Log)

	database, err := dbpkg.Open(cfg.DBPath)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("failed to open database: %v", err), ExitFatal)
	}
	logger.Debug().Str("db", cfg.DBPath).Str("content_dir", cfg.ContentDir).Msg("Environment ready")
	return &Env{Config: cfg, Logger: logger, DB: database}, nil
}

// Close releases the database.
func (e *Env) Close() {
	if e.DB != nil {
		_ = e.DB.Close()
	}
}

// Fatal wraps err with the fatal exit code.
func Fatal(err error) error {
	return cli.Exit(err.Error(), ExitFatal)
}

// Print writes v to w as yaml or json.
func Print(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "", "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q (yaml, json)", format)
	}
}

// Output prints v in the configured format, keeping only --fields when set.
func (e *Env) Output(c *cli.Context, v any) error {
	if fields := c.String(FlagFields); fields != "" {
		v = FilterResultFields(v, fields)
	}
	return Print(c.App.Writer, e.Config.Output.Format, v)
}

// FilterResultFields keeps the requested top-level fields of result, using
// its JSON field names.
func FilterResultFields(result any, fieldsStr string) map[string]any {
	fullMap := structToMap(result)
	if fieldsStr == "" {
		return fullMap
	}

	include := make(map[string]bool)
	for _, field := range strings.Split(fieldsStr, ",") {
		if field = strings.TrimSpace(field); field != "" {
			include[field] = true
		}
	}

	filtered := make(map[string]any)
	for key, value := range fullMap {
		if include[key] {
			filtered[key] = value
		}
	}
	return filtered
}

// structToMap converts a struct to a map using JSON marshaling.
func structToMap(obj any) map[string]any {
	data, _ := json.Marshal(obj)
	var result map[string]any
	_ = json.Unmarshal(data, &result)
	return result
}

// ParseIDs parses a comma-separated list of document ids.
func ParseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid document id: %s", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
