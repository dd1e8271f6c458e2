// Package config loads the wrapper's TOML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/simplygenius/atmos-sub001/internal/filter"
	"github.com/simplygenius/atmos-sub001/internal/logging"
	"github.com/simplygenius/atmos-sub001/internal/matcher"
	"github.com/simplygenius/atmos-sub001/internal/notify"
	"github.com/simplygenius/atmos-sub001/internal/provider"
)

const (
	// DirName is the per-user directory under $HOME.
	DirName = ".atmos"
	// FileName is the config file inside DirName.
	FileName = "config.toml"
	// HomeEnv overrides the per-user directory.
	HomeEnv = "ATMOS_HOME"
)

// Config is the top-level configuration file.
type Config struct {
	Tool          ToolSettings         `toml:"tool"`
	Notifications NotificationSettings `toml:"notifications"`
	Filters       FilterSettings       `toml:"filters"`
	JSONDiff      JSONDiffSettings     `toml:"json_diff"`
	Patterns      PatternSettings      `toml:"patterns"`
	Runner        RunnerSettings       `toml:"runner"`
	Logs          LogSettings          `toml:"logs"`
	Provider      ProviderSettings     `toml:"provider"`
}

// ToolSettings selects the wrapped binary.
type ToolSettings struct {
	// Binary is the executable to run (default: "terraform").
	Binary string `toml:"binary"`

	// Kind picks the built-in pattern set: "terraform" or "tofu".
	// Default: inferred from Binary.
	Kind string `toml:"kind"`

	// DisplayName names the tool in notifications and prompts.
	DisplayName string `toml:"display_name"`
}

// NotificationSettings configures desktop notifications.
type NotificationSettings struct {
	// Disable turns notifications off entirely.
	Disable bool `toml:"disable"`

	// Title heads each notification (default: "atmos").
	Title string `toml:"title"`

	// MinIntervalSeconds is the minimum gap between notifications.
	// Default: 0 (no limit)
	MinIntervalSeconds int `toml:"min_interval_seconds"`
}

// FilterSettings lists the filters applied to each stream, in order.
// A missing key means the default chain; an empty list means no filters.
type FilterSettings struct {
	Stdout []string `toml:"stdout"`
	Stderr []string `toml:"stderr"`
}

// JSONDiffSettings configures the JSON diff renderer.
type JSONDiffSettings struct {
	// ContextLines is the number of unchanged lines around each hunk.
	// Default: 3
	ContextLines int `toml:"context_lines"`
}

// PatternSettings overrides the built-in line patterns. A key present here
// replaces the built-in list for that field; Extra is appended.
type PatternSettings struct {
	matcher.RawPatterns
	Extra matcher.RawPatterns `toml:"extra"`
}

// RunnerSettings configures how the tool is spawned.
type RunnerSettings struct {
	// PTY gives the tool a pseudo-terminal for stdout and stdin.
	PTY bool `toml:"pty"`

	// AccessiblePrompts renders confirmations as plain line prompts.
	AccessiblePrompts bool `toml:"accessible_prompts"`
}

// LogSettings configures the debug log.
type LogSettings struct {
	// Dir holds debug.log and crash dumps. Default: <atmos home>/logs
	Dir string `toml:"dir"`

	// Level is the minimum log level: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `toml:"level"`

	// Format is "json" (default) or "text"
	Format string `toml:"format"`

	// MaxSizeMB is the size at which debug.log is rotated. Default: 10
	MaxSizeMB int `toml:"max_size_mb"`

	// MaxBackups is the number of rotated files kept. Default: 5
	MaxBackups int `toml:"max_backups"`

	// MaxAgeDays is how long rotated files are kept. Default: 10
	MaxAgeDays int `toml:"max_age_days"`

	// Compress gzips rotated files. Default: true
	Compress *bool `toml:"compress"`

	// TailKB bounds the recent records kept for crash dumps. Default: 1024
	TailKB int `toml:"tail_kb"`

	// AggregateIntervalSecs is the event aggregation flush interval. Default: 30
	AggregateIntervalSecs int `toml:"aggregate_interval_secs"`
}

// ProviderSettings selects the credential provider.
type ProviderSettings struct {
	// Name of the provider (default: "local").
	Name string `toml:"name"`

	// Env is added to the tool's environment.
	Env map[string]string `toml:"env"`

	// SecretEnv maps environment variables to secret store keys. The store
	// is filled from ATMOS_SECRET_<KEY> variables in the caller's environment.
	SecretEnv map[string]string `toml:"secret_env"`
}

var (
	cache   *Config
	cacheAt string
	cacheMu sync.RWMutex
)

// Home returns the per-user atmos directory.
func Home() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// DefaultPath returns the default config file path.
func DefaultPath() (string, error) {
	dir, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{}
}

// Load reads the config at path (DefaultPath when empty) and caches it.
// A missing file yields defaults. A file that fails to parse yields
// defaults and the parse error, so the caller can report it and carry on.
func Load(path string) (*Config, error) {
	cacheMu.RLock()
	if cache != nil && cacheAt == path {
		defer cacheMu.RUnlock()
		return cache, nil
	}
	cacheMu.RUnlock()

	cacheMu.Lock()
	defer cacheMu.Unlock()

	if cache != nil && cacheAt == path {
		return cache, nil
	}
	cfg, err := load(path)
	cache, cacheAt = cfg, path
	return cfg, err
}

func load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Default(), fmt.Errorf("%s parse error: %w", filepath.Base(path), err)
	}
	return &cfg, nil
}

// ClearCache drops the cached config so the next Load reads from disk.
func ClearCache() {
	cacheMu.Lock()
	cache, cacheAt = nil, ""
	cacheMu.Unlock()
}

// Save writes cfg to path atomically: a 0600 temp file, fsync, rename.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("# atmos configuration\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	_ = syncFile(tmp)
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("finalize config save: %w", err)
	}
	ClearCache()
	return nil
}

func syncFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

// GetBinary returns the executable to run.
func (t ToolSettings) GetBinary() string {
	if t.Binary != "" {
		return t.Binary
	}
	if t.Kind == "tofu" || t.Kind == "opentofu" {
		return "tofu"
	}
	return "terraform"
}

// GetKind returns the pattern set name, inferred from the binary when unset.
func (t ToolSettings) GetKind() string {
	if t.Kind != "" {
		return strings.ToLower(t.Kind)
	}
	base := strings.TrimSuffix(filepath.Base(t.GetBinary()), ".exe")
	if base == "tofu" || base == "opentofu" {
		return "tofu"
	}
	return "terraform"
}

// NotifyConfig returns the notifier configuration.
func (c *Config) NotifyConfig() notify.Config {
	return notify.Config{
		Disable:     c.Notifications.Disable,
		Title:       c.Notifications.Title,
		MinInterval: time.Duration(c.Notifications.MinIntervalSeconds) * time.Second,
	}
}

// StdoutFilters returns the stdout chain, defaulting when unset.
func (c *Config) StdoutFilters() []string {
	if c.Filters.Stdout == nil {
		return filter.DefaultStdout
	}
	return c.Filters.Stdout
}

// StderrFilters returns the stderr chain, defaulting when unset.
func (c *Config) StderrFilters() []string {
	if c.Filters.Stderr == nil {
		return filter.DefaultStderr
	}
	return c.Filters.Stderr
}

// DiffContext returns the JSON diff context size.
func (c *Config) DiffContext() int {
	if c.JSONDiff.ContextLines <= 0 {
		return 3
	}
	return c.JSONDiff.ContextLines
}

// CompilePatterns merges the built-in patterns for the tool with the
// configured overrides and extras.
func (c *Config) CompilePatterns() (*matcher.Patterns, error) {
	defaults := matcher.DefaultRawPatterns(c.Tool.GetKind())
	if defaults == nil {
		defaults = matcher.DefaultRawPatterns("terraform")
	}
	merged := matcher.MergeRawPatterns(defaults, &c.Patterns.RawPatterns, &c.Patterns.Extra)
	return matcher.CompilePatterns(merged)
}

// LogConfig returns the logging configuration. Records are written only
// when debug is set or a log directory is configured.
func (c *Config) LogConfig(debug bool) logging.Config {
	l := c.Logs
	compress := true
	if l.Compress != nil {
		compress = *l.Compress
	}
	dir := l.Dir
	if debug && dir == "" {
		dir = c.LogDir()
	}
	return logging.Config{
		LogDir:                dir,
		Level:                 l.Level,
		Format:                l.Format,
		MaxSizeMB:             l.MaxSizeMB,
		MaxBackups:            l.MaxBackups,
		MaxAgeDays:            l.MaxAgeDays,
		Compress:              compress,
		TailSize:              l.TailKB * 1024,
		AggregateIntervalSecs: l.AggregateIntervalSecs,
		Debug:                 debug,
	}
}

// LogDir returns the log directory, or "" when it cannot be determined.
func (c *Config) LogDir() string {
	if c.Logs.Dir != "" {
		return c.Logs.Dir
	}
	home, err := Home()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "logs")
}

// ProviderConfig returns the provider configuration.
func (c *Config) ProviderConfig() provider.Config {
	return provider.Config{
		Name:      c.Provider.Name,
		Env:       c.Provider.Env,
		SecretEnv: c.Provider.SecretEnv,
	}
}
