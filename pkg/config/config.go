// Package config loads the webdesk configuration from a JSON file in the
// data directory, with environment overrides.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Environment variables that override file settings.
const (
	EnvAddr     = "WEBDESK_ADDR"
	EnvLogLevel = "WEBDESK_LOG_LEVEL"
	EnvDataDir  = "WEBDESK_DATA_DIR"
)

// Config holds application configuration.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `json:"addr,omitempty"`

	// ViewportWidth and ViewportHeight size the area maximized windows fill.
	ViewportWidth  int `json:"viewport_width,omitempty"`
	ViewportHeight int `json:"viewport_height,omitempty"`

	// TopBarHeight, MinWindowWidth and MinWindowHeight bound window geometry.
	TopBarHeight    int `json:"top_bar_height,omitempty"`
	MinWindowWidth  int `json:"min_window_width,omitempty"`
	MinWindowHeight int `json:"min_window_height,omitempty"`

	// OpenOffsetBase and OpenOffsetRange bound where new windows appear.
	OpenOffsetBase  int `json:"open_offset_base,omitempty"`
	OpenOffsetRange int `json:"open_offset_range,omitempty"`

	// IDStrategy selects node id generation: "ulid" or "uuid".
	IDStrategy string `json:"id_strategy,omitempty"`

	// LogLevel is one of debug, info, warn, error. LogFormat is json or console.
	LogLevel  string `json:"log_level,omitempty"`
	LogFormat string `json:"log_format,omitempty"`

	// DBMaxOpenConns and DBMaxIdleConns limit the sqlite connection pool.
	// 0 means use the sql.DB default.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// MaxImportFileSize skips larger host files on import. 0 means the default.
	MaxImportFileSize int64 `json:"max_import_file_size,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// ImportRoots is an allowlist of host directories that may be imported.
	// Empty means any directory.
	ImportRoots []string `json:"import_roots,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:            ":8080",
		ViewportWidth:   1920,
		ViewportHeight:  1080,
		TopBarHeight:    28,
		MinWindowWidth:  200,
		MinWindowHeight: 150,
		OpenOffsetBase:  50,
		OpenOffsetRange: 200,
		IDStrategy:      "ulid",
		LogLevel:        "info",
		LogFormat:       "json",
		DBMaxOpenConns:  1,
		DBMaxIdleConns:  1,
	}
}

// DefaultDataDir returns ~/.webdesk, or ./.webdesk when the home directory
// is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".webdesk"
	}
	return filepath.Join(home, ".webdesk")
}

// Load loads configuration from baseDir/config.json and applies environment
// overrides. Returns default config if the file doesn't exist.
func Load(baseDir string) (*Config, error) {
	fileCfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	cfg := Merge(DefaultConfig(), fileCfg)
	ApplyEnv(cfg, os.Getenv)
	return cfg, nil
}

// DataDir returns the data directory: WEBDESK_DATA_DIR if set, else flagValue
// if set, else DefaultDataDir.
func DataDir(flagValue string) string {
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		return v
	}
	if flagValue != "" {
		return flagValue
	}
	return DefaultDataDir()
}

// ApplyEnv overrides cfg from environment variables read through getenv.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvAddr)); v != "" {
		cfg.Addr = v
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{
		Addr:              pick(overlay.Addr, base.Addr),
		ViewportWidth:     pick(overlay.ViewportWidth, base.ViewportWidth),
		ViewportHeight:    pick(overlay.ViewportHeight, base.ViewportHeight),
		TopBarHeight:      pick(overlay.TopBarHeight, base.TopBarHeight),
		MinWindowWidth:    pick(overlay.MinWindowWidth, base.MinWindowWidth),
		MinWindowHeight:   pick(overlay.MinWindowHeight, base.MinWindowHeight),
		OpenOffsetBase:    pick(overlay.OpenOffsetBase, base.OpenOffsetBase),
		OpenOffsetRange:   pick(overlay.OpenOffsetRange, base.OpenOffsetRange),
		IDStrategy:        pick(overlay.IDStrategy, base.IDStrategy),
		LogLevel:          pick(overlay.LogLevel, base.LogLevel),
		LogFormat:         pick(overlay.LogFormat, base.LogFormat),
		DBMaxOpenConns:    pick(overlay.DBMaxOpenConns, base.DBMaxOpenConns),
		DBMaxIdleConns:    pick(overlay.DBMaxIdleConns, base.DBMaxIdleConns),
		MaxImportFileSize: pick(overlay.MaxImportFileSize, base.MaxImportFileSize),
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.ImportRoots = mergeStringSlice(base.ImportRoots, overlay.ImportRoots)
	return result
}

// pick returns overlay if non-zero, else base.
func pick[T comparable](overlay, base T) T {
	var zero T
	if overlay != zero {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

// ImportAllowed reports whether dir lies inside one of the import roots.
// Any absolute directory is allowed when no roots are configured.
func (c *Config) ImportAllowed(dir string) bool {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	if len(c.ImportRoots) == 0 {
		return true
	}
	for _, root := range c.ImportRoots {
		if !filepath.IsAbs(root) {
			continue
		}
		rel, err := filepath.Rel(filepath.Clean(root), abs)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// ToolDisabled reports whether the named MCP tool is disabled.
func (c *Config) ToolDisabled(name string) bool {
	for _, t := range c.DisabledTools {
		if t == name {
			return true
		}
	}
	return false
}
