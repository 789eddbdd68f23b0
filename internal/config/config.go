package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// BackendURL is the base URL of the itinerary backend.
	BackendURL string `json:"backend_url"`

	// HealthIntervalSeconds is how often the backend /health endpoint is polled.
	HealthIntervalSeconds int `json:"health_interval_seconds"`

	// HealthTimeoutSeconds bounds a single health check.
	HealthTimeoutSeconds int `json:"health_timeout_seconds"`

	// RequestTimeoutSeconds bounds a single plan or PDF request.
	// Generation runs an LLM on the backend and can take minutes.
	RequestTimeoutSeconds int `json:"request_timeout_seconds"`

	// UIBind and UIPort are the listen address of the web UI.
	UIBind string `json:"ui_bind"`
	UIPort int    `json:"ui_port"`

	// PDFOutputDir, when set, is sent to the backend as the directory for exported PDFs.
	// Empty lets the backend choose.
	PDFOutputDir string `json:"pdf_output_dir,omitempty"`

	// NoOpenPDF disables opening exported PDFs with the platform viewer.
	NoOpenPDF bool `json:"no_open_pdf,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BackendURL:            "http://127.0.0.1:8000",
		HealthIntervalSeconds: 10,
		HealthTimeoutSeconds:  5,
		RequestTimeoutSeconds: 300,
		UIBind:                "127.0.0.1",
		UIPort:                8765,
	}
}

// HealthInterval returns the health polling interval as a duration.
func (c *Config) HealthInterval() time.Duration {
	return time.Duration(c.HealthIntervalSeconds) * time.Second
}

// HealthTimeout returns the per-check health timeout as a duration.
func (c *Config) HealthTimeout() time.Duration {
	return time.Duration(c.HealthTimeoutSeconds) * time.Second
}

// RequestTimeout returns the plan/PDF request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Load loads configuration from baseDir/config.json, then applies overrides from
// baseDir/.env and the process environment (VACAY_* variables).
// Returns default config if neither exists.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.vacay.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}

	if err := loadDotEnv(filepath.Join(baseDir, ".env")); err != nil {
		return nil, err
	}

	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv loads a .env file into the process environment if it exists.
// Variables already set in the environment are not overwritten.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg fields from VACAY_* variables using lookup.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("VACAY_BACKEND_URL"); ok && strings.TrimSpace(v) != "" {
		cfg.BackendURL = strings.TrimSpace(v)
	}
	if v, ok := lookup("VACAY_UI_BIND"); ok && strings.TrimSpace(v) != "" {
		cfg.UIBind = strings.TrimSpace(v)
	}

	if v, ok := lookup("VACAY_UI_PORT"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid VACAY_UI_PORT: %q", v)
		}
		cfg.UIPort = n
	}
	return nil
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

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.BackendURL = firstString(overlay.BackendURL, base.BackendURL)
	result.UIBind = firstString(overlay.UIBind, base.UIBind)
	result.PDFOutputDir = firstString(overlay.PDFOutputDir, base.PDFOutputDir)

	result.HealthIntervalSeconds = firstInt(overlay.HealthIntervalSeconds, base.HealthIntervalSeconds)
	result.HealthTimeoutSeconds = firstInt(overlay.HealthTimeoutSeconds, base.HealthTimeoutSeconds)
	result.RequestTimeoutSeconds = firstInt(overlay.RequestTimeoutSeconds, base.RequestTimeoutSeconds)
	result.UIPort = firstInt(overlay.UIPort, base.UIPort)
	result.DBMaxOpenConns = firstInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = firstInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns)

	// Booleans: overlay wins if true, else base
	result.NoOpenPDF = base.NoOpenPDF || overlay.NoOpenPDF

	// Arrays: merge and deduplicate
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

func firstString(overlay, base string) string {
	if strings.TrimSpace(overlay) != "" {
		return overlay
	}
	return base
}

func firstInt(overlay, base int) int {
	if overlay != 0 {
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
