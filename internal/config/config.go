// Package config handles TOML configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"slices"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// configSearchPaths lists paths checked in order when no explicit config is given.
var configSearchPaths = []string{
	"/etc/econ-proxy/config.toml",
	"configs/config.toml",
}

// placeholderKey is the value shipped in configs/config.example.toml.
const placeholderKey = "YOUR_API_KEY_HERE"

// CLI holds command-line arguments parsed by Kong.
type CLI struct {
	Config   string `kong:"short='c',help='Path to TOML config file.',env='CONFIG_PATH'"`
	Host     string `kong:"help='Listen host (overrides config).',env='HOST'"`
	Port     int    `kong:"short='p',help='Listen port (overrides config).',env='PORT'"`
	FREDKey  string `kong:"name='fred-key',help='FRED API key (overrides config).',env='FRED_KEY'"`
	FMPKey   string `kong:"name='fmp-key',help='Financial Modeling Prep API key (overrides config).',env='FMP_KEY'"`
	LogLevel string `kong:"help='Log level: debug|info|warn|error (overrides config).',env='LOG_LEVEL'"`
}

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	FRED     ProviderConfig `toml:"fred"`
	FMP      ProviderConfig `toml:"fmp"`
	Upstream UpstreamConfig `toml:"upstream"`
	Log      LogConfig      `toml:"log"`
	Metrics  MetricsConfig  `toml:"metrics"`

	filePath string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string          `toml:"host"`
	Port         int             `toml:"port"`
	BodyMaxBytes int64           `toml:"body_max_bytes"`
	RateLimit    RateLimitConfig `toml:"rate_limit"`
}

// RateLimitConfig controls per-IP request rate limiting.
type RateLimitConfig struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// ProviderConfig holds the credential and base URL of one upstream data provider.
// An empty APIKey is accepted at load time; requests to that provider fail with 500.
type ProviderConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// UpstreamConfig holds upstream connection settings shared by all providers.
type UpstreamConfig struct {
	TimeoutSeconds  int `toml:"timeout_seconds"`
	IdleConnections int `toml:"idle_connections"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// reservedRoutes are the paths served by the proxy itself.
var reservedRoutes = []string{"/api/fred", "/api/fmp", "/healthz", "/proxy/status"}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8000,
			BodyMaxBytes: 64 * 1024,
		},
		FRED:     ProviderConfig{BaseURL: "https://api.stlouisfed.org"},
		FMP:      ProviderConfig{BaseURL: "https://financialmodelingprep.com"},
		Upstream: UpstreamConfig{TimeoutSeconds: 30, IdleConnections: 20},
		Log:      LogConfig{Level: "info", Format: "json"},
		Metrics:  MetricsConfig{Path: "/metrics"},
	}
}

// Load builds the configuration from defaults, then the TOML file, then CLI
// flags and their environment variables, each layer overriding the last.
// Without --config (or CONFIG_PATH) the search paths are tried in order; if
// none exists the file layer is skipped.
func Load(cli *CLI) (*Config, error) {
	cfg := defaults()

	path := cli.Config
	if path == "" {
		path = findConfig()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg.filePath = path
	}

	cfg.applyCLI(cli)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyCLI(cli *CLI) {
	override(&c.Server.Host, cli.Host)
	override(&c.FRED.APIKey, cli.FREDKey)
	override(&c.FMP.APIKey, cli.FMPKey)
	override(&c.Log.Level, cli.LogLevel)
	if cli.Port != 0 {
		c.Server.Port = cli.Port
	}
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// validate reports every problem at once.
func (c *Config) validate() error {
	errs := []error{
		c.FRED.validate("fred"),
		c.FMP.validate("fmp"),
		atLeast("server.port", c.Server.Port, 1),
		atLeast("server.body_max_bytes", c.Server.BodyMaxBytes, 1),
		atLeast("upstream.timeout_seconds", c.Upstream.TimeoutSeconds, 1),
		atLeast("upstream.idle_connections", c.Upstream.IdleConnections, 0),
		oneOf("log.level", c.Log.Level, "debug", "info", "warn", "error"),
		oneOf("log.format", c.Log.Format, "json", "text"),
	}
	if c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be at most 65535; got %d", c.Server.Port))
	}
	if c.Server.RateLimit.Enabled && c.Server.RateLimit.RequestsPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("server.rate_limit.requests_per_second must be > 0 when rate limiting is enabled; got %v",
			c.Server.RateLimit.RequestsPerSecond))
	}
	if c.Metrics.Enabled {
		errs = append(errs, validateMetricsPath(c.Metrics.Path))
	}
	return errors.Join(errs...)
}

func (p *ProviderConfig) validate(section string) error {
	if p.APIKey == placeholderKey {
		return fmt.Errorf("%s.api_key contains placeholder value; set a real key or leave it empty", section)
	}
	u, err := url.Parse(p.BaseURL)
	if err != nil {
		return fmt.Errorf("%s.base_url is not a valid URL: %w", section, err)
	}
	if u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("%s.base_url must be an absolute HTTPS URL; got %q", section, p.BaseURL)
	}
	return nil
}

func validateMetricsPath(p string) error {
	if !strings.HasPrefix(p, "/") {
		return fmt.Errorf("metrics.path must start with '/'; got %q", p)
	}
	for _, reserved := range reservedRoutes {
		if p == reserved || strings.HasPrefix(p, reserved+"/") {
			return fmt.Errorf("metrics.path %q conflicts with reserved route %q", p, reserved)
		}
	}
	return nil
}

func atLeast[T int | int64](name string, v, floor T) error {
	if v < floor {
		return fmt.Errorf("%s must be >= %d; got %d", name, floor, v)
	}
	return nil
}

func oneOf(name, v string, allowed ...string) error {
	if slices.Contains(allowed, strings.ToLower(v)) {
		return nil
	}
	return fmt.Errorf("%s must be one of: %s; got %q", name, strings.Join(allowed, ", "), v)
}

func findConfig() string {
	return findConfigInPaths(configSearchPaths)
}

// findConfigInPaths returns the first path that exists on disk, or empty string.
func findConfigInPaths(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Addr returns the server listen address as host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// WarnPermissions logs a warning if the config file, which may hold provider
// keys, is readable by group or others.
func (c *Config) WarnPermissions(logger *slog.Logger) {
	if c.filePath == "" {
		return
	}
	info, err := os.Stat(c.filePath)
	if err != nil {
		return
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Warn("config file is readable by group/others; consider chmod 600",
			"path", c.filePath,
			"mode", fmt.Sprintf("%04o", perm),
		)
	}
}
