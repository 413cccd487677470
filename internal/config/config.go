// Package config resolves client settings from defaults, a YAML file,
// HRA_* environment variables and command-line flags, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ikkahin/hra/internal/api"
	"github.com/ikkahin/hra/internal/domain"
	"github.com/ikkahin/hra/internal/realtime"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// RealtimeConfig holds the realtime channel settings.
type RealtimeConfig struct {
	Transports        []string `yaml:"transports"`
	ReconnectAttempts int      `yaml:"reconnect_attempts"`
	DelayMinMs        int      `yaml:"delay_min_ms"`
	DelayMaxMs        int      `yaml:"delay_max_ms"`
	Randomization     float64  `yaml:"randomization"`
	// RequestTimeoutMs bounds each long-polling request.
	RequestTimeoutMs int `yaml:"request_timeout_ms"`
}

// Config holds every client setting.
type Config struct {
	APIURL           string         `yaml:"api_url"`
	RealtimeURL      string         `yaml:"realtime_url"`
	DBPath           string         `yaml:"db_path"`
	Timezone         string         `yaml:"timezone"`
	RequestTimeoutMs int            `yaml:"request_timeout_ms"`
	MaxRetries       int            `yaml:"max_retries"`
	LogLevel         string         `yaml:"log_level"`
	LogFormat        string         `yaml:"log_format"`
	LogFile          string         `yaml:"log_file"`
	Realtime         RealtimeConfig `yaml:"realtime"`

	// Path is the config file that was read, if any.
	Path string `yaml:"-"`
}

// DefaultConfig returns settings for a backend on localhost:5000.
func DefaultConfig() Config {
	home := homeDir()
	rt := realtime.DefaultConfig()
	return Config{
		APIURL:           "http://localhost:5000/api",
		RealtimeURL:      "http://localhost:5000",
		DBPath:           filepath.Join(home, "hra.db"),
		Timezone:         domain.DefaultZone,
		RequestTimeoutMs: 10000,
		MaxRetries:       1,
		LogLevel:         "info",
		LogFormat:        "auto",
		LogFile:          filepath.Join(home, "hra.log"),
		Realtime: RealtimeConfig{
			Transports:        rt.Transports,
			ReconnectAttempts: rt.ReconnectAttempts,
			DelayMinMs:        int(rt.DelayMin.Milliseconds()),
			DelayMaxMs:        int(rt.DelayMax.Milliseconds()),
			Randomization:     rt.Randomization,
			RequestTimeoutMs:  int(rt.RequestTimeout.Milliseconds()),
		},
	}
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hra"
	}
	return filepath.Join(home, ".hra")
}

// DefaultPath is $HRA_CONFIG, or ~/.hra/config.yaml.
func DefaultPath() string {
	if v := os.Getenv("HRA_CONFIG"); v != "" {
		return v
	}
	return filepath.Join(homeDir(), "config.yaml")
}

// Flags are the command-line overrides shared by every command.
type Flags struct {
	ConfigPath  string
	APIURL      string
	RealtimeURL string
	DBPath      string
	LogLevel    string
	LogFormat   string
	Timezone    string
}

// Bind registers the override flags on fs.
func (f *Flags) Bind(fs *pflag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "config", "", "config file (default $HRA_CONFIG or ~/.hra/config.yaml)")
	fs.StringVar(&f.APIURL, "api-url", "", "REST base URL, e.g. http://localhost:5000/api")
	fs.StringVar(&f.RealtimeURL, "realtime-url", "", "realtime server URL")
	fs.StringVar(&f.DBPath, "db", "", "session database path")
	fs.StringVar(&f.LogLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&f.LogFormat, "log-format", "", "auto, text or json")
	fs.StringVar(&f.Timezone, "timezone", "", "IANA zone used for \"today\"")
}

// Load resolves the configuration. A missing default config file is not an
// error; a missing file named explicitly is.
func Load(flags Flags) (Config, error) {
	cfg := DefaultConfig()

	path, explicit := flags.ConfigPath, flags.ConfigPath != ""
	if !explicit {
		path = DefaultPath()
		explicit = os.Getenv("HRA_CONFIG") != ""
	}
	if err := cfg.readFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return cfg, err
		}
	} else {
		cfg.Path = path
	}

	cfg.applyEnv()
	cfg.applyFlags(flags)
	return cfg, cfg.Validate()
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("HRA_API_URL"); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv("HRA_REALTIME_URL"); v != "" {
		c.RealtimeURL = v
	}
	if v := os.Getenv("HRA_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("HRA_TIMEZONE"); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv("HRA_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("HRA_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("HRA_LOG_FILE"); v != "" {
		c.LogFile = v
	}
	if v := os.Getenv("HRA_REQUEST_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.RequestTimeoutMs = n
		}
	}
	if v := os.Getenv("HRA_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.MaxRetries = n
		}
	}
	if v := os.Getenv("HRA_REALTIME_TRANSPORTS"); v != "" {
		var list []string
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				list = append(list, t)
			}
		}
		c.Realtime.Transports = list
	}
	if v := os.Getenv("HRA_RECONNECT_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Realtime.ReconnectAttempts = n
		}
	}
}

func (c *Config) applyFlags(f Flags) {
	if f.APIURL != "" {
		c.APIURL = f.APIURL
	}
	if f.RealtimeURL != "" {
		c.RealtimeURL = f.RealtimeURL
	}
	if f.DBPath != "" {
		c.DBPath = f.DBPath
	}
	if f.LogLevel != "" {
		c.LogLevel = f.LogLevel
	}
	if f.LogFormat != "" {
		c.LogFormat = f.LogFormat
	}
	if f.Timezone != "" {
		c.Timezone = f.Timezone
	}
}

// Validate rejects settings no component could run with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.APIURL) == "" {
		errs = append(errs, errors.New("api_url is required"))
	}
	if _, err := realtime.Endpoint(c.RealtimeURL, ""); err != nil {
		errs = append(errs, err)
	}
	if _, err := domain.LoadZone(c.Timezone); err != nil {
		errs = append(errs, err)
	}
	for _, t := range c.Realtime.Transports {
		if t != realtime.TransportWebSocket && t != realtime.TransportPolling {
			errs = append(errs, fmt.Errorf("realtime.transports: unknown transport %q", t))
		}
	}
	if c.Realtime.DelayMinMs < 0 || c.Realtime.DelayMaxMs < 0 || c.Realtime.RequestTimeoutMs < 0 {
		errs = append(errs, errors.New("realtime delays must not be negative"))
	}
	if c.Realtime.Randomization < 0 || c.Realtime.Randomization > 1 {
		errs = append(errs, errors.New("realtime.randomization must be within [0, 1]"))
	}
	return errors.Join(errs...)
}

// API converts to the gateway settings.
func (c Config) API() api.Config {
	out := api.DefaultConfig()
	out.BaseURL = strings.TrimRight(c.APIURL, "/")
	if c.RequestTimeoutMs > 0 {
		out.TimeoutMs = c.RequestTimeoutMs
	}
	out.MaxRetries = c.MaxRetries
	return out
}

// RealtimeChannel converts to the realtime client settings.
func (c Config) RealtimeChannel() realtime.Config {
	out := realtime.DefaultConfig()
	out.URL = c.RealtimeURL
	if len(c.Realtime.Transports) > 0 {
		out.Transports = c.Realtime.Transports
	}
	out.ReconnectAttempts = c.Realtime.ReconnectAttempts
	if c.Realtime.DelayMinMs > 0 {
		out.DelayMin = time.Duration(c.Realtime.DelayMinMs) * time.Millisecond
	}
	if c.Realtime.DelayMaxMs > 0 {
		out.DelayMax = time.Duration(c.Realtime.DelayMaxMs) * time.Millisecond
	}
	out.Randomization = c.Realtime.Randomization
	if c.Realtime.RequestTimeoutMs > 0 {
		out.RequestTimeout = time.Duration(c.Realtime.RequestTimeoutMs) * time.Millisecond
	}
	return out
}

// Location is the canonical zone for "today". Validate has already
// rejected unknown names.
func (c Config) Location() *time.Location {
	loc, err := domain.LoadZone(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Clock is a domain clock in the canonical zone.
func (c Config) Clock() domain.Clock {
	return domain.NewClock(c.Location())
}
