// Package config loads hdctl settings from a YAML file, an optional .env file
// and HD_* environment variables, in that order of precedence (lowest first).
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	huidu "github.com/alparslanahmed/huidu-client"
)

// EnvPrefix is the prefix for environment overrides, e.g. HD_NETWORK_PORT.
const EnvPrefix = "hd"

// Config represents the complete hdctl configuration
type Config struct {
	Network NetworkConfig `yaml:"network"`
	Limits  LimitsConfig  `yaml:"limits"`
	Text    TextConfig    `yaml:"text"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// NetworkConfig contains discovery and session settings
type NetworkConfig struct {
	Port             int           `yaml:"port"`
	BroadcastAddress string        `yaml:"broadcast_address" split_words:"true"`
	Timeout          time.Duration `yaml:"timeout"`
	ResponseTimeout  time.Duration `yaml:"response_timeout" split_words:"true"`
	DrainTimeout     time.Duration `yaml:"drain_timeout" split_words:"true"`
	ScanTimeout      time.Duration `yaml:"scan_timeout" split_words:"true"`
	// Devices are host[:port] entries registered instead of scanning.
	Devices []string `yaml:"devices"`
}

// LimitsConfig contains capacity limits
type LimitsConfig struct {
	MaxDevices      int `yaml:"max_devices" split_words:"true"`
	MaxPrograms     int `yaml:"max_programs" split_words:"true"`
	MaxResponseSize int `yaml:"max_response_size" split_words:"true"`
}

// TextConfig contains the default look of text updates
type TextConfig struct {
	Font     string `yaml:"font"`
	Size     int    `yaml:"size"`
	Color    string `yaml:"color"`
	Effect   int    `yaml:"effect"`
	Speed    int    `yaml:"speed"`
	Duration int    `yaml:"duration"` // seconds
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
}

// MetricsConfig contains the Prometheus endpoint used by `hdctl watch`
type MetricsConfig struct {
	Address  string        `yaml:"address"`
	Interval time.Duration `yaml:"interval"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Network: NetworkConfig{
			Port:             huidu.DefaultPort,
			BroadcastAddress: huidu.DefaultBroadcastAddress,
			Timeout:          huidu.DefaultTimeout,
			ResponseTimeout:  huidu.DefaultResponseTimeout,
			DrainTimeout:     huidu.DefaultDrainTimeout,
			ScanTimeout:      huidu.DefaultScanTimeout,
		},
		Limits: LimitsConfig{
			MaxDevices:      huidu.DefaultMaxDevices,
			MaxPrograms:     huidu.DefaultMaxPrograms,
			MaxResponseSize: huidu.DefaultMaxResponseSize,
		},
		Text: TextConfig{
			Font:     "Arial",
			Size:     12,
			Color:    huidu.ColorRed,
			Speed:    4,
			Duration: 3,
			Width:    64,
			Height:   32,
		},
		Metrics: MetricsConfig{
			Address:  ":9110",
			Interval: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// any), then variables from envFile (if it exists), then HD_* variables.
func Load(path, envFile string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if envFile != "" {
		// godotenv never overrides variables that are already set.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, config); err != nil {
		return nil, fmt.Errorf("failed to read config from environment: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate performs validation of every section
func (c *Config) Validate() error {
	if err := c.Network.Validate(); err != nil {
		return fmt.Errorf("network config: %w", err)
	}
	if err := c.Limits.Validate(); err != nil {
		return fmt.Errorf("limits config: %w", err)
	}
	if err := c.Text.Validate(); err != nil {
		return fmt.Errorf("text config: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	return nil
}

// Validate validates network configuration
func (n *NetworkConfig) Validate() error {
	if n.Port < 1 || n.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", n.Port)
	}
	if _, _, err := net.SplitHostPort(n.BroadcastAddress); err != nil {
		return fmt.Errorf("broadcast_address must be host:port, got %q", n.BroadcastAddress)
	}
	for name, d := range map[string]time.Duration{
		"timeout":          n.Timeout,
		"response_timeout": n.ResponseTimeout,
		"drain_timeout":    n.DrainTimeout,
		"scan_timeout":     n.ScanTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	for _, dev := range n.Devices {
		if _, _, err := n.SplitDevice(dev); err != nil {
			return err
		}
	}
	return nil
}

// SplitDevice parses a host[:port] entry; a missing port means Port.
func (n *NetworkConfig) SplitDevice(entry string) (string, int, error) {
	if entry == "" {
		return "", 0, fmt.Errorf("device entry cannot be empty")
	}
	host, portStr, err := net.SplitHostPort(entry)
	if err != nil {
		return entry, n.Port, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("device %q has invalid port", entry)
	}
	return host, port, nil
}

// Validate validates capacity limits
func (l *LimitsConfig) Validate() error {
	if l.MaxDevices < 1 {
		return fmt.Errorf("max_devices must be at least 1, got %d", l.MaxDevices)
	}
	if l.MaxPrograms < 1 {
		return fmt.Errorf("max_programs must be at least 1, got %d", l.MaxPrograms)
	}
	if l.MaxResponseSize < huidu.HeaderSize {
		return fmt.Errorf("max_response_size must be at least %d bytes, got %d", huidu.HeaderSize, l.MaxResponseSize)
	}
	return nil
}

// Validate validates text defaults
func (t *TextConfig) Validate() error {
	if t.Size < 1 {
		return fmt.Errorf("size must be positive, got %d", t.Size)
	}
	if len(t.Color) != 7 || t.Color[0] != '#' {
		return fmt.Errorf("color must be #RRGGBB, got %q", t.Color)
	}
	if _, err := strconv.ParseUint(t.Color[1:], 16, 32); err != nil {
		return fmt.Errorf("color must be #RRGGBB, got %q", t.Color)
	}
	if t.Width < 1 || t.Height < 1 {
		return fmt.Errorf("area must be at least 1x1, got %dx%d", t.Width, t.Height)
	}
	return nil
}

// Validate validates the metrics endpoint
func (m *MetricsConfig) Validate() error {
	if m.Address == "" {
		return fmt.Errorf("address cannot be empty")
	}
	if m.Interval < time.Second {
		return fmt.Errorf("interval must be at least 1s, got %s", m.Interval)
	}
	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("level must be one of debug, info, warn, error, got %q", l.Level)
	}
	switch l.Format {
	case "text", "json":
	default:
		return fmt.Errorf("format must be text or json, got %q", l.Format)
	}
	return nil
}

// SlogLevel converts Level to a slog.Level
func (l *LoggingConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ClientOptions converts the configuration to library options.
func (c *Config) ClientOptions() []huidu.Option {
	return []huidu.Option{
		huidu.WithPort(c.Network.Port),
		huidu.WithBroadcastAddress(c.Network.BroadcastAddress),
		huidu.WithTimeout(c.Network.Timeout),
		huidu.WithResponseTimeout(c.Network.ResponseTimeout),
		huidu.WithDrainTimeout(c.Network.DrainTimeout),
		huidu.WithScanTimeout(c.Network.ScanTimeout),
		huidu.WithMaxDevices(c.Limits.MaxDevices),
		huidu.WithMaxPrograms(c.Limits.MaxPrograms),
		huidu.WithMaxResponseSize(c.Limits.MaxResponseSize),
		huidu.WithTextConfig(c.Text.TextConfig()),
		huidu.WithTextArea(huidu.Rect{Width: c.Text.Width, Height: c.Text.Height}),
	}
}

// TextConfig converts the text defaults to a huidu.TextConfig
func (t *TextConfig) TextConfig() huidu.TextConfig {
	return huidu.TextConfig{
		FontName: t.Font,
		FontSize: t.Size,
		Color:    t.Color,
		Effect:   huidu.EffectType(t.Effect),
		Speed:    t.Speed,
		Duration: t.Duration,
	}
}
