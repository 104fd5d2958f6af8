package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	huidu "github.com/alparslanahmed/huidu-client"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default configuration must be valid: %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *Config)
		errorMsg string
	}{
		{
			name:     "invalid port",
			mutate:   func(c *Config) { c.Network.Port = 70000 },
			errorMsg: "network config: port",
		},
		{
			name:     "broadcast without port",
			mutate:   func(c *Config) { c.Network.BroadcastAddress = "255.255.255.255" },
			errorMsg: "broadcast_address",
		},
		{
			name:     "zero drain timeout",
			mutate:   func(c *Config) { c.Network.DrainTimeout = 0 },
			errorMsg: "drain_timeout must be positive",
		},
		{
			name:     "bad device port",
			mutate:   func(c *Config) { c.Network.Devices = []string{"10.0.0.5:abc"} },
			errorMsg: "invalid port",
		},
		{
			name:     "no device capacity",
			mutate:   func(c *Config) { c.Limits.MaxDevices = 0 },
			errorMsg: "limits config: max_devices",
		},
		{
			name:     "tiny response limit",
			mutate:   func(c *Config) { c.Limits.MaxResponseSize = 4 },
			errorMsg: "max_response_size",
		},
		{
			name:     "bad color",
			mutate:   func(c *Config) { c.Text.Color = "red" },
			errorMsg: "text config: color",
		},
		{
			name:     "non-hex color",
			mutate:   func(c *Config) { c.Text.Color = "#gg0000" },
			errorMsg: "color must be #RRGGBB",
		},
		{
			name:     "short metrics interval",
			mutate:   func(c *Config) { c.Metrics.Interval = time.Millisecond },
			errorMsg: "metrics config: interval",
		},
		{
			name:     "unknown log level",
			mutate:   func(c *Config) { c.Logging.Level = "verbose" },
			errorMsg: "logging config: level",
		},
		{
			name:     "unknown log format",
			mutate:   func(c *Config) { c.Logging.Format = "xml" },
			errorMsg: "format must be text or json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			if err == nil {
				t.Fatalf("Expected error but got none")
			}
			if !strings.Contains(err.Error(), tt.errorMsg) {
				t.Errorf("Expected error to contain '%s', got '%s'", tt.errorMsg, err.Error())
			}
		})
	}
}

func TestConfigLoad(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		name        string
		configYAML  string
		expectError bool
		errorMsg    string
		check       func(t *testing.T, c *Config)
	}{
		{
			name: "partial file keeps defaults",
			configYAML: `
network:
  port: 10002
  scan_timeout: 500ms
  devices:
    - 192.168.6.1
    - 192.168.6.2:10005
limits:
  max_programs: 8
text:
  color: "#00ff00"
`,
			check: func(t *testing.T, c *Config) {
				if c.Network.Port != 10002 {
					t.Errorf("Expected port 10002, got %d", c.Network.Port)
				}
				if c.Network.ScanTimeout != 500*time.Millisecond {
					t.Errorf("Expected scan timeout 500ms, got %s", c.Network.ScanTimeout)
				}
				if len(c.Network.Devices) != 2 {
					t.Errorf("Expected 2 devices, got %v", c.Network.Devices)
				}
				if c.Limits.MaxPrograms != 8 {
					t.Errorf("Expected max programs 8, got %d", c.Limits.MaxPrograms)
				}
				if c.Limits.MaxDevices != huidu.DefaultMaxDevices {
					t.Errorf("Expected default max devices, got %d", c.Limits.MaxDevices)
				}
				if c.Network.ResponseTimeout != huidu.DefaultResponseTimeout {
					t.Errorf("Expected default response timeout, got %s", c.Network.ResponseTimeout)
				}
				if c.Text.Color != huidu.ColorGreen {
					t.Errorf("Expected green, got %s", c.Text.Color)
				}
			},
		},
		{
			name: "invalid YAML syntax",
			configYAML: `
network:
  port: not_a_number
`,
			expectError: true,
			errorMsg:    "failed to parse config file",
		},
		{
			name: "invalid values",
			configYAML: `
limits:
  max_devices: -1
`,
			expectError: true,
			errorMsg:    "config validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tempDir, strings.ReplaceAll(tt.name, " ", "_")+".yaml")
			if err := os.WriteFile(path, []byte(tt.configYAML), 0644); err != nil {
				t.Fatalf("Failed to write config file: %v", err)
			}

			c, err := Load(path, "")
			if tt.expectError {
				if err == nil {
					t.Fatalf("Expected error but got none")
				}
				if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error to contain '%s', got '%s'", tt.errorMsg, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error but got: %v", err)
			}
			tt.check(t, c)
		})
	}

	if _, err := Load(filepath.Join(tempDir, "missing.yaml"), ""); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestConfigEnvironmentOverrides(t *testing.T) {
	t.Setenv("HD_NETWORK_PORT", "10010")
	t.Setenv("HD_NETWORK_RESPONSE_TIMEOUT", "1500ms")
	t.Setenv("HD_NETWORK_DEVICES", "10.0.0.1,10.0.0.2:9000")
	t.Setenv("HD_LIMITS_MAX_DEVICES", "2")

	c, err := Load("", "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Network.Port != 10010 {
		t.Errorf("Expected port 10010, got %d", c.Network.Port)
	}
	if c.Network.ResponseTimeout != 1500*time.Millisecond {
		t.Errorf("Expected 1.5s response timeout, got %s", c.Network.ResponseTimeout)
	}
	if len(c.Network.Devices) != 2 || c.Network.Devices[1] != "10.0.0.2:9000" {
		t.Errorf("Unexpected devices %v", c.Network.Devices)
	}
	if c.Limits.MaxDevices != 2 {
		t.Errorf("Expected max devices 2, got %d", c.Limits.MaxDevices)
	}
}

func TestConfigEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("HD_LOGGING_LEVEL=debug\n"), 0644); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("HD_LOGGING_LEVEL") })

	c, err := Load("", envFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Logging.Level != "debug" {
		t.Errorf("Expected level from env file, got %s", c.Logging.Level)
	}

	// Eksik .env dosyası hata değildir.
	if _, err := Load("", filepath.Join(dir, "absent.env")); err != nil {
		t.Errorf("Missing env file should be ignored, got %v", err)
	}
}

func TestSplitDevice(t *testing.T) {
	n := Default().Network

	tests := []struct {
		entry       string
		host        string
		port        int
		expectError bool
	}{
		{entry: "192.168.6.1", host: "192.168.6.1", port: huidu.DefaultPort},
		{entry: "192.168.6.1:10005", host: "192.168.6.1", port: 10005},
		{entry: "led.local", host: "led.local", port: huidu.DefaultPort},
		{entry: "192.168.6.1:0", expectError: true},
		{entry: "", expectError: true},
	}

	for _, tt := range tests {
		host, port, err := n.SplitDevice(tt.entry)
		if tt.expectError {
			if err == nil {
				t.Errorf("%q: expected error", tt.entry)
			}
			continue
		}
		if err != nil || host != tt.host || port != tt.port {
			t.Errorf("%q: got %s %d %v", tt.entry, host, port, err)
		}
	}
}

func TestClientOptions(t *testing.T) {
	c := Default()
	c.Limits.MaxDevices = 1
	client := huidu.NewClient(c.ClientOptions()...)

	if _, err := client.AddDevice("10.0.0.1", 0); err != nil {
		t.Fatalf("AddDevice failed: %v", err)
	}
	if _, err := client.AddDevice("10.0.0.2", 0); err == nil {
		t.Error("Expected capacity from config to be applied")
	}

	tc := c.Text.TextConfig()
	if tc.FontName != "Arial" || tc.FontSize != 12 || tc.Color != huidu.ColorRed {
		t.Errorf("Unexpected text config %+v", tc)
	}
	if c.Logging.SlogLevel().String() != "INFO" {
		t.Errorf("Unexpected level %s", c.Logging.SlogLevel())
	}
}
