package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"jklm-bridge/internal/domain"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "JKLMBRIDGE_"

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "bridge.yaml"

// Config is the top-level application configuration.
type Config struct {
	Relay     RelayConfig     `yaml:"relay" envPrefix:"RELAY_"`
	Browser   BrowserConfig   `yaml:"browser" envPrefix:"BROWSER_"`
	Settings  map[string]any  `yaml:"settings,omitempty"`
	Logger    LoggerConfig    `yaml:"logger" envPrefix:"LOG_"`
	PacketLog PacketLogConfig `yaml:"packet_log" envPrefix:"PACKET_LOG_"`
	Tracer    TracerConfig    `yaml:"tracer" envPrefix:"TRACER_"`
	Panel     PanelConfig     `yaml:"panel" envPrefix:"PANEL_"`
}

// RelayConfig holds the automation endpoint connection settings.
type RelayConfig struct {
	URL            string        `yaml:"url" env:"URL"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay" env:"RECONNECT_DELAY"`
	DialTimeout    time.Duration `yaml:"dial_timeout" env:"DIAL_TIMEOUT"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	SendBuffer     int           `yaml:"send_buffer" env:"SEND_BUFFER"`
}

// BrowserConfig holds the game page attach settings.
type BrowserConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	GameURL string `yaml:"game_url" env:"GAME_URL"`
	// RemoteURL is the CDP WebSocket endpoint of a running Chrome. If empty,
	// a local Chrome instance is launched.
	RemoteURL          string        `yaml:"remote_url" env:"REMOTE_URL"`
	Headless           bool          `yaml:"headless" env:"HEADLESS"`
	NoSandbox          bool          `yaml:"no_sandbox" env:"NO_SANDBOX"`
	Timeout            time.Duration `yaml:"timeout" env:"TIMEOUT"`
	BreakerMaxFailures uint32        `yaml:"breaker_max_failures" env:"BREAKER_MAX_FAILURES"`
	BreakerTimeout     time.Duration `yaml:"breaker_timeout" env:"BREAKER_TIMEOUT"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
	Output string `yaml:"output" env:"OUTPUT"`
}

// PacketLogConfig holds the raw relay traffic log settings.
type PacketLogConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Path    string `yaml:"path" env:"PATH"`
}

// TracerConfig holds tracing settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled" env:"ENABLED"`
	Exporter string `yaml:"exporter" env:"EXPORTER"`
	// Output is where the stdout exporter writes: stdout, stderr or a file path.
	Output string `yaml:"output" env:"OUTPUT"`
}

// PanelConfig holds terminal control panel settings.
type PanelConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Relay: RelayConfig{
			URL:            "ws://localhost:8765",
			ReconnectDelay: 3 * time.Second,
			DialTimeout:    5 * time.Second,
			WriteTimeout:   5 * time.Second,
			SendBuffer:     64,
		},
		Browser: BrowserConfig{
			Enabled:            true,
			GameURL:            "https://jklm.fun",
			Timeout:            30 * time.Second,
			BreakerMaxFailures: 5,
			BreakerTimeout:     30 * time.Second,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		PacketLog: PacketLogConfig{
			Path: "packets.log",
		},
		Tracer: TracerConfig{
			Exporter: "noop",
			Output:   "traces.log",
		},
		Panel: PanelConfig{
			Enabled: true,
		},
	}
}

// Load reads the config file at path on top of the defaults, applies
// environment overrides and validates the result. A missing file is not an
// error.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve config path: %w", err)
		}
		if err := validatePermissions(absPath); err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := ApplyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides maps JKLMBRIDGE_* env vars onto cfg. Unset variables
// leave the current value alone.
func ApplyEnvOverrides(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// NewSettings returns the operator settings with the configured overrides
// applied on top of the schema defaults.
func (c *Config) NewSettings() (*domain.Settings, error) {
	s := domain.NewSettings()
	for key, v := range c.Settings {
		if _, err := s.Set(key, v); err != nil {
			return nil, fmt.Errorf("settings.%s: %w", key, err)
		}
	}
	return s, nil
}

// Marshal renders cfg as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// validatePermissions checks the config file is not writable by others.
func validatePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat config: %w", err)
	}
	mode := info.Mode().Perm()
	if mode&0o022 != 0 {
		return fmt.Errorf("config file %s has insecure permissions %o (want 0600 or 0644)", path, mode)
	}
	return nil
}
