package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDefaultsPass(t *testing.T) {
	require.NoError(t, Validate(Defaults()))
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty relay url", func(c *Config) { c.Relay.URL = "" }, "relay.url must not be empty"},
		{"http relay url", func(c *Config) { c.Relay.URL = "http://localhost:8765" }, "ws:// or wss://"},
		{"zero reconnect delay", func(c *Config) { c.Relay.ReconnectDelay = 0 }, "relay.reconnect_delay"},
		{"zero send buffer", func(c *Config) { c.Relay.SendBuffer = 0 }, "relay.send_buffer"},
		{"bad game url", func(c *Config) { c.Browser.GameURL = "ftp://jklm.fun" }, "browser.game_url"},
		{"bad remote url", func(c *Config) { c.Browser.RemoteURL = "localhost:9222" }, "browser.remote_url"},
		{"zero breaker failures", func(c *Config) { c.Browser.BreakerMaxFailures = 0 }, "browser.breaker_max_failures"},
		{"unknown setting", func(c *Config) { c.Settings = map[string]any{"volume": 3} }, "settings.volume: unknown setting"},
		{"wrong setting kind", func(c *Config) { c.Settings = map[string]any{"active": "yes"} }, "settings.active"},
		{"bad log level", func(c *Config) { c.Logger.Level = "verbose" }, "logger.level"},
		{"bad log format", func(c *Config) { c.Logger.Format = "xml" }, "logger.format"},
		{"packet log without path", func(c *Config) {
			c.PacketLog.Enabled = true
			c.PacketLog.Path = ""
		}, "packet_log.path"},
		{"unknown exporter", func(c *Config) {
			c.Tracer.Enabled = true
			c.Tracer.Exporter = "jaeger"
		}, "tracer.exporter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestValidateSkipsDisabledBrowser(t *testing.T) {
	cfg := Defaults()
	cfg.Browser.Enabled = false
	cfg.Browser.Timeout = 0
	assert.NoError(t, Validate(cfg))
}

func TestValidateAccumulates(t *testing.T) {
	cfg := Defaults()
	cfg.Relay.URL = ""
	cfg.Relay.WriteTimeout = 0
	cfg.Logger.Level = "loud"

	err := Validate(cfg)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Errors, 3)
}
