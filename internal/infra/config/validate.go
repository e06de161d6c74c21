package config

import (
	"fmt"
	"net/url"
	"strings"

	"jklm-bridge/internal/domain"
)

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate checks cfg for structural correctness. It returns a *ValidationError
// when one or more problems are found, allowing callers to inspect all issues.
func Validate(cfg *Config) error {
	ve := &ValidationError{}
	validateRelay(cfg, ve)
	validateBrowser(cfg, ve)
	validateSettings(cfg, ve)
	validateLogger(cfg, ve)
	validateTracer(cfg, ve)
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateRelay(cfg *Config, ve *ValidationError) {
	r := cfg.Relay
	u, err := url.Parse(r.URL)
	switch {
	case r.URL == "":
		ve.Add("relay.url must not be empty")
	case err != nil:
		ve.Add("relay.url %q: %v", r.URL, err)
	case u.Scheme != "ws" && u.Scheme != "wss":
		ve.Add("relay.url must use ws:// or wss://, got %q", r.URL)
	}
	if r.ReconnectDelay <= 0 {
		ve.Add("relay.reconnect_delay must be > 0")
	}
	if r.DialTimeout <= 0 {
		ve.Add("relay.dial_timeout must be > 0")
	}
	if r.WriteTimeout <= 0 {
		ve.Add("relay.write_timeout must be > 0")
	}
	if r.SendBuffer <= 0 {
		ve.Add("relay.send_buffer must be > 0")
	}
}

func validateBrowser(cfg *Config, ve *ValidationError) {
	b := cfg.Browser
	if !b.Enabled {
		return
	}
	if b.GameURL != "" {
		if u, err := url.Parse(b.GameURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			ve.Add("browser.game_url must be an http(s) URL, got %q", b.GameURL)
		}
	}
	if b.RemoteURL != "" {
		if u, err := url.Parse(b.RemoteURL); err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
			ve.Add("browser.remote_url must be a ws:// DevTools URL, got %q", b.RemoteURL)
		}
	}
	if b.Timeout <= 0 {
		ve.Add("browser.timeout must be > 0")
	}
	if b.BreakerMaxFailures == 0 {
		ve.Add("browser.breaker_max_failures must be > 0")
	}
	if b.BreakerTimeout <= 0 {
		ve.Add("browser.breaker_timeout must be > 0")
	}
}

func validateSettings(cfg *Config, ve *ValidationError) {
	for key, v := range cfg.Settings {
		spec, ok := domain.LookupSetting(key)
		if !ok {
			ve.Add("settings.%s: unknown setting", key)
			continue
		}
		if _, err := spec.Coerce(v); err != nil {
			ve.Add("settings.%s: want %s, got %v", key, spec.Kind, v)
		}
	}
}

var (
	validLogLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validLogFormats = map[string]bool{"text": true, "json": true}
	validExporters  = map[string]bool{"": true, "noop": true, "stdout": true}
)

func validateLogger(cfg *Config, ve *ValidationError) {
	if !validLogLevels[strings.ToLower(cfg.Logger.Level)] {
		ve.Add("logger.level %q is invalid (want debug, info, warn or error)", cfg.Logger.Level)
	}
	if !validLogFormats[strings.ToLower(cfg.Logger.Format)] {
		ve.Add("logger.format %q is invalid (want text or json)", cfg.Logger.Format)
	}
	if cfg.PacketLog.Enabled && cfg.PacketLog.Path == "" {
		ve.Add("packet_log.path must not be empty when packet_log is enabled")
	}
}

func validateTracer(cfg *Config, ve *ValidationError) {
	if cfg.Tracer.Enabled && !validExporters[cfg.Tracer.Exporter] {
		ve.Add("tracer.exporter %q is not supported", cfg.Tracer.Exporter)
	}
}
