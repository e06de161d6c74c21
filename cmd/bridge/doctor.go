package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"jklm-bridge/internal/adapter/endpoint"
	"jklm-bridge/internal/infra/config"
)

// CheckStatus represents the result of a health check.
type CheckStatus string

const (
	StatusPass CheckStatus = "PASS"
	StatusWarn CheckStatus = "WARN"
	StatusFail CheckStatus = "FAIL"
)

// CheckResult holds the outcome of a single health check.
type CheckResult struct {
	Name    string
	Status  CheckStatus
	Message string
	Fix     string // optional fix suggestion
}

// Check is a named health check function.
type Check struct {
	Name string
	Fn   func(cfg *config.Config) CheckResult
}

const doctorTimeout = 3 * time.Second

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks on the config, the endpoint and the browser",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, cfgErr := loadConfig(cmd)
		checks := []Check{
			{Name: "Config file", Fn: checkConfigFile(flagConfig, cfgErr)},
			{Name: "Automation endpoint", Fn: checkEndpoint},
			{Name: "Chrome", Fn: checkChrome},
			{Name: "Remote DevTools", Fn: checkRemoteBrowser},
		}
		return runDoctor(cmd.OutOrStdout(), cfg, checks)
	},
}

// runDoctor executes checks and reports results to w.
func runDoctor(w io.Writer, cfg *config.Config, checks []Check) error {
	fmt.Fprintln(w, "jklm-bridge doctor")
	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintln(w)

	var pass, warn, fail int
	for _, check := range checks {
		result := check.Fn(cfg)
		result.Name = check.Name

		fmt.Fprintf(w, "  %s %s: %s\n", statusIcon(result.Status), result.Name, result.Message)
		if result.Fix != "" {
			fmt.Fprintf(w, "      Fix: %s\n", result.Fix)
		}

		switch result.Status {
		case StatusPass:
			pass++
		case StatusWarn:
			warn++
		case StatusFail:
			fail++
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("-", 50))
	fmt.Fprintf(w, "Results: %d passed, %d warnings, %d failed\n", pass, warn, fail)

	if fail > 0 {
		return fmt.Errorf("%d check(s) failed", fail)
	}
	return nil
}

func statusIcon(s CheckStatus) string {
	switch s {
	case StatusPass:
		return "[PASS]"
	case StatusWarn:
		return "[WARN]"
	case StatusFail:
		return "[FAIL]"
	default:
		return "[????]"
	}
}

// checkConfigFile reports whether the config file loaded. A missing file is
// only a warning since defaults apply.
func checkConfigFile(cfgPath string, cfgErr error) func(*config.Config) CheckResult {
	return func(_ *config.Config) CheckResult {
		if cfgErr != nil {
			return CheckResult{
				Status:  StatusFail,
				Message: fmt.Sprintf("config error: %v", cfgErr),
				Fix:     "Fix the file or run 'jklm-bridge config' to see the effective values",
			}
		}
		if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
			return CheckResult{
				Status:  StatusWarn,
				Message: fmt.Sprintf("no config file at %s, using defaults", cfgPath),
				Fix:     fmt.Sprintf("jklm-bridge config > %s", cfgPath),
			}
		}
		return CheckResult{
			Status:  StatusPass,
			Message: fmt.Sprintf("config loaded from %s", cfgPath),
		}
	}
}

// checkEndpoint performs one handshake with the automation endpoint. An
// unreachable endpoint is a warning: the bridge keeps retrying on its own.
func checkEndpoint(cfg *config.Config) CheckResult {
	if cfg == nil {
		return CheckResult{Status: StatusWarn, Message: "cannot check, config not loaded"}
	}
	ctx, cancel := context.WithTimeout(context.Background(), doctorTimeout)
	defer cancel()

	conn, err := endpoint.NewDialer(endpoint.Config{URL: cfg.Relay.URL, DialTimeout: doctorTimeout}).Dial(ctx)
	if err != nil {
		return CheckResult{
			Status:  StatusWarn,
			Message: fmt.Sprintf("endpoint %s unreachable", cfg.Relay.URL),
			Fix:     "Start the automation endpoint or set relay.url",
		}
	}
	_ = conn.Close()
	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("handshake with %s OK", cfg.Relay.URL),
	}
}

var chromeBinaries = []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser"}

func checkChrome(cfg *config.Config) CheckResult {
	if cfg != nil && !cfg.Browser.Enabled {
		return CheckResult{Status: StatusPass, Message: "browser disabled, Chrome not required"}
	}
	if cfg != nil && cfg.Browser.RemoteURL != "" {
		return CheckResult{Status: StatusPass, Message: "using a remote browser, local Chrome not required"}
	}
	for _, name := range chromeBinaries {
		if path, err := exec.LookPath(name); err == nil {
			return CheckResult{
				Status:  StatusPass,
				Message: fmt.Sprintf("found %s at %s", name, path),
			}
		}
	}
	return CheckResult{
		Status:  StatusFail,
		Message: "Chrome not found but the browser is enabled",
		Fix:     "Install Chrome or Chromium, set browser.remote_url, or pass --no-browser",
	}
}

func checkRemoteBrowser(cfg *config.Config) CheckResult {
	if cfg == nil || !cfg.Browser.Enabled || cfg.Browser.RemoteURL == "" {
		return CheckResult{Status: StatusPass, Message: "not configured"}
	}
	u, err := url.Parse(cfg.Browser.RemoteURL)
	if err != nil {
		return CheckResult{Status: StatusFail, Message: fmt.Sprintf("invalid remote_url: %v", err)}
	}
	var d net.Dialer
	ctx, cancel := context.WithTimeout(context.Background(), doctorTimeout)
	defer cancel()
	conn, err := d.DialContext(ctx, "tcp", u.Host)
	if err != nil {
		return CheckResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("DevTools at %s unreachable", u.Host),
			Fix:     "Start Chrome with --remote-debugging-port or clear browser.remote_url",
		}
	}
	conn.Close()
	return CheckResult{Status: StatusPass, Message: fmt.Sprintf("DevTools reachable at %s", u.Host)}
}
