package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"jklm-bridge/internal/infra/config"
)

var rootCmd = &cobra.Command{
	Use:   "jklm-bridge",
	Short: "Relay bridge between a JKLM.fun game page and an automation endpoint",
	Long: `jklm-bridge hooks the game's socket inside a browser tab, relays selected
game events to an automation endpoint over WebSocket and executes the
commands it sends back.

Environment: JKLMBRIDGE_* variables override the config file.`,
	SilenceUsage: true,
	RunE:         runBridge,
}

var (
	flagConfig    string
	flagRelayURL  string
	flagGameURL   string
	flagNoBrowser bool
	flagNoPanel   bool
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagConfig, "config", config.DefaultPath, "config file path")
	flags.StringVar(&flagRelayURL, "relay-url", "", "automation endpoint WebSocket URL (overrides relay.url)")
	flags.StringVar(&flagGameURL, "game-url", "", "game page to open (overrides browser.game_url)")
	flags.BoolVar(&flagNoBrowser, "no-browser", false, "do not attach to a game page")
	flags.BoolVar(&flagNoPanel, "no-panel", false, "log status instead of showing the control panel")

	rootCmd.AddCommand(runCmd, configCmd, schemaCmd, doctorCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bridge (default)",
	RunE:  runBridge,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("relay-url") {
		cfg.Relay.URL = flagRelayURL
	}
	if flags.Changed("game-url") {
		cfg.Browser.GameURL = flagGameURL
	}
	if flagNoBrowser {
		cfg.Browser.Enabled = false
	}
	if flagNoPanel {
		cfg.Panel.Enabled = false
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
