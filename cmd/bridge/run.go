package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"jklm-bridge/internal/adapter/browser"
	"jklm-bridge/internal/adapter/endpoint"
	"jklm-bridge/internal/adapter/tui/panel"
	"jklm-bridge/internal/domain"
	"jklm-bridge/internal/infra/config"
	"jklm-bridge/internal/infra/logger"
	"jklm-bridge/internal/infra/tracer"
	"jklm-bridge/internal/usecase"
	"jklm-bridge/internal/usecase/relay"
)

// panelLogPath receives the main log while the panel owns the terminal.
const panelLogPath = "bridge.log"

func runBridge(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	settings, err := cfg.NewSettings()
	if err != nil {
		return err
	}

	logCfg := cfg.Logger
	if cfg.Panel.Enabled && logger.IsTerminalOutput(logCfg.Output) {
		logCfg.Output = panelLogPath
	}
	log, closeLog, err := logger.New(logCfg)
	if err != nil {
		return err
	}
	defer closeLog()

	packets, closePackets, err := logger.NewPacketLogger(cfg.PacketLog)
	if err != nil {
		return err
	}
	defer closePackets()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(sctx); err != nil {
			log.Warn("tracer shutdown failed", "error", err)
		}
	}()

	var (
		surface      domain.ControlSurface
		panelSurface *panel.Surface
	)
	if cfg.Panel.Enabled {
		panelSurface = panel.NewSurface()
		surface = panelSurface
	} else {
		surface = usecase.NewLogSurface(log)
	}

	dialer := endpoint.NewDialer(endpoint.Config{
		URL:         cfg.Relay.URL,
		DialTimeout: cfg.Relay.DialTimeout,
	})
	bridge := usecase.NewBridge(dialer, surface, settings, usecase.BridgeConfig{
		Relay: relay.Config{
			ReconnectDelay: cfg.Relay.ReconnectDelay,
			WriteTimeout:   cfg.Relay.WriteTimeout,
			SendBuffer:     cfg.Relay.SendBuffer,
		},
	}, log, usecase.WithPacketLog(packets))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return bridge.Run(gctx) })

	if cfg.Browser.Enabled {
		page, err := browser.Open(gctx, browserConfig(cfg.Browser), bridge, log)
		if err != nil {
			cancel()
			_ = g.Wait()
			return fmt.Errorf("open game page: %w", err)
		}
		defer page.Close()
		g.Go(func() error {
			select {
			case <-page.Done():
				if gctx.Err() == nil {
					log.Warn("game page closed, shutting down")
				}
				cancel()
			case <-gctx.Done():
			}
			return nil
		})
	} else {
		log.Info("browser disabled, no game page attached")
	}

	if panelSurface != nil {
		g.Go(func() error {
			defer cancel()
			return panel.Run(gctx, panelSurface, bridge)
		})
	}

	log.Info("bridge started",
		slog.String("relay_url", cfg.Relay.URL),
		slog.Bool("browser", cfg.Browser.Enabled),
		slog.Bool("panel", cfg.Panel.Enabled),
	)
	return g.Wait()
}

func browserConfig(c config.BrowserConfig) browser.Config {
	return browser.Config{
		GameURL:            c.GameURL,
		RemoteURL:          c.RemoteURL,
		Headless:           c.Headless,
		NoSandbox:          c.NoSandbox,
		Timeout:            c.Timeout,
		BreakerMaxFailures: c.BreakerMaxFailures,
		BreakerTimeout:     c.BreakerTimeout,
	}
}
