package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phuonglab/marionette-firmware/internal/api"
	"github.com/phuonglab/marionette-firmware/internal/audit"
	"github.com/phuonglab/marionette-firmware/internal/config"
	"github.com/phuonglab/marionette-firmware/internal/fetch"
	"github.com/phuonglab/marionette-firmware/internal/fetch/dac"
	"github.com/phuonglab/marionette-firmware/internal/fetch/gpio"
	"github.com/phuonglab/marionette-firmware/internal/hw/sim"
	"github.com/phuonglab/marionette-firmware/internal/lock"
	"github.com/phuonglab/marionette-firmware/internal/log"
	"github.com/phuonglab/marionette-firmware/internal/msg"
	"github.com/phuonglab/marionette-firmware/internal/session"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "start":
		os.Exit(runStart(args))
	case "config":
		os.Exit(runConfigNoun(args))
	case "version":
		fmt.Printf("fetchd version %s\n", version)
		os.Exit(0)
	case "help", "--help", "-h":
		printUsage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`fetchd - Marionette instrument-control daemon

Usage:
  fetchd <command> [flags]

Commands:
  start            Run the daemon in the foreground
  config lock      Authorize current config (update integrity hash)
  config check     Verify config syntax and integrity
  version          Show version information
  help             Show this help message

Flags for start and config commands:
  --config PATH    Path to the YAML configuration file
`)
}

func runConfigNoun(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: fetchd config <lock|check> [--config PATH]")
		return 1
	}

	action := args[0]
	fs := flag.NewFlagSet("config "+action, flag.ExitOnError)
	configPath := fs.String("config", "fetchd.yaml", "Path to configuration file")
	if err := fs.Parse(args[1:]); err != nil {
		return 1
	}

	switch action {
	case "lock", "hash-update":
		if _, err := config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Config invalid, refusing to lock: %v\n", err)
			return 1
		}
		sum, err := config.WriteChecksum(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write checksum: %v\n", err)
			return 1
		}
		fmt.Printf("Locked %s (blake3 %s)\n", *configPath, sum)
		return 0
	case "check":
		if _, err := config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Config check FAILED: %v\n", err)
			return 1
		}
		if err := config.VerifyChecksum(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Integrity check FAILED: %v\n", err)
			return 1
		}
		fmt.Println("Config check PASSED.")
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", action)
		return 1
	}
}

// verifyConfigIntegrity checks the config file against its stored checksum.
// A missing checksum only warns; a mismatch refuses startup.
func verifyConfigIntegrity(logger *slog.Logger, path string) bool {
	err := config.VerifyChecksum(path)
	switch {
	case err == nil:
		logger.Info("config integrity verified", "config", path)
		return true
	case errors.Is(err, config.ErrChecksumMissing):
		logger.Warn("config integrity not verified", "error", err)
		return true
	default:
		logger.Error("config integrity check failed", "error", err)
		return false
	}
}

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			return 1
		}
		cfg = loaded
	}

	log.Setup(cfg.Log.Level, log.FileOptions{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	logger := log.WithComponent("main")
	logger.Info("fetchd starting", "version", version, "config", *configPath)

	if *configPath != "" && !verifyConfigIntegrity(logger, *configPath) {
		return 1
	}

	if cfg.Service.PIDFile != "" {
		pidLock, err := lock.Acquire(cfg.Service.PIDFile)
		if err != nil {
			logger.Error("failed to acquire PID lock", "path", cfg.Service.PIDFile, "error", err)
			return 1
		}
		defer pidLock.Release()
		logger.Info("acquired PID lock", "path", pidLock.Path())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var modules []fetch.Module
	if cfg.Modules.GPIO.Enabled {
		modules = append(modules, gpio.NewModule(sim.NewGPIO()))
	}
	if cfg.Modules.DAC.Enabled {
		modules = append(modules, dac.NewModule(sim.NewDAC()))
	}
	engine := fetch.NewEngine(version, modules...)
	logger.Info("command engine ready", "modules", len(modules))

	var store *audit.Store
	var recorder session.Recorder
	if cfg.Audit.Enabled {
		var err error
		store, err = audit.Open(ctx, cfg.Audit.Path)
		if err != nil {
			logger.Error("failed to open audit store", "path", cfg.Audit.Path, "error", err)
			return 1
		}
		defer store.Close()
		recorder = store
		logger.Info("audit store opened", "path", cfg.Audit.Path)
	}

	gate := msg.NewGate(cfg.Output.GateScope)
	srv := session.New(session.Config{
		Listen:        cfg.Service.Listen,
		Prompt:        cfg.Session.Prompt,
		MaxLineLength: cfg.Session.MaxLineLength,
	}, engine, gate, recorder)

	if err := srv.Start(ctx); err != nil {
		logger.Error("failed to start session server", "listen", cfg.Service.Listen, "error", err)
		return 1
	}
	logger.Info("session server listening", "addr", srv.Addr().String())

	errCh := make(chan error, 1)
	if cfg.API.Enabled {
		var auditor api.AuditReader
		if store != nil {
			auditor = store
		}
		apiServer := api.New(api.Config{Listen: cfg.API.Listen}, engine, auditor)
		go func() {
			if err := apiServer.Start(ctx); err != nil && err != context.Canceled {
				errCh <- fmt.Errorf("api: %w", err)
			}
		}()
		logger.Info("API server enabled", "listen", cfg.API.Listen)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("fetchd running (press Ctrl+C to stop)")

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		logger.Error("component failed", "error", err)
		cancel()
		_ = srv.Shutdown()
		return 1
	}

	cancel()
	if err := srv.Shutdown(); err != nil {
		logger.Warn("session server shutdown", "error", err)
	}
	logger.Info("fetchd stopped")
	return 0
}
