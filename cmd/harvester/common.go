package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonathan/resume-harvester/internal/config"
	"github.com/jonathan/resume-harvester/internal/harvest"
	"github.com/jonathan/resume-harvester/internal/identity"
	"github.com/jonathan/resume-harvester/internal/logging"
	"github.com/jonathan/resume-harvester/internal/session"
)

// setup loads and validates configuration, initializes logging, and builds
// the orchestrator. The returned cleanup closes the log file.
func setup(useBrowser, verbose bool) (*config.Config, *harvest.Orchestrator, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if useBrowser {
		cfg.UseBrowser = true
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}
	if err := cfg.CreateDirectories(); err != nil {
		return nil, nil, nil, err
	}

	closeLogs, err := logging.Init(logging.Options{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		LogsDir: cfg.LogsDir,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	cleanup := func() { _ = closeLogs() }

	client, err := session.New(cfg)
	if err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	return cfg, harvest.New(cfg, client), cleanup, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM so a run
// can finish its report before the process exits.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ch
		slog.Warn("interrupt received, finishing current entity and shutting down")
		cancel()
	}()
	return ctx, cancel
}

func parseKind(kind string) (identity.Kind, error) {
	switch kind {
	case "candidate", "":
		return identity.KindCandidate, nil
	case "case":
		return identity.KindCase, nil
	default:
		return "", fmt.Errorf("unknown kind %q (expected candidate or case)", kind)
	}
}
