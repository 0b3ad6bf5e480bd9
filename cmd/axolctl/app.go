package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/karlicoss/axol/examplefeeds"
	"github.com/karlicoss/axol/internal/config"
	"github.com/karlicoss/axol/internal/provider"
	"github.com/karlicoss/axol/internal/userconfig"
)

// appState holds the process-wide dependencies every subcommand needs:
// config (ambient process settings), a structured logger, the shared
// per-PREFIX rate limiter registry, and the user's declared feed list. It
// is constructed once in PersistentPreRunE rather than read from global
// mutable state.
type appState struct {
	logLevelFlag   string
	storageDirFlag string

	cfg      *config.Config
	log      *slog.Logger
	limiters *provider.Limiters
	user     userconfig.Provider
}

func (a *appState) init() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("axolctl: %w", err)
	}
	if a.logLevelFlag != "" {
		cfg.LogLevel = a.logLevelFlag
	}
	if a.storageDirFlag != "" {
		cfg.StorageDir = a.storageDirFlag
	}
	a.cfg = cfg

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	a.log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	a.limiters = provider.NewLimiters()
	user, err := examplefeeds.New(cfg, a.limiters, a.log)
	if err != nil {
		return fmt.Errorf("axolctl: %w", err)
	}
	a.user = user
	return nil
}
