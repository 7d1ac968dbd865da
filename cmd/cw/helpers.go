package main

import (
	"errors"

	"github.com/matsen/citewatch/internal/config"
	"github.com/matsen/citewatch/internal/store"
)

// mustLoadConfig loads the configuration or exits with a helpful message.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrNotInitialized) {
			exitWithError(ExitConfigError, "not initialized. Run 'cw init' first")
		}
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustOpenStore opens the citation store or exits.
func mustOpenStore(cfg *config.Config) *store.DB {
	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}
