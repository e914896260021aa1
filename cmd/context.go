package main

import (
	"fmt"

	"episode-pulse/catalog"
	"episode-pulse/config"
	"episode-pulse/logging"
	"episode-pulse/scraper"
	"episode-pulse/storage"

	"github.com/spf13/cobra"
)

type commandContext struct {
	dataFlag     string
	baseURLFlag  string
	logLevelFlag string

	config config.Config
}

func newCommandContext() *commandContext {
	return &commandContext{}
}

// load reads the environment and applies the persistent flag overrides
func (c *commandContext) load(cmd *cobra.Command) {
	cfg := config.Load()
	if c.dataFlag != "" {
		cfg.DataPath = c.dataFlag
	}
	if c.baseURLFlag != "" {
		cfg.BaseURL = c.baseURLFlag
	}
	if c.logLevelFlag != "" {
		cfg.LogLevel = c.logLevelFlag
	}
	c.config = cfg

	logging.SetupWithOutput(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogJSON)
}

// newClient builds the catalog client from the loaded configuration
func (c *commandContext) newClient() *catalog.Client {
	cfg := c.config
	fetcher := scraper.WithRetry(
		scraper.NewScraper(scraper.Options{UserAgent: cfg.UserAgent}),
		cfg.FetchRetries,
		cfg.RetryBaseDelay,
	)
	return catalog.NewClient(fetcher, catalog.Options{
		BaseURL:     cfg.BaseURL,
		Concurrency: cfg.Concurrency,
		TaskTimeout: cfg.TaskTimeout,
	})
}

// withStorage opens the snapshot database for the duration of fn
func (c *commandContext) withStorage(fn func(*storage.SQLiteStorage) error) error {
	store := storage.NewSQLiteStorage(c.config.DataPath)
	if err := store.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	return fn(store)
}
