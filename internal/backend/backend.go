// Package backend builds the remote EntryStore named by the configuration.
package backend

import (
	"context"
	"fmt"

	"famspend/internal/config"
	applog "famspend/internal/log"
	"famspend/internal/store"
	"famspend/internal/store/memory"
	"famspend/internal/store/rest"
	"famspend/internal/store/sheets"
)

// Type names a remote store implementation.
type Type string

const (
	MemoryBackend Type = "memory"
	RestBackend   Type = "rest"
	SheetsBackend Type = "sheets"
)

func (t Type) String() string { return string(t) }

func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, RestBackend, SheetsBackend:
		return true
	default:
		return false
	}
}

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// Result holds the created store and its optional cleanup.
type Result struct {
	Store   store.EntryStore
	Cleanup CleanupFunc
}

// Create builds the EntryStore selected by cfg.DataBackend.
func Create(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*Result, error) {
	t := Type(cfg.DataBackend)
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	switch t {
	case RestBackend:
		client := rest.NewClient(cfg.BackendURL, cfg.BackendAPIKey, cfg.BackendTimeout, logger)
		logger.Info("Initialized REST backend", "base_url", cfg.BackendURL)
		return &Result{Store: client}, nil

	case SheetsBackend:
		client, err := sheets.NewFromEnv(ctx, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets backend: %w", err)
		}
		logger.Info("Initialized Google Sheets backend",
			"spreadsheet_id", cfg.GoogleSpreadsheetID)
		return &Result{Store: client}, nil

	default:
		logger.Info("Initialized memory backend")
		return &Result{Store: memory.New()}, nil
	}
}
