// Package storage persists the offline write queue in a local SQLite file.
// The queue survives restarts; a corrupt or unreadable queue degrades to an
// empty one rather than blocking the application.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"famspend/internal/ledger"
	applog "famspend/internal/log"
)

type SQLitePendingStore struct {
	db     *sql.DB
	logger *applog.Logger
}

var _ ledger.PendingStore = (*SQLitePendingStore)(nil)

func NewSQLitePendingStore(dbPath string, logger *applog.Logger) (*SQLitePendingStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	return &SQLitePendingStore{
		db:     db,
		logger: logger.WithComponent(applog.ComponentQueue),
	}, nil
}

func (s *SQLitePendingStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Load returns all queued writes oldest first. Rows that fail to decode are
// treated as a corrupt queue: the whole queue reads as empty and the bad rows
// are removed, so one bad payload cannot wedge replay forever.
func (s *SQLitePendingStore) Load(ctx context.Context) ([]ledger.PendingWrite, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM pending_writes ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("load pending writes: %w", err)
	}
	defer rows.Close()

	var payloads []string
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan pending write: %w", err)
		}
		payloads = append(payloads, payload)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending writes: %w", err)
	}
	// The cursor must be released before Clear can delete rows on the same
	// connection, so decoding happens after the scan loop.
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("close pending writes cursor: %w", err)
	}

	writes := make([]ledger.PendingWrite, 0, len(payloads))
	for _, payload := range payloads {
		var w ledger.PendingWrite
		if err := json.Unmarshal([]byte(payload), &w); err != nil {
			s.logger.WarnContext(ctx, "Pending queue corrupt, resetting to empty",
				applog.FieldError, err)
			if clearErr := s.Clear(ctx); clearErr != nil {
				return nil, fmt.Errorf("clear corrupt queue: %w", clearErr)
			}
			return nil, nil
		}
		writes = append(writes, w)
	}
	if len(writes) == 0 {
		return nil, nil
	}
	return writes, nil
}

// Replace atomically swaps the stored queue for the given list, preserving
// its order.
func (s *SQLitePendingStore) Replace(ctx context.Context, writes []ledger.PendingWrite) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM pending_writes`); err != nil {
		return fmt.Errorf("clear pending writes: %w", err)
	}
	for _, w := range writes {
		payload, err := json.Marshal(w)
		if err != nil {
			return fmt.Errorf("encode pending write %s: %w", w.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO pending_writes (payload, created_at) VALUES (?, ?)`,
			string(payload), w.CreatedAt); err != nil {
			return fmt.Errorf("insert pending write %s: %w", w.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

func (s *SQLitePendingStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pending_writes`); err != nil {
		return fmt.Errorf("clear pending writes: %w", err)
	}
	return nil
}
