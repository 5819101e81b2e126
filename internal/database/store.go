package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store is a durable key/value store of JSON collections.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// Get returns the raw value stored under key. The boolean is false when the key is absent.
	Get(ctx context.Context, key string) (string, bool, error)

	// Put inserts or replaces the raw value stored under key.
	Put(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists every stored key in lexical order.
	Keys(ctx context.Context) ([]string, error)

	// Clear removes every collection in a single transaction.
	Clear(ctx context.Context) error

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

type collectionRow struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, fmt.Errorf("collection key cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM collections WHERE key = ?`, key)
	switch {
	case err == nil:
		return value, true, nil
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Collection read interrupted", "key", key, "error", err)
		return "", false, err
	default:
		s.logger.ErrorContext(ctx, "Failed to read collection", "key", key, "error", err)
		return "", false, fmt.Errorf("failed to read collection %q: %w", key, err)
	}
}

func (s *sqlxStore) Put(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("collection key cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	row := collectionRow{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	query := `
        INSERT INTO collections (key, value, updated_at)
        VALUES (:key, :value, :updated_at)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at;
    `
	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		s.logger.ErrorContext(ctx, "Failed to write collection", "key", key, "size", len(value), "error", err)
		return fmt.Errorf("failed to write collection %q: %w", key, err)
	}
	s.logger.DebugContext(ctx, "Collection written", "key", key, "size", len(value))
	return nil
}

func (s *sqlxStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM collections WHERE key = ?`, key); err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete collection", "key", key, "error", err)
		return fmt.Errorf("failed to delete collection %q: %w", key, err)
	}
	return nil
}

func (s *sqlxStore) Keys(ctx context.Context) ([]string, error) {
	keys := []string{}
	if err := s.db.SelectContext(ctx, &keys, `SELECT key FROM collections ORDER BY key`); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list collections", "error", err)
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return keys, nil
}

func (s *sqlxStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for clearing collections", "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
			}
		}
	}()

	result, err := tx.ExecContext(ctx, `DELETE FROM collections`)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to clear collections", "error", err)
		return fmt.Errorf("failed to clear collections: %w", err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit collection reset", "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	deleted, _ := result.RowsAffected()
	s.logger.InfoContext(ctx, "All collections cleared", "deleted", deleted)
	return nil
}

func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context done before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	start := time.Now()
	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)")

	// VACUUM cannot run inside a transaction.
	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			s.logger.WarnContext(ctx, "VACUUM interrupted", "error", err)
			return fmt.Errorf("database maintenance interrupted: %w", err)
		}
		s.logger.ErrorContext(ctx, "Failed to run VACUUM", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance completed", "duration", time.Since(start))
	return nil
}
