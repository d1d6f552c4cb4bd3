// Package sqlite implements the persistence repositories on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/example/rental-marketplace/internal/persistence"
	"github.com/example/rental-marketplace/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries holds every statement and runs it against either the pool or an
// open transaction.
type queries struct {
	q      querier
	mapper *ErrorMapper
}

// Storage is the SQLite-backed implementation of the persistence repositories.
type Storage struct {
	*queries
	pool   *ConnectionPool
	logger *slog.Logger
}

// Open opens the database file at dsn with production settings. ":memory:"
// yields a private in-memory database.
func Open(dsn string) (*Storage, error) {
	config := migration.DefaultSQLiteConfig(dsn)
	if dsn == ":memory:" {
		config = migration.InMemorySQLiteConfig()
	}
	return OpenWithConfig(config, nil)
}

// OpenWithConfig opens a database with explicit connection settings.
func OpenWithConfig(config migration.SQLiteConfig, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}
	return &Storage{
		queries: &queries{q: pool.DB(), mapper: NewErrorMapper()},
		pool:    pool,
		logger:  logger,
	}, nil
}

// Close releases the database handle.
func (s *Storage) Close() error {
	return s.pool.Close()
}

// Ping checks that the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies the embedded schema migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	manager := migration.NewManager(migration.NewScanner(), migration.NewExecutor(s.pool.DB()), migrationFiles, "migrations", s.logger)
	if err := manager.Run(ctx); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

type txStore struct {
	*queries
}

// WithinTx runs fn in a transaction. Persistence sentinels returned by fn are
// preserved so callers can match them with errors.Is.
func (s *Storage) WithinTx(ctx context.Context, fn func(ctx context.Context, tx persistence.Tx) error) error {
	return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		return fn(ctx, txStore{queries: &queries{q: tx, mapper: s.mapper}})
	})
}

var (
	_ persistence.UserRepository      = (*Storage)(nil)
	_ persistence.ApartmentRepository = (*Storage)(nil)
	_ persistence.BookingReader       = (*Storage)(nil)
	_ persistence.LedgerReader        = (*Storage)(nil)
	_ persistence.ReviewRepository    = (*Storage)(nil)
	_ persistence.SliderRepository    = (*Storage)(nil)
	_ persistence.ContactRepository   = (*Storage)(nil)
	_ persistence.Transactor          = (*Storage)(nil)
	_ persistence.Tx                  = txStore{}
)

func (q *queries) execAffectingOne(ctx context.Context, query string, args ...any) error {
	result, err := q.q.ExecContext(ctx, query, args...)
	if err != nil {
		return q.mapper.MapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
