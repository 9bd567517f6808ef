// internal/storage/storage.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"musicthumb/internal/models"
)

const connectTimeout = 5 * time.Second

// Storage keeps the sudoer document in PostgreSQL.
type Storage struct {
	pool *pgxpool.Pool
	db   *sql.DB // For migrations
}

var _ SudoerStore = (*Storage)(nil)

func NewStorage(ctx context.Context, dsn, migrationsDir string) (*Storage, error) {
	const op = "storage.NewStorage"

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db := stdlib.OpenDBFromPool(pool)
	if err := runMigrations(db, migrationsDir); err != nil {
		db.Close()
		pool.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{pool: pool, db: db}, nil
}

func (s *Storage) Close() {
	s.db.Close()
	s.pool.Close()
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// FindSudoers returns the persisted id list, or nil when the document does not exist yet.
func (s *Storage) FindSudoers(ctx context.Context) ([]int64, error) {
	const op = "storage.FindSudoers"

	var doc models.SudoerDocument
	err := s.pool.QueryRow(ctx,
		`SELECT name, user_ids FROM sudoers WHERE name = $1`,
		models.SudoerKey).Scan(&doc.Name, &doc.UserIDs)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return doc.UserIDs, nil
}

// UpsertSudoers replaces the whole document.
func (s *Storage) UpsertSudoers(ctx context.Context, ids []int64) error {
	const op = "storage.UpsertSudoers"

	if ids == nil {
		ids = []int64{}
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sudoers (name, user_ids) VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET user_ids = EXCLUDED.user_ids`,
		models.SudoerKey, ids)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Tables lists the public tables, for connectivity checks.
func (s *Storage) Tables(ctx context.Context) ([]string, error) {
	const op = "storage.Tables"

	rows, err := s.pool.Query(ctx,
		`SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return names, nil
}
