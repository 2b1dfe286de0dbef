package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"giardino/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository persists snapshots in a local SQLite database. Each
// user token owns one row holding the serialized state, plus at most one
// login-flag row with an optional expiry.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
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

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) SaveState(ctx context.Context, userID string, state core.State) error {
	payload, err := encodeState(state)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO garden_states (user_id, payload, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			payload = excluded.payload,
			updated_at = CURRENT_TIMESTAMP`,
		userID, payload)
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}

	slog.DebugContext(ctx, "Garden state saved", "user_id", userID, "bytes", len(payload))
	return nil
}

func (r *SQLiteRepository) LoadState(ctx context.Context, userID string) (core.State, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM garden_states WHERE user_id = ?`, userID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return core.State{}, ErrStateNotFound
	}
	if err != nil {
		return core.State{}, fmt.Errorf("load state: %w", err)
	}
	return decodeState(payload)
}

func (r *SQLiteRepository) DeleteState(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM garden_states WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete state: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SetLoginFlag(ctx context.Context, userID string, ttl time.Duration) error {
	var expiresAt any
	if ttl > 0 {
		expiresAt = time.Now().UTC().Add(ttl)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO login_flags (user_id, created_at, expires_at)
		VALUES (?, CURRENT_TIMESTAMP, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			created_at = CURRENT_TIMESTAMP,
			expires_at = excluded.expires_at`,
		userID, expiresAt)
	if err != nil {
		return fmt.Errorf("set login flag: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ClearLoginFlag(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM login_flags WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear login flag: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) IsLoggedIn(ctx context.Context, userID string) (bool, error) {
	var expiresAt sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT expires_at FROM login_flags WHERE user_id = ?`, userID).Scan(&expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check login flag: %w", err)
	}
	if expiresAt.Valid && time.Now().UTC().After(expiresAt.Time) {
		return false, nil
	}
	return true, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
