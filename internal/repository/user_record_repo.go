package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/tender-discovery-api/internal/database"
)

// userRecordRepo is the PostgreSQL implementation of UserRecordRepository
type userRecordRepo struct {
	db *database.DB
}

// NewUserRecordRepo creates a new user record repository
func NewUserRecordRepo(db *database.DB) UserRecordRepository {
	return &userRecordRepo{db: db}
}

// Get retrieves the value stored under key
func (r *userRecordRepo) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		"SELECT value FROM user_records WHERE storage_key = $1", key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read user record: %w", err)
	}
	return value, true, nil
}

// Put inserts or replaces the value stored under key. Last write wins.
func (r *userRecordRepo) Put(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO user_records (storage_key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (storage_key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, key, value, time.Now()); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			return fmt.Errorf("failed to write user record (%s): %w", pqErr.Code.Name(), err)
		}
		return fmt.Errorf("failed to write user record: %w", err)
	}
	return nil
}

// Count returns the number of stored records
func (r *userRecordRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM user_records").Scan(&count)
	return count, err
}
