package repository

import (
	"context"

	"github.com/tender-discovery-api/internal/database"
)

// UserRecordRepository stores identity-keyed text records. Keys come from
// userstate.Key; values are serialized JSON owned by the caller.
type UserRecordRepository interface {
	// Get returns the stored value and whether the key exists
	Get(ctx context.Context, key string) (string, bool, error)
	// Put replaces the value stored under key
	Put(ctx context.Context, key, value string) error
	Count(ctx context.Context) (int, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	UserRecords UserRecordRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		UserRecords: NewUserRecordRepo(db),
	}
}
