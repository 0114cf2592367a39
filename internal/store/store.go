// Package store persists projects, candidate profiles and matching scores in
// Postgres, and keeps the per-project lock and ranked-result cache in Redis.
package store

import (
	"database/sql"
	"errors"
)

var (
	// ErrProjectNotFound is returned when no project row has the requested id.
	ErrProjectNotFound = errors.New("project not found")
)

// Store is the Postgres-backed repository used by the matching service.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}
