package queue

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/CodeLinkIO/tts-annotation-tool/internal/config"
	"github.com/CodeLinkIO/tts-annotation-tool/internal/sqlitedb"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// Store manages task persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the queue database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.QueueDatabasePath())
}

// OpenPath opens the queue database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sqlitedb.Open(context.Background(), dbPath, sqlitedb.Schema{SQL: schemaSQL, Version: schemaVersion})
	if err != nil {
		return nil, err
	}
	return &Store{db: db, path: dbPath}, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return sqlitedb.Exec(ctx, s.db, query, args...)
}
