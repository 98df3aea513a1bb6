package store

import (
	_ "modernc.org/sqlite"
)

// NewSQLite creates a SQLite-based store.
// Use ":memory:" for in-memory database (useful for testing).
func NewSQLite(path string) (*SQLStore, error) {
	return openSQL(sqliteDialect, path)
}
