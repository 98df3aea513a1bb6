package store

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// schemaTables is valid for both SQLite and PostgreSQL. Nullable provenance
// fields are stored as empty strings so they can take part in the key.
var schemaTables = []struct {
	name string
	ddl  string
}{
	{"texts", `
		CREATE TABLE IF NOT EXISTS texts (
			id TEXT PRIMARY KEY NOT NULL,
			size BIGINT NOT NULL
		)`},
	{"patterns", `
		CREATE TABLE IF NOT EXISTS patterns (
			id TEXT PRIMARY KEY NOT NULL,
			name TEXT NOT NULL,
			pattern TEXT NOT NULL,
			flags TEXT NOT NULL,
			engine TEXT NOT NULL,
			structural_id TEXT NOT NULL
		)`},
	{"occurrences", `
		CREATE TABLE IF NOT EXISTS occurrences (
			text_id TEXT NOT NULL REFERENCES texts(id),
			pattern_id TEXT NOT NULL,
			offset_start BIGINT NOT NULL,
			offset_end BIGINT NOT NULL,
			start_line INTEGER NOT NULL,
			start_column INTEGER NOT NULL,
			end_line INTEGER NOT NULL,
			end_column INTEGER NOT NULL,
			groups_json TEXT NOT NULL,
			PRIMARY KEY (text_id, pattern_id, offset_start)
		)`},
	{"provenance", `
		CREATE TABLE IF NOT EXISTS provenance (
			text_id TEXT NOT NULL REFERENCES texts(id),
			type TEXT NOT NULL,
			path TEXT NOT NULL DEFAULT '',
			repo_path TEXT NOT NULL DEFAULT '',
			commit_hash TEXT NOT NULL DEFAULT '',
			commit_author TEXT NOT NULL DEFAULT '',
			commit_time TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (text_id, type, path, repo_path, commit_hash)
		)`},
}

// CreateSchema creates the database schema if it doesn't exist.
func CreateSchema(db *sql.DB, d dialect) error {
	if err := createSchemaVersionTable(db, d); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	for _, t := range schemaTables {
		if _, err := db.Exec(t.ddl); err != nil {
			return fmt.Errorf("creating %s table: %w", t.name, err)
		}
	}

	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_occurrences_pattern ON occurrences(pattern_id)`)
	if err != nil {
		return fmt.Errorf("creating occurrences index: %w", err)
	}
	return nil
}

func createSchemaVersionTable(db *sql.DB, d dialect) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	_, err = db.Exec(d.rebind("INSERT INTO schema_version (version) VALUES (?)"), SchemaVersion)
	return err
}

// ReadSchemaVersion returns the version recorded in db.
func ReadSchemaVersion(db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRow("SELECT version FROM schema_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}
