package store

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
)

// MergeConfig configures the merge operation.
type MergeConfig struct {
	// SourcePaths are the SQLite files to merge from.
	SourcePaths []string
	// DestPath is the destination SQLite file or postgres:// URL.
	DestPath string
}

// MergeStats tracks merge operation statistics.
type MergeStats struct {
	TextsMerged       int
	PatternsMerged    int
	OccurrencesMerged int
	ProvenanceMerged  int
	SourcesProcessed  int
}

// Merge combines several result databases into one. Rows already present in
// the destination are skipped.
func Merge(cfg MergeConfig) (*MergeStats, error) {
	if len(cfg.SourcePaths) == 0 {
		return nil, fmt.Errorf("no source databases specified")
	}
	if cfg.DestPath == "" {
		return nil, fmt.Errorf("destination path is required")
	}

	d := sqliteDialect
	if IsPostgresURL(cfg.DestPath) {
		d = postgresDialect
	}
	dest, err := openSQL(d, cfg.DestPath)
	if err != nil {
		return nil, fmt.Errorf("opening destination database: %w", err)
	}
	defer dest.Close()

	stats := &MergeStats{}
	for _, sourcePath := range cfg.SourcePaths {
		sourceStats, err := dest.mergeFrom(sourcePath)
		if err != nil {
			return stats, fmt.Errorf("merging from %s: %w", sourcePath, err)
		}
		stats.TextsMerged += sourceStats.TextsMerged
		stats.PatternsMerged += sourceStats.PatternsMerged
		stats.OccurrencesMerged += sourceStats.OccurrencesMerged
		stats.ProvenanceMerged += sourceStats.ProvenanceMerged
		stats.SourcesProcessed++
	}

	return stats, nil
}

// mergeTables lists the copied tables. Texts come first: occurrences and
// provenance reference them.
var mergeTables = []struct {
	name    string
	columns []string
	count   func(*MergeStats) *int
}{
	{"texts", []string{"id", "size"}, func(s *MergeStats) *int { return &s.TextsMerged }},
	{
		"patterns",
		[]string{"id", "name", "pattern", "flags", "engine", "structural_id"},
		func(s *MergeStats) *int { return &s.PatternsMerged },
	},
	{
		"occurrences",
		[]string{"text_id", "pattern_id", "offset_start", "offset_end", "start_line", "start_column", "end_line", "end_column", "groups_json"},
		func(s *MergeStats) *int { return &s.OccurrencesMerged },
	},
	{
		"provenance",
		[]string{"text_id", "type", "path", "repo_path", "commit_hash", "commit_author", "commit_time"},
		func(s *MergeStats) *int { return &s.ProvenanceMerged },
	},
}

// mergeFrom copies every table of a source database into s.
func (s *SQLStore) mergeFrom(sourcePath string) (*MergeStats, error) {
	if _, err := os.Stat(sourcePath); err != nil {
		return nil, fmt.Errorf("opening source database: %w", err)
	}
	source, err := sql.Open(sqliteDialect.driverName, sourcePath)
	if err != nil {
		return nil, fmt.Errorf("opening source database: %w", err)
	}
	defer source.Close()

	if v, err := ReadSchemaVersion(source); err != nil {
		return nil, err
	} else if v != SchemaVersion {
		return nil, fmt.Errorf("unsupported schema version %d (want %d)", v, SchemaVersion)
	}

	stats := &MergeStats{}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, t := range mergeTables {
		n, err := s.copyTable(tx, source, t.name, t.columns)
		if err != nil {
			return nil, fmt.Errorf("merging %s: %w", t.name, err)
		}
		*t.count(stats) = n
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return stats, nil
}

func (s *SQLStore) copyTable(tx *sql.Tx, source *sql.DB, table string, columns []string) (int, error) {
	cols := strings.Join(columns, ", ")
	rows, err := source.Query("SELECT " + cols + " FROM " + table)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	stmt, err := tx.Prepare(s.dialect.rebind(
		"INSERT INTO " + table + " (" + cols + ") VALUES (" + placeholders + ") ON CONFLICT DO NOTHING"))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	count := 0
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return count, err
		}
		result, err := stmt.Exec(values...)
		if err != nil {
			return count, err
		}
		affected, _ := result.RowsAffected()
		if affected > 0 {
			count++
		}
	}
	return count, rows.Err()
}
