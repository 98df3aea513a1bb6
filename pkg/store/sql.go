package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/praetorian-inc/matchindex/pkg/types"
)

// dialect covers the differences between the SQL backends.
type dialect struct {
	name        string
	numbered    bool // $1, $2 placeholders instead of ?
	driverName  string
	singleConns bool // serialize access through one connection
}

var (
	sqliteDialect   = dialect{name: "sqlite", driverName: "sqlite", singleConns: true}
	postgresDialect = dialect{name: "postgres", driverName: "pgx", numbered: true}
)

// rebind rewrites ? placeholders for dialects that number them.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SQLStore implements Store on database/sql. The same queries serve SQLite and
// PostgreSQL.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

func openSQL(d dialect, dsn string) (*SQLStore, error) {
	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if d.singleConns {
		db.SetMaxOpenConns(1)
	}

	if err := CreateSchema(db, d); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLStore{db: db, dialect: d}, nil
}

// Dialect returns the backend name ("sqlite" or "postgres").
func (s *SQLStore) Dialect() string {
	return s.dialect.name
}

// DB exposes the underlying database handle.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

func (s *SQLStore) exec(query string, args ...any) (sql.Result, error) {
	return s.db.Exec(s.dialect.rebind(query), args...)
}

// AddText stores a text record.
func (s *SQLStore) AddText(id types.TextID, size int64) error {
	_, err := s.exec("INSERT INTO texts (id, size) VALUES (?, ?) ON CONFLICT DO NOTHING", id.Hex(), size)
	if err != nil {
		return fmt.Errorf("inserting text: %w", err)
	}
	return nil
}

// AddPattern stores or refreshes a pattern definition.
func (s *SQLStore) AddPattern(d *types.PatternDef) error {
	_, err := s.exec(`
		INSERT INTO patterns (id, name, pattern, flags, engine, structural_id)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			pattern = excluded.pattern,
			flags = excluded.flags,
			engine = excluded.engine,
			structural_id = excluded.structural_id
	`, d.ID, d.Name, d.Pattern, d.Flags, d.Engine, d.StructuralID)
	if err != nil {
		return fmt.Errorf("inserting pattern: %w", err)
	}
	return nil
}

// GetPattern retrieves a stored definition.
func (s *SQLStore) GetPattern(id string) (*types.PatternDef, error) {
	var d types.PatternDef
	err := s.db.QueryRow(s.dialect.rebind(`
		SELECT id, name, pattern, flags, engine, structural_id FROM patterns WHERE id = ?
	`), id).Scan(&d.ID, &d.Name, &d.Pattern, &d.Flags, &d.Engine, &d.StructuralID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pattern %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying pattern: %w", err)
	}
	return &d, nil
}

// AddProvenance associates provenance with a text.
func (s *SQLStore) AddProvenance(id types.TextID, prov types.Provenance) error {
	row, err := provenanceRow(prov)
	if err != nil {
		return err
	}

	_, err = s.exec(`
		INSERT INTO provenance (text_id, type, path, repo_path, commit_hash, commit_author, commit_time)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, id.Hex(), row.kind, row.path, row.repoPath, row.commitHash, row.commitAuthor, row.commitTime)
	if err != nil {
		return fmt.Errorf("inserting provenance: %w", err)
	}
	return nil
}

// GetProvenance retrieves every provenance stored for a text.
func (s *SQLStore) GetProvenance(id types.TextID) ([]types.Provenance, error) {
	rows, err := s.db.Query(s.dialect.rebind(`
		SELECT type, path, repo_path, commit_hash, commit_author, commit_time
		FROM provenance
		WHERE text_id = ?
		ORDER BY type, path, repo_path, commit_hash
	`), id.Hex())
	if err != nil {
		return nil, fmt.Errorf("querying provenance: %w", err)
	}
	defer rows.Close()

	provs := []types.Provenance{}
	for rows.Next() {
		var r provRow
		if err := rows.Scan(&r.kind, &r.path, &r.repoPath, &r.commitHash, &r.commitAuthor, &r.commitTime); err != nil {
			return nil, fmt.Errorf("scanning provenance: %w", err)
		}
		prov, err := r.provenance()
		if err != nil {
			return nil, err
		}
		provs = append(provs, prov)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating provenance: %w", err)
	}
	return provs, nil
}

// AddOccurrences stores the occurrences of one pattern in one text in a single
// transaction.
func (s *SQLStore) AddOccurrences(id types.TextID, patternID string, occurrences []*types.Occurrence) error {
	if len(occurrences) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(s.dialect.rebind(`
		INSERT INTO occurrences
		(text_id, pattern_id, offset_start, offset_end, start_line, start_column, end_line, end_column, groups_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`))
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, occ := range occurrences {
		rec := newRecord(id, patternID, occ)
		groupsJSON, err := encodeGroups(rec)
		if err != nil {
			return err
		}
		loc := rec.Location
		_, err = stmt.Exec(id.Hex(), patternID, loc.Offset.Start, loc.Offset.End,
			loc.Source.Start.Line, loc.Source.Start.Column, loc.Source.End.Line, loc.Source.End.Column,
			groupsJSON)
		if err != nil {
			return fmt.Errorf("inserting occurrence: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

const selectOccurrences = `
	SELECT text_id, pattern_id, offset_start, offset_end, start_line, start_column, end_line, end_column, groups_json
	FROM occurrences`

// GetOccurrences retrieves the records of one text.
func (s *SQLStore) GetOccurrences(id types.TextID) ([]*Record, error) {
	return s.queryRecords(selectOccurrences+` WHERE text_id = ? ORDER BY pattern_id, offset_start`, id.Hex())
}

// GetAllOccurrences retrieves every record.
func (s *SQLStore) GetAllOccurrences() ([]*Record, error) {
	return s.queryRecords(selectOccurrences + ` ORDER BY text_id, pattern_id, offset_start`)
}

func (s *SQLStore) queryRecords(query string, args ...any) ([]*Record, error) {
	rows, err := s.db.Query(s.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying occurrences: %w", err)
	}
	defer rows.Close()

	records := []*Record{}
	for rows.Next() {
		var rec Record
		var textID, groupsJSON string
		loc := &rec.Location
		err := rows.Scan(&textID, &rec.PatternID, &loc.Offset.Start, &loc.Offset.End,
			&loc.Source.Start.Line, &loc.Source.Start.Column, &loc.Source.End.Line, &loc.Source.End.Column,
			&groupsJSON)
		if err != nil {
			return nil, fmt.Errorf("scanning occurrence: %w", err)
		}

		rec.TextID, err = types.ParseTextID(textID)
		if err != nil {
			return nil, fmt.Errorf("parsing text ID: %w", err)
		}
		rec.Index = int(loc.Offset.Start)
		if err := decodeGroups(groupsJSON, &rec); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating occurrences: %w", err)
	}
	return records, nil
}

// TextExists checks if a text has already been scanned.
func (s *SQLStore) TextExists(id types.TextID) (bool, error) {
	var count int
	err := s.db.QueryRow(s.dialect.rebind("SELECT COUNT(*) FROM texts WHERE id = ?"), id.Hex()).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking text existence: %w", err)
	}
	return count > 0, nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// storedGroups is the JSON payload kept in occurrences.groups_json.
type storedGroups struct {
	All           []string             `json:"all"`
	CaptureGroups []types.CaptureGroup `json:"captureGroups"`
}

func encodeGroups(rec *Record) (string, error) {
	data, err := json.Marshal(storedGroups{All: rec.All, CaptureGroups: rec.CaptureGroups})
	if err != nil {
		return "", fmt.Errorf("marshaling groups: %w", err)
	}
	return string(data), nil
}

func decodeGroups(data string, rec *Record) error {
	var g storedGroups
	if err := json.Unmarshal([]byte(data), &g); err != nil {
		return fmt.Errorf("unmarshaling groups: %w", err)
	}
	rec.All = g.All
	rec.CaptureGroups = g.CaptureGroups
	return nil
}

// provRow is the flattened column form of a Provenance.
type provRow struct {
	kind, path, repoPath, commitHash, commitAuthor, commitTime string
}

func provenanceRow(prov types.Provenance) (provRow, error) {
	r := provRow{kind: prov.Kind()}
	switch p := prov.(type) {
	case types.FileProvenance:
		r.path = p.FilePath
	case types.InlineProvenance:
		r.path = p.Source
	case types.GitProvenance:
		r.path = p.BlobPath
		r.repoPath = p.RepoPath
		if p.Commit != nil {
			r.commitHash = p.Commit.CommitID
			r.commitAuthor = p.Commit.Author
			if !p.Commit.Timestamp.IsZero() {
				r.commitTime = p.Commit.Timestamp.UTC().Format(time.RFC3339)
			}
		}
	default:
		return r, fmt.Errorf("unknown provenance type: %T", prov)
	}
	return r, nil
}

func (r provRow) provenance() (types.Provenance, error) {
	switch r.kind {
	case "file":
		return types.FileProvenance{FilePath: r.path}, nil
	case "inline":
		return types.InlineProvenance{Source: r.path}, nil
	case "git":
		p := types.GitProvenance{RepoPath: r.repoPath, BlobPath: r.path}
		if r.commitHash != "" {
			p.Commit = &types.CommitInfo{CommitID: r.commitHash, Author: r.commitAuthor}
			if r.commitTime != "" {
				ts, err := time.Parse(time.RFC3339, r.commitTime)
				if err != nil {
					return nil, fmt.Errorf("parsing commit time: %w", err)
				}
				p.Commit.Timestamp = ts
			}
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown provenance type: %q", r.kind)
	}
}
