package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	corejournal "github.com/kilianp07/carbontrip/core/journal"
	"github.com/kilianp07/carbontrip/core/model"
)

// SQLiteStore persists journeys in a SQLite database. Appending a journey
// whose ID is already stored replaces it, so replays are idempotent.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS journeys (
        id TEXT PRIMARY KEY,
        ts INTEGER,
        mode TEXT,
        record TEXT
    );`
	for _, stmt := range []string{schema, `CREATE INDEX IF NOT EXISTS journeys_ts ON journeys(ts)`} {
		if _, err = db.Exec(stmt); err != nil {
			break
		}
	}
	if err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the journey.
func (s *SQLiteStore) Append(ctx context.Context, j model.JourneyPattern) error {
	if j.ID == "" {
		return &model.InputError{Field: "id", Reason: "required for persistence"}
	}
	b, err := json.Marshal(j)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO journeys (id, ts, mode, record) VALUES (?, ?, ?, ?)`,
		j.ID, j.Timestamp.UnixNano(), string(j.Mode), string(b))
	return err
}

// Load returns journeys matching q ordered by timestamp.
func (s *SQLiteStore) Load(ctx context.Context, q corejournal.Query) ([]model.JourneyPattern, error) {
	var args []any
	query := `SELECT record FROM journeys WHERE 1=1`
	if !q.Start.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, q.Start.UnixNano())
	}
	if !q.End.IsZero() {
		query += ` AND ts <= ?`
		args = append(args, q.End.UnixNano())
	}
	if q.Mode != "" {
		query += ` AND mode = ?`
		args = append(args, string(q.Mode))
	}
	query += ` ORDER BY ts, id`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.JourneyPattern
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var j model.JourneyPattern
		if err := json.Unmarshal([]byte(data), &j); err != nil {
			return nil, fmt.Errorf("unmarshal journey: %w", err)
		}
		res = append(res, j)
	}
	return res, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
