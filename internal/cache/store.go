// Package cache persists content snapshots between runs, keyed by job GUID.
package cache

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
    guid       TEXT PRIMARY KEY,
    content    TEXT NOT NULL,
    etag       TEXT,
    timestamp  DATETIME NOT NULL
);
`

// Snapshot is the stored result of one successful retrieval.
type Snapshot struct {
	GUID      string
	Content   string
	ETag      string
	Timestamp time.Time
}

// Store is a SQLite-backed snapshot store.
type Store struct {
	db *sql.DB
}

// New opens a snapshot store at dbPath, initializing the schema if needed.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the snapshot for guid, or nil if none has been saved yet.
func (s *Store) Load(ctx context.Context, guid string) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT guid, content, COALESCE(etag, ''), timestamp
		 FROM snapshots WHERE guid = ?`, guid,
	)

	var snap Snapshot
	err := row.Scan(&snap.GUID, &snap.Content, &snap.ETag, &snap.Timestamp)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Save inserts or replaces the snapshot for its GUID.
func (s *Store) Save(ctx context.Context, snap Snapshot) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (guid, content, etag, timestamp) VALUES (?, ?, ?, ?)
		 ON CONFLICT(guid) DO UPDATE SET
		     content = excluded.content,
		     etag = excluded.etag,
		     timestamp = excluded.timestamp`,
		snap.GUID, snap.Content, snap.ETag, snap.Timestamp,
	)
	return err
}

// Prune deletes every snapshot whose GUID is not in keep. It returns the
// number of deleted snapshots.
func (s *Store) Prune(ctx context.Context, keep []string) (int64, error) {
	if len(keep) == 0 {
		result, err := s.db.ExecContext(ctx, `DELETE FROM snapshots`)
		if err != nil {
			return 0, err
		}
		return result.RowsAffected()
	}

	placeholders := strings.Repeat("?,", len(keep))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(keep))
	for i, guid := range keep {
		args[i] = guid
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE guid NOT IN (`+placeholders+`)`, args...,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
