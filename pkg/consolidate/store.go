package consolidate

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"cdlextract/pkg/chunk"
)

const schema = `
CREATE TABLE IF NOT EXISTS data (
	year      INTEGER NOT NULL,
	crop_code INTEGER NOT NULL,
	longitude REAL    NOT NULL,
	latitude  REAL    NOT NULL,
	crop_name TEXT    NOT NULL
);
CREATE TABLE IF NOT EXISTS metadata (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Metadata keys written by the merger.
const (
	MetaTotalRecords    = "total_records"
	MetaYear            = "year"
	MetaProcessingDate  = "processing_date"
	MetaChunksProcessed = "num_chunks_processed"
)

// Store is the consolidated per-year table, backed by a single SQLite
// file so the artifact stays a one-file download.
type Store struct {
	db   *sql.DB
	path string
}

// Create opens a fresh store at path, replacing any existing file. The
// parent directory is created if needed.
func Create(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to replace existing artifact: %w", err)
	}
	return open(path)
}

// Open opens an existing store read-write.
func Open(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("artifact not found: %w", err)
	}
	return open(path)
}

func open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Single-writer batch load; durability comes from the final sync on
	// close, not per-statement fsyncs.
	if _, err := db.Exec("PRAGMA journal_mode = WAL; PRAGMA synchronous = NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the artifact's file path.
func (s *Store) Path() string {
	return s.path
}

// AppendRecords inserts one chunk's records in a single transaction.
func (s *Store) AppendRecords(records []chunk.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO data (year, crop_code, longitude, latitude, crop_name) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(r.Year, r.Code, r.Longitude, r.Latitude, r.Label); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunk: %w", err)
	}
	return nil
}

// SetMetadata stores one key/value pair, replacing any existing value.
func (s *Store) SetMetadata(key, value string) error {
	if _, err := s.db.Exec("INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)", key, value); err != nil {
		return fmt.Errorf("failed to set metadata %s: %w", key, err)
	}
	return nil
}

// Metadata returns the value stored under key.
func (s *Store) Metadata(key string) (string, error) {
	var value string
	if err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value); err != nil {
		return "", fmt.Errorf("failed to read metadata %s: %w", key, err)
	}
	return value, nil
}

// RowCount returns the number of data rows in the store.
func (s *Store) RowCount() (int64, error) {
	var n int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM data").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
