package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	gocache "github.com/patrickmn/go-cache"
)

//go:embed schema.sql
var schemaSQL string

// SchemaVersion is stamped into PRAGMA user_version of every database this
// package creates. Open refuses databases with a higher version.
const SchemaVersion = 1

// DefaultTranscriptTTL bounds how long a transcript stays cached.
const DefaultTranscriptTTL = 10 * time.Minute

// ErrUnsupportedSchema is returned by Open for a database written by a newer
// schema version.
var ErrUnsupportedSchema = errors.New("unsupported schema version")

// Store holds audit results and student transcripts in one SQLite file.
type Store struct {
	db          *sql.DB
	transcripts *gocache.Cache
}

// Open opens the results database at path, creating it if needed. The file
// runs in WAL mode behind a single connection.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open results database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open results database: %w", err)
	}

	// One connection: SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := configure(db); err != nil {
		db.Close()
		return nil, err
	}

	// No janitor goroutine: expired entries are dropped on read.
	return &Store{db: db, transcripts: gocache.New(DefaultTranscriptTTL, 0)}, nil
}

// Close releases the database and empties the transcript cache.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	s.transcripts.Flush()
	return s.db.Close()
}

func configure(db *sql.DB) error {
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > SchemaVersion {
		return fmt.Errorf("%w: database is v%d, this build reads v%d", ErrUnsupportedSchema, version, SchemaVersion)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	if version < SchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
			return fmt.Errorf("stamp schema version: %w", err)
		}
	}
	return nil
}

// pragma reads a single PRAGMA value.
func (s *Store) pragma(name string) (string, error) {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return value, nil
}
