package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("not found")

// pragma is a connection setting applied on open.
type pragma struct {
	name  string
	value string
}

var connPragmas = []pragma{
	{"journal_mode", "WAL"},
	{"synchronous", "NORMAL"},
	{"busy_timeout", "5000"},
	{"foreign_keys", "ON"},
}

// migration upgrades a step log to version.
type migration struct {
	version int
	stmt    string
}

// migrations run in order against any log whose user_version is below
// their version. Append only.
var migrations = []migration{
	// Timeline reads walk steps by tick.
	{1, `CREATE INDEX IF NOT EXISTS idx_steps_run_tick ON steps(run_id, tick)`},
}

var currentSchemaVersion = migrations[len(migrations)-1].version

// Store is a SQLite step log. One connection is shared so recorder writes
// from the stepping goroutine serialize with reads.
type Store struct {
	db *sql.DB
}

// Open opens or creates the step log at path. ":memory:" gives a private
// in-process log. Opening an existing log upgrades it in place.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open step log: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := prepare(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func prepare(db *sql.DB) error {
	if err := db.Ping(); err != nil {
		return fmt.Errorf("connect step log: %w", err)
	}
	if err := applyPragmas(db); err != nil {
		return err
	}
	return applySchema(db)
}

// Close releases the connection. Safe on a zero Store.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the connection for tests and ad hoc inspection.
func (s *Store) DB() *sql.DB {
	return s.db
}

func applyPragmas(db *sql.DB) error {
	for _, p := range connPragmas {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)); err != nil {
			return fmt.Errorf("pragma %s: %w", p.name, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create step log tables: %w", err)
	}
	return runMigrations(db)
}

func runMigrations(db *sql.DB) error {
	var have int
	if err := db.QueryRow("PRAGMA user_version").Scan(&have); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for _, m := range migrations {
		if m.version <= have {
			continue
		}
		if _, err := db.Exec(m.stmt); err != nil {
			return fmt.Errorf("migrate step log to v%d: %w", m.version, err)
		}
		// PRAGMA does not take bind parameters.
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
			return fmt.Errorf("record schema v%d: %w", m.version, err)
		}
		have = m.version
	}
	return nil
}

// verifyPragma reports a mismatch between a pragma's live value and want.
func (s *Store) verifyPragma(name, want string) error {
	var got string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&got); err != nil {
		return fmt.Errorf("read pragma %s: %w", name, err)
	}
	if got != want {
		return fmt.Errorf("pragma %s is %q, want %q", name, got, want)
	}
	return nil
}
