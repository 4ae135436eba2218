// Package history is the durable record of previously published articles,
// used for cross-run duplicate detection and slug uniqueness.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tkoide/newsround/internal/fingerprint"
)

// writeAttempts bounds the retries on a transient read/write failure before
// the error is surfaced and the run aborts.
const writeAttempts = 3

// Record is one immutable history entry. Entries older than the retention
// window become eligible for pruning.
type Record struct {
	ID          int64
	Fingerprint fingerprint.Fingerprint
	Title       string
	Source      string
	URL         string
	Published   time.Time
	Slug        string
	RecordedAt  time.Time
}

// Store wraps the SQLite history database. All writes are serialized through
// a single mutex; reads of committed rows are safe alongside them.
type Store struct {
	mu   sync.Mutex
	conn *sql.DB
	path string
}

// Open creates or opens the history database at the given path. An
// unreachable store here is fatal to the run.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening history store: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &Store{conn: conn, path: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// withRetry runs fn up to writeAttempts times with a short pause, covering
// transient SQLite busy errors.
func withRetry(fn func() error) error {
	var err error
	for attempt := 1; attempt <= writeAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt < writeAttempts {
			time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
		}
	}
	return fmt.Errorf("history store failed after %d attempts: %w", writeAttempts, err)
}
