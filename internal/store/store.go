// Package store owns the dual-connection (read-only / read-write)
// database manager: schema init, additive migrations, and write-lock
// acquisition with retry-and-backoff.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/exocortex-go/exocortex/internal/logging"

	_ "github.com/asg017/sqlite-vec-go-bindings/ncruces"
	_ "github.com/ncruces/go-sqlite3/driver"
)

var log = logging.GetLogger("store")

// Options configures write-lock acquisition retry behavior.
type Options struct {
	RetryDelay time.Duration
	MaxRetries int
	Dimension  int
}

// DefaultOptions mirrors the documented defaults: retry_delay=0.5s,
// max_retries=3.
func DefaultOptions() Options {
	return Options{
		RetryDelay: 500 * time.Millisecond,
		MaxRetries: 3,
		Dimension:  256,
	}
}

// Store manages the embedded graph+vector store at a single file path.
// It exposes a read-only handle for concurrent reads and a read-write
// handle acquired on demand for writers.
type Store struct {
	path string
	opts Options

	mu   sync.Mutex // serializes write-handle acquisition within this process
	ro   *sql.DB
	rw   *sql.DB
}

// Open opens (or creates) the store at path, ensuring its directory
// exists, opens the read-write handle and initializes the schema through
// it, and establishes the read-only handle. AcquireWrite hands out the
// read-write handle opened here.
func Open(path string, opts Options) (*Store, error) {
	log.Info("opening store", "path", path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	ro, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path))
	if err != nil {
		// The file may not exist yet; a read-write handle will create it.
		log.Debug("read-only handle unavailable yet, will retry after schema init", "error", err)
	}

	s := &Store{path: path, opts: opts, ro: ro}

	rw, err := s.openRW()
	if err != nil {
		return nil, fmt.Errorf("open read-write handle: %w", err)
	}
	if err := s.initSchema(rw); err != nil {
		rw.Close()
		return nil, err
	}
	s.rw = rw

	if s.ro == nil {
		ro, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path))
		if err != nil {
			return nil, fmt.Errorf("open read-only handle: %w", err)
		}
		s.ro = ro
	}

	return s, nil
}

func (s *Store) openRW() (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=rwc&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", s.path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (s *Store) initSchema(db *sql.DB) error {
	var name string
	err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='memories' LIMIT 1`).Scan(&name)
	if err == nil && name != "" {
		log.Debug("schema already initialized")
		return runMigrations(db)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema init: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(CoreSchema); err != nil {
		return fmt.Errorf("create core schema: %w", err)
	}

	vecDDL := fmt.Sprintf(VecSchema, s.opts.Dimension)
	if _, err := tx.Exec(vecDDL); err != nil {
		// The vec0 extension is best-effort: the repository's linear-scan
		// fallback makes this non-fatal.
		log.Warn("vec0 virtual table creation failed, vector search will use the linear-scan fallback", "error", err)
	}

	if _, err := tx.Exec(`INSERT OR REPLACE INTO schema_version (version, applied_at) VALUES (?, CURRENT_TIMESTAMP)`, SchemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema init: %w", err)
	}

	log.Info("schema initialized", "version", SchemaVersion)
	return runMigrations(db)
}

// ReadDB returns the read-only handle for concurrent read queries.
func (s *Store) ReadDB() *sql.DB { return s.ro }

// WriteHandle is a scoped reference to the read-write connection,
// returned by AcquireWrite; see Release for what releasing it does.
type WriteHandle struct {
	db *sql.DB
}

// DB exposes the underlying *sql.DB for the duration of the handle.
func (w *WriteHandle) DB() *sql.DB { return w.db }

// Release is a no-op placeholder for symmetry with the acquisition
// protocol; SQLite's own connection pool handles the actual return of
// the connection to the pool. The write lock this type represents is
// SQLite's own cross-process file lock, not a value held in memory.
func (w *WriteHandle) Release() {}

// AcquireWrite pings the read-write handle and, on failure, retries with
// exponential backoff (retry_delay × 1.5^attempt) up to max_retries. The
// read-only handle stays open throughout.
func (s *Store) AcquireWrite(ctx context.Context) (*WriteHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delay := s.opts.RetryDelay
	var lastErr error
	for attempt := 0; attempt <= s.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(float64(delay) * pow15(attempt))
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, &ErrLockTimeout{Attempts: attempt}
			}
		}
		if err := s.rw.PingContext(ctx); err == nil {
			return &WriteHandle{db: s.rw}, nil
		} else {
			lastErr = err
		}
	}
	log.Warn("write lock acquisition exhausted retries", "error", lastErr, "max_retries", s.opts.MaxRetries)
	return nil, &ErrLockTimeout{Attempts: s.opts.MaxRetries}
}

// ErrLockTimeout is returned when the write handle cannot be acquired
// within the retry budget.
type ErrLockTimeout struct {
	Attempts int
}

func (e *ErrLockTimeout) Error() string {
	return fmt.Sprintf("could not acquire write lock after %d attempts", e.Attempts)
}

func pow15(n int) float64 {
	result := 1.0
	for i := 0; i < n; i++ {
		result *= 1.5
	}
	return result
}

// Close releases both handles.
func (s *Store) Close() error {
	var firstErr error
	if s.ro != nil {
		if err := s.ro.Close(); err != nil {
			firstErr = err
		}
	}
	if s.rw != nil {
		if err := s.rw.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Path returns the underlying file path.
func (s *Store) Path() string { return s.path }

// InternalLockPath is the storage engine's own lock-file style path used
// by the dream worker's safety check. SQLite's WAL mode
// uses a "-shm" shared-memory file as the closest analogue to a
// standalone internal lock file.
func (s *Store) InternalLockPath() string {
	return s.path + "-shm"
}
