package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, DefaultOptions())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return s
}

func TestOpenCreatesSchema(t *testing.T) {
	s := openTestStore(t)

	var name string
	err := s.ReadDB().QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='memories'`).Scan(&name)
	if err != nil {
		t.Fatalf("memories table not created: %v", err)
	}

	var version int
	if err := s.ReadDB().QueryRow(`SELECT version FROM schema_version`).Scan(&version); err != nil {
		t.Fatalf("schema_version row missing: %v", err)
	}
	if version != SchemaVersion {
		t.Errorf("expected schema version %d, got %d", SchemaVersion, version)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path, DefaultOptions())
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := s1.Close(); err != nil {
		t.Fatalf("close first handle: %v", err)
	}

	s2, err := Open(path, DefaultOptions())
	if err != nil {
		t.Fatalf("reopen existing store: %v", err)
	}
	defer s2.Close()

	var count int
	if err := s2.ReadDB().QueryRow(`SELECT COUNT(*) FROM schema_version`).Scan(&count); err != nil {
		t.Fatalf("query schema_version: %v", err)
	}
	if count != 1 {
		t.Errorf("expected exactly one schema_version row after reopen, got %d", count)
	}
}

func TestAcquireWriteSucceeds(t *testing.T) {
	s := openTestStore(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	wh, err := s.AcquireWrite(ctx)
	if err != nil {
		t.Fatalf("acquire write handle: %v", err)
	}
	defer wh.Release()

	if wh.DB() == nil {
		t.Fatal("expected non-nil write DB handle")
	}

	_, err = wh.DB().Exec(
		`INSERT INTO contexts (name, created_at) VALUES (?, CURRENT_TIMESTAMP)`,
		"default",
	)
	if err != nil {
		t.Fatalf("write through acquired handle: %v", err)
	}
}

func TestPathAndInternalLockPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, DefaultOptions())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if s.Path() != path {
		t.Errorf("expected Path() %q, got %q", path, s.Path())
	}
	if want := path + "-shm"; s.InternalLockPath() != want {
		t.Errorf("expected InternalLockPath() %q, got %q", want, s.InternalLockPath())
	}
}

func TestErrLockTimeoutMessage(t *testing.T) {
	err := &ErrLockTimeout{Attempts: 3}
	if got := err.Error(); got == "" {
		t.Error("expected non-empty error message")
	}
}
