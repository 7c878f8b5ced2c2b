package dream

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
)

func TestAcquireLockSucceedsWhenFree(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dream.lock")
	fl, err := acquireLock(path, time.Second)
	if err != nil {
		t.Fatalf("acquire lock: %v", err)
	}
	defer fl.Unlock()
}

func TestAcquireLockTimesOutWhenHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dream.lock")

	holder := flock.New(path)
	locked, err := holder.TryLock()
	if err != nil || !locked {
		t.Fatalf("could not take the holding lock: locked=%v err=%v", locked, err)
	}
	defer holder.Unlock()

	_, err = acquireLock(path, 250*time.Millisecond)
	if _, busy := err.(*ErrLockBusy); !busy {
		t.Fatalf("expected *ErrLockBusy when the lock is already held, got %v", err)
	}
}
