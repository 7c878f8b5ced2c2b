package dream

import (
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

// ErrLockBusy is returned when the dream lock cannot be acquired within
// the configured timeout — another dream worker, or the foreground
// process, holds it.
type ErrLockBusy struct {
	Path string
}

func (e *ErrLockBusy) Error() string {
	return fmt.Sprintf("could not acquire dream lock %s: in use", e.Path)
}

// acquireLock polls flock.TryLock at a fixed interval until it succeeds
// or timeout elapses, mirroring filelock.FileLock(timeout=...)'s busy-wait.
func acquireLock(path string, timeout time.Duration) (*flock.Flock, error) {
	fl := flock.New(path)

	deadline := time.Now().Add(timeout)
	for {
		locked, err := fl.TryLock()
		if err != nil {
			return nil, fmt.Errorf("dream lock %s: %w", path, err)
		}
		if locked {
			return fl, nil
		}
		if time.Now().After(deadline) {
			return nil, &ErrLockBusy{Path: path}
		}
		time.Sleep(100 * time.Millisecond)
	}
}
