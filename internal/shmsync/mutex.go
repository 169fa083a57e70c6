// Package shmsync emulates the C original's named mutex and named
// counting semaphore on top of a plain advisory lock, since this module
// deliberately avoids cgo (see SPEC_FULL.md §3). A Mutex is just an
// [advlock.AdvisoryLock] keyed by name; a Semaphore is a small counter
// file guarded by its own AdvisoryLock, with Wait implemented as
// poll-and-decrement, matching the shape of internal/fs.Locker's
// lockPolling in the teacher repo.
package shmsync

import (
	"os"
	"path/filepath"
	"time"

	"github.com/shmkit/shmkit/internal/advlock"
	"github.com/shmkit/shmkit/internal/osfs"
)

// Mutex is a named, cross-process mutual exclusion primitive.
type Mutex struct {
	lock *advlock.AdvisoryLock
}

// NewMutex returns a named mutex. Two Mutex values constructed with the
// same name and the same filesystem root rendezvous on the same
// backing lock file.
func NewMutex(fs osfs.FS, name string) *Mutex {
	path := filepath.Join(os.TempDir(), name+".mutex")
	return &Mutex{lock: advlock.New(fs, path)}
}

// Lock acquires the mutex, waiting up to timeout.
func (m *Mutex) Lock(timeout time.Duration) error {
	return m.lock.Acquire(timeout)
}

// Unlock releases the mutex. Safe to call when not held.
func (m *Mutex) Unlock() {
	m.lock.Release()
}

// Close releases the mutex if held.
func (m *Mutex) Close() error {
	return m.lock.Close()
}
