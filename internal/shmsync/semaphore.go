package shmsync

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shmkit/shmkit/internal/advlock"
	"github.com/shmkit/shmkit/internal/osfs"
)

// semaphorePollInterval is the backoff step used while a Semaphore's
// Wait polls for an available credit. It is independent of
// advlock's own 10ms lock-acquisition poll: a Wait call may spend
// several lock-acquire-check-release cycles before a credit appears.
const semaphorePollInterval = 10 * time.Millisecond

// Semaphore is a named counting semaphore. The count is persisted in an
// 8-byte little-endian file guarded by a dedicated AdvisoryLock, so that
// every operation is a short lock/read/modify/write/unlock critical
// section rather than a long-held lock across the whole Wait.
type Semaphore struct {
	fs   osfs.FS
	path string
	mu   *advlock.AdvisoryLock
}

// NewSemaphore returns a named semaphore, creating its backing counter
// file with the given initial count if it does not already exist. If it
// exists, initial is ignored and the existing count is used — this is
// the "consumer joins, provider already initialized" case for
// ShmDispenser's two semaphores.
func NewSemaphore(fs osfs.FS, name string, initial int64) (*Semaphore, error) {
	path := filepath.Join(os.TempDir(), name+".sem")
	s := &Semaphore{
		fs:   fs,
		path: path,
		mu:   advlock.New(fs, path+".lock"),
	}

	if err := s.mu.Acquire(5 * time.Second); err != nil {
		return nil, fmt.Errorf("shmsync: semaphore %s: acquire init lock: %w", name, err)
	}
	defer s.mu.Release()

	if _, err := fs.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("shmsync: semaphore %s: stat: %w", name, err)
		}
		if err := s.writeCountLocked(initial); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *Semaphore) readCountLocked() (int64, error) {
	f, err := s.fs.OpenFile(s.path, os.O_RDONLY, 0o600)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var buf [8]byte
	if _, err := f.ReadAt(buf[:], 0); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(buf[:])), nil
}

func (s *Semaphore) writeCountLocked(n int64) error {
	f, err := s.fs.OpenFile(s.path, os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(n))
	_, err = f.WriteAt(buf[:], 0)
	return err
}

// Wait blocks until a credit is available or timeout elapses, then
// decrements the count by one. Returns advlock.ErrLockTimeout if no
// credit became available before timeout.
func (s *Semaphore) Wait(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for {
		if err := s.mu.Acquire(remaining(deadline)); err == nil {
			count, err := s.readCountLocked()
			if err != nil {
				s.mu.Release()
				return err
			}
			if count > 0 {
				err := s.writeCountLocked(count - 1)
				s.mu.Release()
				return err
			}
			s.mu.Release()
		}

		if time.Now().After(deadline) {
			return advlock.ErrLockTimeout
		}
		time.Sleep(semaphorePollInterval)
	}
}

// TryWait attempts a single zero-wait decrement, used by ShmDispenser's
// clear operation to drain outstanding not_empty credits without
// blocking.
func (s *Semaphore) TryWait() bool {
	if err := s.mu.Acquire(100 * time.Millisecond); err != nil {
		return false
	}
	defer s.mu.Release()

	count, err := s.readCountLocked()
	if err != nil || count <= 0 {
		return false
	}
	return s.writeCountLocked(count-1) == nil
}

// Post increments the count by n.
func (s *Semaphore) Post(n int64) error {
	if err := s.mu.Acquire(5 * time.Second); err != nil {
		return err
	}
	defer s.mu.Release()

	count, err := s.readCountLocked()
	if err != nil {
		return err
	}
	return s.writeCountLocked(count + n)
}

// Close releases any resources held by the semaphore. The backing
// counter file persists, matching spec.md's "region persists as long as
// one process holds a handle" rule for ShmDispenser's named objects.
func (s *Semaphore) Close() error {
	return s.mu.Close()
}

func remaining(deadline time.Time) time.Duration {
	d := time.Until(deadline)
	if d < 0 {
		return 0
	}
	// Cap each individual mutex-acquire attempt so Wait's outer loop
	// can re-check the overall deadline instead of blocking on a
	// single long Acquire call.
	const step = 25 * time.Millisecond
	if d > step {
		return step
	}
	return d
}
