// Package advlock implements the named, exclusive, bounded-wait file
// lock used as the write-side critical section for [region.Region] and,
// by extension, for the emulated named mutex and named semaphores in
// internal/shmsync.
//
// The lock is a plain flock(2) on a companion "<path>.lock" file, not a
// process mutex: if the holder dies, the OS closes the descriptor and
// the lock is released automatically. Acquisition polls every 10ms
// until the caller's timeout elapses, mirroring the Windows
// CreateFile/ERROR_SHARING_VIOLATION retry loop in the original C
// implementation's lock.c.
package advlock

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/shmkit/shmkit/internal/osfs"
)

// pollInterval is the fixed retry interval mandated by spec.md §4.1.
// Unlike the teacher's own internal/fs.Locker (exponential 1ms..25ms
// backoff), this lock polls at a constant interval: the spec's
// coordination tables for ShmDispenser and the S6 end-to-end scenario
// assume a fixed, known poll period.
const pollInterval = 10 * time.Millisecond

const (
	lockFilePerm    = 0o600
	maxEINTRRetries = 10000
)

// AdvisoryLock is a named, exclusive, bounded-wait file lock rooted at
// basePath. The backing lock file is basePath + ".lock".
//
// An AdvisoryLock is not safe for concurrent use by multiple goroutines
// without external synchronization; region.Region adds none, and leaves
// in-process serialization of its lock to its owner.
type AdvisoryLock struct {
	fs       osfs.FS
	basePath string
	lockPath string

	file osfs.File // non-nil while held
}

// New returns an AdvisoryLock rooted at basePath. The lock is not held
// until Acquire succeeds.
func New(fs osfs.FS, basePath string) *AdvisoryLock {
	return &AdvisoryLock{
		fs:       fs,
		basePath: basePath,
		lockPath: basePath + ".lock",
	}
}

// LockPath returns the companion lock file path.
func (l *AdvisoryLock) LockPath() string {
	return l.lockPath
}

// Acquire attempts to take the lock before timeout elapses. Re-acquiring
// a lock this instance already holds is a no-op success. On timeout it
// returns ErrLockTimeout. On any other failure to open or flock the
// backing file it returns an error wrapping ErrSetupFailure.
func (l *AdvisoryLock) Acquire(timeout time.Duration) error {
	if l.file != nil {
		return nil
	}

	deadline := time.Now().Add(timeout)

	for {
		file, err := l.fs.OpenFile(l.lockPath, os.O_CREATE|os.O_RDWR, lockFilePerm)
		if err != nil {
			return fmt.Errorf("%w: open %s: %w", ErrSetupFailure, l.lockPath, err)
		}

		flockErr := flockRetryEINTR(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if flockErr == nil {
			ok, err := inodeMatchesPath(file, l.lockPath)
			if err != nil {
				_ = unix.Flock(int(file.Fd()), unix.LOCK_UN)
				_ = file.Close()
				return fmt.Errorf("%w: stat %s: %w", ErrSetupFailure, l.lockPath, err)
			}
			if !ok {
				// The file was replaced between open and flock; retry
				// against whatever now exists at lockPath.
				_ = unix.Flock(int(file.Fd()), unix.LOCK_UN)
				_ = file.Close()
				if time.Now().After(deadline) {
					return ErrLockTimeout
				}
				time.Sleep(pollInterval)
				continue
			}

			l.file = file
			return nil
		}

		_ = file.Close()

		if flockErr != unix.EWOULDBLOCK {
			return fmt.Errorf("%w: flock %s: %w", ErrSetupFailure, l.lockPath, flockErr)
		}

		if time.Now().After(deadline) {
			return ErrLockTimeout
		}

		time.Sleep(pollInterval)
	}
}

// Release releases the lock and reports whether it had been held. It is
// idempotent: releasing an unheld lock returns false and does nothing.
func (l *AdvisoryLock) Release() bool {
	if l.file == nil {
		return false
	}

	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	_ = l.file.Close()
	_ = l.fs.Remove(l.lockPath)
	l.file = nil

	return true
}

// Close releases the lock if held. It never returns an error: per
// spec.md §7, destructors log and swallow.
func (l *AdvisoryLock) Close() error {
	l.Release()
	return nil
}

// Held reports whether this instance currently holds the lock.
func (l *AdvisoryLock) Held() bool {
	return l.file != nil
}

func flockRetryEINTR(fd int, how int) error {
	for i := 0; i < maxEINTRRetries; i++ {
		err := unix.Flock(fd, how)
		if err != unix.EINTR {
			return err
		}
	}
	return unix.EINTR
}

// inodeMatchesPath reports whether the still-open file descriptor and
// the path it was opened from currently refer to the same inode. This
// guards against a lock-file-replacement race: another process could
// delete and recreate the lock file between our open and our flock.
func inodeMatchesPath(file osfs.File, path string) (bool, error) {
	var openStat unix.Stat_t
	if err := unix.Fstat(int(file.Fd()), &openStat); err != nil {
		return false, err
	}

	var pathStat unix.Stat_t
	if err := unix.Stat(path, &pathStat); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	return openStat.Ino == pathStat.Ino && openStat.Dev == pathStat.Dev, nil
}
