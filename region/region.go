// Package region implements SharedRegion: a named, file-backed,
// fixed-size byte region that multiple processes can attach to and
// write to under a cross-process advisory lock.
//
// Grounded on the mmap/munmap technique in
// AlephTX-aleph-tx/feeder/shm/ring.go and matrix.go, adapted to use
// golang.org/x/sys/unix instead of the older syscall package, and
// composed with internal/advlock for the locked write path spec.md
// §4.2 calls write_locked.
package region

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/shmkit/shmkit/internal/advlock"
	"github.com/shmkit/shmkit/internal/namedobj"
	"github.com/shmkit/shmkit/internal/osfs"
)

// Sentinel errors, per spec.md §7's error-kind catalogue.
var (
	ErrSetupFailure     = errors.New("region: setup failure")
	ErrNotInitialized   = errors.New("region: not initialized")
	ErrCapacityExceeded = errors.New("region: write exceeds region size")
)

// Region is a named, file-backed fixed-size byte region guarded by an
// owned AdvisoryLock rooted at the same backing file.
//
// A Region is not safe for concurrent use by multiple goroutines; the
// owning component (StoreDict, ShmDispenser) is responsible for any
// additional in-process serialization beyond the cross-process lock.
type Region struct {
	fs       osfs.FS
	id       string
	size     int
	filePath string

	file   osfs.File
	mapped []byte

	lock *advlock.AdvisoryLock
}

// New constructs a Region named id of exactly size bytes. The backing
// file is <OS_TEMP>/<id>.bin, per spec.md §6.
func New(fs osfs.FS, id string, size int) *Region {
	path := namedobj.RegionFile(id)
	return &Region{
		fs:       fs,
		id:       id,
		size:     size,
		filePath: path,
		lock:     advlock.New(fs, path),
	}
}

// ID returns the region's name.
func (r *Region) ID() string { return r.id }

// Size returns the region's fixed byte size.
func (r *Region) Size() int { return r.size }

// FilePath returns the backing file path.
func (r *Region) FilePath() string { return r.filePath }

// Setup opens or creates the backing file, extends it to Size bytes if
// it was just created (zero-length), and maps it into the process's
// address space. Any failure leaves no partially-acquired OS handles.
func (r *Region) Setup() error {
	if r.mapped != nil {
		return nil
	}

	file, err := r.fs.OpenFile(r.filePath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrSetupFailure, r.filePath, err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("%w: stat %s: %w", ErrSetupFailure, r.filePath, err)
	}

	if info.Size() == 0 {
		if err := file.Truncate(int64(r.size)); err != nil {
			_ = file.Close()
			return fmt.Errorf("%w: truncate %s: %w", ErrSetupFailure, r.filePath, err)
		}
	} else if info.Size() < int64(r.size) {
		if err := file.Truncate(int64(r.size)); err != nil {
			_ = file.Close()
			return fmt.Errorf("%w: extend %s: %w", ErrSetupFailure, r.filePath, err)
		}
	}

	mapped, err := unix.Mmap(int(file.Fd()), 0, r.size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("%w: mmap %s: %w", ErrSetupFailure, r.filePath, err)
	}

	r.file = file
	r.mapped = mapped
	return nil
}

// Write copies n=len(b) bytes to the start of the mapped region and
// flushes them. It requires len(b) <= Size and is not internally
// synchronized against other processes; callers needing cross-process
// exclusion use WriteLocked.
func (r *Region) Write(b []byte) error {
	if r.mapped == nil {
		return ErrNotInitialized
	}
	if len(b) > r.size {
		return fmt.Errorf("%w: %d > %d", ErrCapacityExceeded, len(b), r.size)
	}

	copy(r.mapped, b)
	return unix.Msync(r.mapped[:len(b)], unix.MS_SYNC)
}

// WriteLocked acquires the region's advisory lock, performs Write, and
// releases the lock. On lock timeout it returns advlock.ErrLockTimeout
// without writing.
func (r *Region) WriteLocked(b []byte, timeout time.Duration) error {
	if err := r.lock.Acquire(timeout); err != nil {
		return err
	}
	defer r.lock.Release()

	return r.Write(b)
}

// Read returns a fresh heap copy of the full region.
func (r *Region) Read() ([]byte, error) {
	if r.mapped == nil {
		return nil, ErrNotInitialized
	}

	out := make([]byte, r.size)
	copy(out, r.mapped)
	return out, nil
}

// ReadLengthPrefixed reads the first 4 bytes as a little-endian u32
// length L, then returns the next L bytes. It fails if L > Size-4.
//
// StoreDict never calls this: per SPEC_FULL.md §2, the StoreDict
// serialization begins directly at offset 0 with its version field, so
// StoreDict always uses Read/Write. This accessor exists for other
// plain-SharedRegion callers per spec.md §4.2.
func (r *Region) ReadLengthPrefixed() ([]byte, error) {
	if r.mapped == nil {
		return nil, ErrNotInitialized
	}
	if r.size < 4 {
		return nil, fmt.Errorf("%w: region too small for length prefix", ErrCapacityExceeded)
	}

	l := binary.LittleEndian.Uint32(r.mapped[:4])
	if int(l) > r.size-4 {
		return nil, fmt.Errorf("%w: prefixed length %d exceeds region", ErrCapacityExceeded, l)
	}

	out := make([]byte, l)
	copy(out, r.mapped[4:4+int(l)])
	return out, nil
}

// Clear zeroes the entire region and flushes.
func (r *Region) Clear() error {
	if r.mapped == nil {
		return ErrNotInitialized
	}
	for i := range r.mapped {
		r.mapped[i] = 0
	}
	return unix.Msync(r.mapped, unix.MS_SYNC)
}

// Close unmaps the region and closes the backing file. It does not
// delete the file; use Unlink for that.
func (r *Region) Close() error {
	if r.mapped == nil {
		return nil
	}

	err := unix.Munmap(r.mapped)
	r.mapped = nil

	closeErr := r.file.Close()
	r.file = nil

	if err != nil {
		return err
	}
	return closeErr
}

// Unlink closes the region, then deletes the backing file. Idempotent
// on an already-absent file.
func (r *Region) Unlink() error {
	if err := r.Close(); err != nil {
		return err
	}
	return r.fs.Remove(r.filePath)
}

// Mapped returns the live mmap'd slice backing the region, not a copy.
// Most callers want Read/Write; Mapped exists for components like
// dispenser that address individual fields and slots in place rather
// than serializing the whole region on every access.
func (r *Region) Mapped() []byte {
	return r.mapped
}

// Lock exposes the region's owned AdvisoryLock for callers that need to
// serialize a larger critical section than a single Write. storedict and
// shmsync do not use it; they take their own named mutexes.
func (r *Region) Lock() *advlock.AdvisoryLock {
	return r.lock
}
