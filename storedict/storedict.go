// Package storedict implements StoreDict: a key→bytes mapping
// serialized wholesale into one region.Region, versioned, and guarded
// by a named mutex for cross-process critical sections.
//
// Grounded on region.Region for the backing store and on the binary
// header-encoding idiom in
// calvinalkan-agent-task/pkg/slotcache/format.go (fixed-width
// little-endian fields read with encoding/binary), adapted to the
// variable-length, fully-resynced-on-write layout spec.md §4.3 and §6
// specify, rather than slotcache's fixed-slot hash table.
package storedict

import (
	"errors"
	"fmt"
	"time"

	"github.com/shmkit/shmkit/internal/namedobj"
	"github.com/shmkit/shmkit/internal/osfs"
	"github.com/shmkit/shmkit/internal/shmsync"
	"github.com/shmkit/shmkit/region"
)

// mutexTimeout is the bound spec.md §4.3 gives every StoreDict
// operation's mutex acquisition.
const mutexTimeout = 5 * time.Second

// StoreDict is a versioned key→bytes table layered over one
// region.Region.
type StoreDict struct {
	id     string
	region *region.Region
	mutex  *shmsync.Mutex

	entries []Entry
	version uint32

	initialized bool
}

// New constructs a StoreDict named id whose backing region is size
// bytes.
func New(fs osfs.FS, id string, size int) *StoreDict {
	return &StoreDict{
		id:     id,
		region: region.New(fs, id, size),
		mutex:  shmsync.NewMutex(fs, namedobj.StoreDictMutexName(id)),
	}
}

// Setup initializes the underlying region, acquires the mutex, and
// loads any existing serialization into the in-memory table. A store
// that does not exist yet starts with an empty table.
func (d *StoreDict) Setup() error {
	if err := d.region.Setup(); err != nil {
		return err
	}

	if err := d.mutex.Lock(mutexTimeout); err != nil {
		return fmt.Errorf("%w: %w", ErrLockTimeout, err)
	}
	defer d.mutex.Unlock()

	if err := d.loadLocked(); err != nil && !errors.Is(err, ErrCorruptRegion) {
		return err
	}

	d.initialized = true
	return nil
}

func (d *StoreDict) loadLocked() error {
	buf, err := d.region.Read()
	if err != nil {
		return err
	}

	// An all-zero region (freshly created, never synced) decodes as
	// version 0, count 0 — a valid empty table, not corruption.
	version, entries, err := decode(buf)
	if err != nil {
		d.entries = nil
		d.version = 0
		return err
	}

	d.version = version
	d.entries = entries
	return nil
}

// Load reparses the region into the in-memory table, replacing it
// wholesale.
func (d *StoreDict) Load() error {
	if !d.initialized {
		return ErrNotInitialized
	}

	if err := d.mutex.Lock(mutexTimeout); err != nil {
		return fmt.Errorf("%w: %w", ErrLockTimeout, err)
	}
	defer d.mutex.Unlock()

	return d.loadLocked()
}

// indexOf returns the index of key in d.entries, or -1.
func (d *StoreDict) indexOf(key string) int {
	for i, e := range d.entries {
		if e.Key == key {
			return i
		}
	}
	return -1
}

// Store inserts or overwrites key with value. Overwriting an existing
// key updates it in place; a new key is appended, preserving
// list-order for existing keys. If the resulting serialization would
// exceed the region size, the store fails and the in-memory table is
// left unchanged.
func (d *StoreDict) Store(key string, value []byte) error {
	if !d.initialized {
		return ErrNotInitialized
	}

	if err := d.mutex.Lock(mutexTimeout); err != nil {
		return fmt.Errorf("%w: %w", ErrLockTimeout, err)
	}
	defer d.mutex.Unlock()

	// Reflect any other process's writes before mutating, per the
	// StoreDict invariant that the in-memory copy tracks the region as
	// of its most recent load.
	if err := d.loadLocked(); err != nil && !errors.Is(err, ErrCorruptRegion) {
		return err
	}

	next := append([]Entry(nil), d.entries...)
	valCopy := append([]byte(nil), value...)
	if i := d.indexOf(key); i >= 0 {
		next[i] = Entry{Key: key, Value: valCopy}
	} else {
		next = append(next, Entry{Key: key, Value: valCopy})
	}

	if encodedSize(next) > d.region.Size() {
		return fmt.Errorf("%w: %d > %d", ErrCapacityExceeded, encodedSize(next), d.region.Size())
	}

	nextVersion := d.version + 1
	if err := d.region.Write(encode(nextVersion, next)); err != nil {
		return err
	}

	d.entries = next
	d.version = nextVersion
	return nil
}

// StoreString stores a string value as its UTF-8 bytes.
func (d *StoreDict) StoreString(key, value string) error {
	return d.Store(key, []byte(value))
}

// Retrieve returns a fresh heap copy of the value under key, reloading
// from the region first to reflect other processes' writes.
func (d *StoreDict) Retrieve(key string) ([]byte, error) {
	if !d.initialized {
		return nil, ErrNotInitialized
	}

	if err := d.mutex.Lock(mutexTimeout); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLockTimeout, err)
	}
	defer d.mutex.Unlock()

	if err := d.loadLocked(); err != nil && !errors.Is(err, ErrCorruptRegion) {
		return nil, err
	}

	if i := d.indexOf(key); i >= 0 {
		return append([]byte(nil), d.entries[i].Value...), nil
	}
	return nil, ErrKeyNotFound
}

// RetrieveString is Retrieve treating the value as a string.
func (d *StoreDict) RetrieveString(key string) (string, error) {
	b, err := d.Retrieve(key)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ListKeys returns a snapshot of all keys in insertion order, reloading
// from the region first.
func (d *StoreDict) ListKeys() ([]string, error) {
	if !d.initialized {
		return nil, ErrNotInitialized
	}

	if err := d.mutex.Lock(mutexTimeout); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLockTimeout, err)
	}
	defer d.mutex.Unlock()

	if err := d.loadLocked(); err != nil && !errors.Is(err, ErrCorruptRegion) {
		return nil, err
	}

	keys := make([]string, len(d.entries))
	for i, e := range d.entries {
		keys[i] = e.Key
	}
	return keys, nil
}

// Sync recomputes the required buffer size for the current in-memory
// table and writes version+count+entries to the region. It returns
// ErrCapacityExceeded without writing if the table no longer fits.
func (d *StoreDict) Sync() error {
	if !d.initialized {
		return ErrNotInitialized
	}

	if err := d.mutex.Lock(mutexTimeout); err != nil {
		return fmt.Errorf("%w: %w", ErrLockTimeout, err)
	}
	defer d.mutex.Unlock()

	if encodedSize(d.entries) > d.region.Size() {
		return ErrCapacityExceeded
	}

	nextVersion := d.version + 1
	if err := d.region.Write(encode(nextVersion, d.entries)); err != nil {
		return err
	}
	d.version = nextVersion
	return nil
}

// Version returns the current in-memory version counter.
func (d *StoreDict) Version() uint32 {
	return d.version
}

// Close closes the mutex and the underlying region. Safe to call more
// than once.
func (d *StoreDict) Close() error {
	_ = d.mutex.Close()
	return d.region.Close()
}

// Unlink closes the StoreDict and deletes its backing region file.
func (d *StoreDict) Unlink() error {
	_ = d.mutex.Close()
	return d.region.Unlink()
}

