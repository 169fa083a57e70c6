// Package dispenser implements ShmDispenser: a bounded capacity ×
// item-size ring buffer in shared memory, supporting FIFO, LIFO, and
// DEQUE modes, coordinated across processes by one named mutex and two
// counting semaphores.
//
// The ring-buffer slot addressing follows the technique in
// AlephTX-aleph-tx/feeder/shm/ring.go (direct offset arithmetic into a
// mmap'd byte slice, no intermediate copy of the whole region). The
// named mutex and named semaphores are internal/shmsync's emulation
// (see SPEC_FULL.md §3), not POSIX objects: this module carries no
// cgo dependency.
package dispenser

import (
	"fmt"
	"os"
	"time"

	"github.com/shmkit/shmkit/internal/namedobj"
	"github.com/shmkit/shmkit/internal/osfs"
	"github.com/shmkit/shmkit/internal/shmsync"
	"github.com/shmkit/shmkit/region"
)

// waitTimeout is the bound spec.md §4.5's coordination table gives the
// pre-wait on the not_empty/not_full semaphores for add/dispense/peek
// operations.
const waitTimeout = 1 * time.Second

// mutexTimeout stands in for the "mutex ∞" unbounded wait in spec.md
// §4.5's coordination table. A real infinite wait would hang a caller
// forever behind a holder that never releases; this module instead uses
// a very long bound so that case eventually surfaces as ErrLockTimeout.
// A holder whose process dies drops its flock, which frees the mutex.
const mutexTimeout = 24 * time.Hour

// Dispenser is a bounded, multi-mode (FIFO/LIFO/DEQUE) ring buffer
// shared across processes.
type Dispenser struct {
	id         string
	mode       Mode
	capacity   uint64
	itemSize   uint64
	isProvider bool

	region   *region.Region
	mutex    *shmsync.Mutex
	notEmpty *shmsync.Semaphore
	notFull  *shmsync.Semaphore
}

// Setup opens or creates the named dispenser region. Passing
// capacity==0 and itemSize==0 means "join an existing dispenser, trust
// the provider's header" (the consumer case in spec.md §4.5); any
// other capacity/itemSize combination creates a new dispenser if one
// does not already exist, and this process becomes its provider,
// responsible for the one-time header initialization.
func Setup(fs osfs.FS, id string, mode Mode, capacity, itemSize uint64) (*Dispenser, error) {
	regionID := "ShmDispenser_" + id
	filePath := namedobj.DispenserRegionFile(id)

	_, statErr := fs.Stat(filePath)
	exists := statErr == nil

	d := &Dispenser{id: id, mode: mode}

	switch {
	case exists:
		h, err := readExistingHeader(fs, filePath)
		if err != nil {
			return nil, fmt.Errorf("%w: read existing header: %w", ErrSetupFailure, err)
		}
		d.mode = h.mode
		d.capacity = h.capacity
		d.itemSize = h.itemSize
		d.isProvider = false

		d.region = region.New(fs, regionID, int(regionSize(h.capacity, h.itemSize)))
		if err := d.region.Setup(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSetupFailure, err)
		}

	case capacity == 0 && itemSize == 0:
		return nil, fmt.Errorf("%w: no existing dispenser %q to join", ErrSetupFailure, id)

	default:
		d.capacity = capacity
		d.itemSize = itemSize
		d.isProvider = true

		d.region = region.New(fs, regionID, int(regionSize(capacity, itemSize)))
		if err := d.region.Setup(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSetupFailure, err)
		}

		writeHeader(d.region.Mapped(), header{
			mode:     mode,
			head:     0,
			tail:     0,
			count:    0,
			capacity: capacity,
			itemSize: itemSize,
		})
	}

	d.mutex = shmsync.NewMutex(fs, namedobj.DispenserMutexName(id))

	notEmpty, err := shmsync.NewSemaphore(fs, namedobj.DispenserNotEmptyName(id), 0)
	if err != nil {
		return nil, fmt.Errorf("%w: not-empty semaphore: %w", ErrSetupFailure, err)
	}
	notFull, err := shmsync.NewSemaphore(fs, namedobj.DispenserNotFullName(id), int64(d.capacity))
	if err != nil {
		return nil, fmt.Errorf("%w: not-full semaphore: %w", ErrSetupFailure, err)
	}
	d.notEmpty = notEmpty
	d.notFull = notFull

	return d, nil
}

// readExistingHeader opens filePath read-only just long enough to parse
// the header fields a consumer needs (capacity, item_size, mode)
// before it attaches its own region.Region at the right size. It must
// not write anything: only the provider initializes the header.
func readExistingHeader(fs osfs.FS, filePath string) (header, error) {
	f, err := fs.OpenFile(filePath, os.O_RDONLY, 0)
	if err != nil {
		return header{}, err
	}
	defer f.Close()

	buf := make([]byte, headerSize)
	if _, err := f.ReadAt(buf, 0); err != nil {
		return header{}, err
	}
	return readHeader(buf), nil
}

// Mode reports the dispenser's operating mode.
func (d *Dispenser) Mode() Mode { return d.mode }

// Capacity reports the dispenser's fixed slot capacity.
func (d *Dispenser) Capacity() uint64 { return d.capacity }

// ItemSize reports the dispenser's fixed maximum item size.
func (d *Dispenser) ItemSize() uint64 { return d.itemSize }

// IsProvider reports whether this process created (and therefore
// initialized the header of) the dispenser.
func (d *Dispenser) IsProvider() bool { return d.isProvider }

func (d *Dispenser) requireDeque(op string) error {
	if d.mode != DEQUE {
		return fmt.Errorf("%w: %s requires DEQUE mode", ErrModeViolation, op)
	}
	return nil
}

// Add appends data to the back of the buffer (FIFO, LIFO, DEQUE all
// support Add; see spec.md §4.5's index-rule table for how "back"
// differs by mode).
func (d *Dispenser) Add(data []byte) error {
	return d.add(data, false)
}

// AddFront inserts data at the front of the buffer. Valid only in
// DEQUE mode.
func (d *Dispenser) AddFront(data []byte) error {
	if err := d.requireDeque("add_front"); err != nil {
		return err
	}
	return d.add(data, true)
}

func (d *Dispenser) add(data []byte, front bool) error {
	if uint64(len(data)) > d.itemSize {
		return fmt.Errorf("%w: %d > %d", ErrCapacityExceeded, len(data), d.itemSize)
	}

	if err := d.notFull.Wait(waitTimeout); err != nil {
		return ErrFull
	}

	if err := d.mutex.Lock(mutexTimeout); err != nil {
		_ = d.notFull.Post(1)
		return fmt.Errorf("%w: %w", ErrLockTimeout, err)
	}

	buf := d.region.Mapped()
	h := readHeader(buf)

	var slot uint64
	switch {
	case front && d.mode == DEQUE:
		h.head = (h.head - 1 + h.capacity) % h.capacity
		slot = h.head
	case d.mode == LIFO:
		h.head = (h.head - 1 + h.capacity) % h.capacity
		slot = h.head
	default: // FIFO add, DEQUE add (back)
		slot = h.tail
		h.tail = (h.tail + 1) % h.capacity
	}

	writeSlot(buf, slot, d.itemSize, data)
	h.count++
	writeHeader(buf, h)

	d.mutex.Unlock()

	if err := d.notEmpty.Post(1); err != nil {
		return err
	}
	return nil
}

// Dispense removes and returns the item at the front of the buffer.
func (d *Dispenser) Dispense() ([]byte, error) {
	return d.dispense(false)
}

// DispenseBack removes and returns the item at the back of the buffer.
// Valid only in DEQUE mode.
func (d *Dispenser) DispenseBack() ([]byte, error) {
	if err := d.requireDeque("dispense_back"); err != nil {
		return nil, err
	}
	return d.dispense(true)
}

func (d *Dispenser) dispense(back bool) ([]byte, error) {
	if err := d.notEmpty.Wait(waitTimeout); err != nil {
		return nil, ErrEmpty
	}

	if err := d.mutex.Lock(mutexTimeout); err != nil {
		_ = d.notEmpty.Post(1)
		return nil, fmt.Errorf("%w: %w", ErrLockTimeout, err)
	}

	buf := d.region.Mapped()
	h := readHeader(buf)

	var slot uint64
	if back {
		h.tail = (h.tail - 1 + h.capacity) % h.capacity
		slot = h.tail
	} else {
		slot = h.head
		h.head = (h.head + 1) % h.capacity
	}

	out := readSlot(buf, slot, d.itemSize)
	h.count--
	writeHeader(buf, h)

	d.mutex.Unlock()

	if err := d.notFull.Post(1); err != nil {
		return nil, err
	}
	return out, nil
}

// Peek returns a copy of the item currently at the front of the buffer
// without removing it.
func (d *Dispenser) Peek() ([]byte, error) {
	return d.peek(false)
}

// PeekBack returns a copy of the item currently at the back of the
// buffer without removing it. Valid only in DEQUE mode.
func (d *Dispenser) PeekBack() ([]byte, error) {
	if err := d.requireDeque("peek_back"); err != nil {
		return nil, err
	}
	return d.peek(true)
}

// peek follows spec.md §4.5's literal coordination table rather than
// the simplified "check count>0 under mutex only" alternative noted in
// §9 point 4: it waits on not_empty to confirm non-emptiness and
// re-releases the same credit afterward, so the semaphore state is
// unchanged and the C-ABI facade's call pattern matches the original
// one-for-one. See SPEC_FULL.md §2.
func (d *Dispenser) peek(back bool) ([]byte, error) {
	if err := d.notEmpty.Wait(waitTimeout); err != nil {
		return nil, ErrEmpty
	}

	if err := d.mutex.Lock(mutexTimeout); err != nil {
		_ = d.notEmpty.Post(1)
		return nil, fmt.Errorf("%w: %w", ErrLockTimeout, err)
	}

	buf := d.region.Mapped()
	h := readHeader(buf)

	var slot uint64
	if back {
		slot = (h.tail - 1 + h.capacity) % h.capacity
	} else {
		slot = h.head
	}
	out := readSlot(buf, slot, d.itemSize)

	d.mutex.Unlock()

	if err := d.notEmpty.Post(1); err != nil {
		return nil, err
	}
	return out, nil
}

// IsEmpty reports whether the buffer currently holds no items.
func (d *Dispenser) IsEmpty() (bool, error) {
	h, err := d.snapshotHeader()
	if err != nil {
		return false, err
	}
	return h.count == 0, nil
}

// IsFull reports whether the buffer currently holds capacity items.
func (d *Dispenser) IsFull() (bool, error) {
	h, err := d.snapshotHeader()
	if err != nil {
		return false, err
	}
	return h.count == h.capacity, nil
}

func (d *Dispenser) snapshotHeader() (header, error) {
	if err := d.mutex.Lock(mutexTimeout); err != nil {
		return header{}, fmt.Errorf("%w: %w", ErrLockTimeout, err)
	}
	defer d.mutex.Unlock()

	return readHeader(d.region.Mapped()), nil
}

// Clear empties the buffer: under the mutex it resets head, tail, and
// count to zero, then drains old_count not_empty credits and releases
// capacity not_full credits, restoring the dispenser's invariants.
func (d *Dispenser) Clear() error {
	if err := d.mutex.Lock(mutexTimeout); err != nil {
		return fmt.Errorf("%w: %w", ErrLockTimeout, err)
	}

	buf := d.region.Mapped()
	h := readHeader(buf)
	oldCount := h.count

	h.head, h.tail, h.count = 0, 0, 0
	writeHeader(buf, h)

	d.mutex.Unlock()

	for i := uint64(0); i < oldCount; i++ {
		d.notEmpty.TryWait()
	}
	return d.notFull.Post(int64(d.capacity))
}

// Close closes the two semaphores, the mutex, and unmaps the region.
// The region itself persists as long as any process holds a handle; it
// is never deleted here.
func (d *Dispenser) Close() error {
	_ = d.notEmpty.Close()
	_ = d.notFull.Close()
	_ = d.mutex.Close()
	return d.region.Close()
}
