package cabi

import (
	"fmt"

	"github.com/shmkit/shmkit/dispenser"
	"github.com/shmkit/shmkit/internal/osfs"
)

var dispenserHandles = newHandleTable()

// DispenserCreate opens or creates a named ShmDispenser and returns a
// handle to it. Pass capacity==0 and itemSize==0 to join an existing
// dispenser as a consumer. Unlike StoreDictCreate, this performs setup
// immediately: a dispenser's identity (provider vs consumer) is decided
// at open time, so there is no meaningful separate create/setup split.
func DispenserCreate(id string, mode dispenser.Mode, capacity, itemSize uint64) (Handle, error) {
	d, err := dispenser.Setup(osfs.NewReal(), id, mode, capacity, itemSize)
	if err != nil {
		return 0, err
	}
	return dispenserHandles.put(d), nil
}

func lookupDispenser(h Handle) (*dispenser.Dispenser, error) {
	v, ok := dispenserHandles.get(h)
	if !ok {
		return nil, ErrInvalidHandle
	}
	d, ok := v.(*dispenser.Dispenser)
	if !ok {
		return nil, fmt.Errorf("%w: handle %d is not a Dispenser", ErrInvalidHandle, h)
	}
	return d, nil
}

// DispenserAdd appends data to the back of the buffer.
func DispenserAdd(h Handle, data []byte) error {
	d, err := lookupDispenser(h)
	if err != nil {
		return err
	}
	return d.Add(data)
}

// DispenserAddFront inserts data at the front of the buffer (DEQUE
// only).
func DispenserAddFront(h Handle, data []byte) error {
	d, err := lookupDispenser(h)
	if err != nil {
		return err
	}
	return d.AddFront(data)
}

// DispenserDispense removes and returns the item at the front.
func DispenserDispense(h Handle) ([]byte, error) {
	d, err := lookupDispenser(h)
	if err != nil {
		return nil, err
	}
	return d.Dispense()
}

// DispenserDispenseBack removes and returns the item at the back
// (DEQUE only).
func DispenserDispenseBack(h Handle) ([]byte, error) {
	d, err := lookupDispenser(h)
	if err != nil {
		return nil, err
	}
	return d.DispenseBack()
}

// DispenserPeek returns a copy of the front item without removing it.
func DispenserPeek(h Handle) ([]byte, error) {
	d, err := lookupDispenser(h)
	if err != nil {
		return nil, err
	}
	return d.Peek()
}

// DispenserPeekBack returns a copy of the back item without removing it
// (DEQUE only).
func DispenserPeekBack(h Handle) ([]byte, error) {
	d, err := lookupDispenser(h)
	if err != nil {
		return nil, err
	}
	return d.PeekBack()
}

// DispenserIsEmpty reports whether the buffer holds no items.
func DispenserIsEmpty(h Handle) (bool, error) {
	d, err := lookupDispenser(h)
	if err != nil {
		return false, err
	}
	return d.IsEmpty()
}

// DispenserIsFull reports whether the buffer is at capacity.
func DispenserIsFull(h Handle) (bool, error) {
	d, err := lookupDispenser(h)
	if err != nil {
		return false, err
	}
	return d.IsFull()
}

// DispenserClear empties the buffer.
func DispenserClear(h Handle) error {
	d, err := lookupDispenser(h)
	if err != nil {
		return err
	}
	return d.Clear()
}

// DispenserDestroy closes the dispenser and invalidates h. The backing
// region file is not deleted, even after every process has done the
// same.
func DispenserDestroy(h Handle) error {
	d, err := lookupDispenser(h)
	if err != nil {
		return err
	}
	dispenserHandles.destroy(h)
	return d.Close()
}
