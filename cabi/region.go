package cabi

import (
	"fmt"
	"time"

	"github.com/shmkit/shmkit/internal/osfs"
	"github.com/shmkit/shmkit/region"
)

var regionHandles = newHandleTable()

// RegionCreate constructs a SharedRegion named id of size bytes and
// returns a handle to it. It does not call Setup.
func RegionCreate(id string, size int) Handle {
	r := region.New(osfs.NewReal(), id, size)
	return regionHandles.put(r)
}

func lookupRegion(h Handle) (*region.Region, error) {
	v, ok := regionHandles.get(h)
	if !ok {
		return nil, ErrInvalidHandle
	}
	r, ok := v.(*region.Region)
	if !ok {
		return nil, fmt.Errorf("%w: handle %d is not a Region", ErrInvalidHandle, h)
	}
	return r, nil
}

// RegionSetup opens-or-creates and maps the backing file.
func RegionSetup(h Handle) error {
	r, err := lookupRegion(h)
	if err != nil {
		return err
	}
	return r.Setup()
}

// RegionWrite copies data to the start of the region, unsynchronized.
func RegionWrite(h Handle, data []byte) error {
	r, err := lookupRegion(h)
	if err != nil {
		return err
	}
	return r.Write(data)
}

// RegionWriteLocked writes data under the region's advisory lock,
// waiting up to timeoutMs milliseconds to acquire it.
func RegionWriteLocked(h Handle, data []byte, timeoutMs int64) error {
	r, err := lookupRegion(h)
	if err != nil {
		return err
	}
	return r.WriteLocked(data, time.Duration(timeoutMs)*time.Millisecond)
}

// RegionRead returns a fresh copy of the full region.
func RegionRead(h Handle) ([]byte, error) {
	r, err := lookupRegion(h)
	if err != nil {
		return nil, err
	}
	return r.Read()
}

// RegionClear zeroes the entire region.
func RegionClear(h Handle) error {
	r, err := lookupRegion(h)
	if err != nil {
		return err
	}
	return r.Clear()
}

// RegionDestroy closes the region, invalidates h, and deletes the
// backing file.
func RegionDestroy(h Handle) error {
	r, err := lookupRegion(h)
	if err != nil {
		return err
	}
	regionHandles.destroy(h)
	return r.Unlink()
}
