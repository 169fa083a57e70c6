package cabi

import (
	"fmt"

	"github.com/shmkit/shmkit/internal/osfs"
	"github.com/shmkit/shmkit/storedict"
)

var storeDictHandles = newHandleTable()

// StoreDictCreate constructs a StoreDict named id with a region of
// size bytes and returns a handle to it. It does not call Setup.
func StoreDictCreate(id string, size int) Handle {
	d := storedict.New(osfs.NewReal(), id, size)
	return storeDictHandles.put(d)
}

func lookupStoreDict(h Handle) (*storedict.StoreDict, error) {
	v, ok := storeDictHandles.get(h)
	if !ok {
		return nil, ErrInvalidHandle
	}
	d, ok := v.(*storedict.StoreDict)
	if !ok {
		return nil, fmt.Errorf("%w: handle %d is not a StoreDict", ErrInvalidHandle, h)
	}
	return d, nil
}

// StoreDictSetup initializes the region and loads any existing table.
func StoreDictSetup(h Handle) error {
	d, err := lookupStoreDict(h)
	if err != nil {
		return err
	}
	return d.Setup()
}

// StoreDictStore inserts or overwrites key with value.
func StoreDictStore(h Handle, key string, value []byte) error {
	d, err := lookupStoreDict(h)
	if err != nil {
		return err
	}
	return d.Store(key, value)
}

// StoreDictRetrieve returns the value under key, or
// storedict.ErrKeyNotFound.
func StoreDictRetrieve(h Handle, key string) ([]byte, error) {
	d, err := lookupStoreDict(h)
	if err != nil {
		return nil, err
	}
	return d.Retrieve(key)
}

// StoreDictListKeys returns a snapshot of all keys.
func StoreDictListKeys(h Handle) ([]string, error) {
	d, err := lookupStoreDict(h)
	if err != nil {
		return nil, err
	}
	return d.ListKeys()
}

// StoreDictDestroy closes the StoreDict and invalidates h.
func StoreDictDestroy(h Handle) error {
	d, err := lookupStoreDict(h)
	if err != nil {
		return err
	}
	storeDictHandles.destroy(h)
	return d.Close()
}
