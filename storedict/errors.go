package storedict

import "errors"

var (
	// ErrNotInitialized is returned when an operation is invoked
	// before Setup.
	ErrNotInitialized = errors.New("storedict: not initialized")

	// ErrLockTimeout is returned when the named mutex could not be
	// acquired within its bound.
	ErrLockTimeout = errors.New("storedict: mutex acquisition timed out")

	// ErrCapacityExceeded is returned when a store would make the
	// serialized table larger than the backing region.
	ErrCapacityExceeded = errors.New("storedict: serialization exceeds region size")

	// ErrCorruptRegion is returned by decode when the region payload
	// is not a well-formed StoreDict serialization.
	ErrCorruptRegion = errors.New("storedict: corrupt serialization")

	// ErrKeyNotFound is returned by Retrieve/RetrieveString when key
	// is absent.
	ErrKeyNotFound = errors.New("storedict: key not found")
)
