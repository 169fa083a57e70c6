package dispenser

import "errors"

var (
	// ErrNotInitialized names the "operation before setup" error kind.
	// No operation in this package returns it: a Dispenser is only
	// obtained from Setup, which attaches it before returning.
	ErrNotInitialized = errors.New("dispenser: not initialized")

	// ErrSetupFailure is returned when the backing region, mutex, or
	// semaphores could not be created or attached.
	ErrSetupFailure = errors.New("dispenser: setup failure")

	// ErrLockTimeout is returned when the mutex could not be acquired
	// within its bound. A semaphore pre-wait that times out surfaces as
	// ErrFull or ErrEmpty instead.
	ErrLockTimeout = errors.New("dispenser: timed out waiting on mutex")

	// ErrFull is the pre-wait timeout surfaced to a caller of
	// add/add_front when the dispenser stayed at capacity for the
	// whole wait.
	ErrFull = errors.New("dispenser: full")

	// ErrEmpty is the pre-wait timeout surfaced to a caller of
	// dispense/dispense_back/peek/peek_back when the dispenser stayed
	// empty for the whole wait.
	ErrEmpty = errors.New("dispenser: empty")

	// ErrCapacityExceeded is returned when a stored item is larger
	// than item_size. Checked before any primitive is acquired.
	ErrCapacityExceeded = errors.New("dispenser: item larger than item_size")

	// ErrModeViolation is returned by add_front, dispense_back, and
	// peek_back when the dispenser's mode is not DEQUE. This is a
	// programmer error: fail fast, per spec.md §7.
	ErrModeViolation = errors.New("dispenser: operation not valid in this mode")
)
