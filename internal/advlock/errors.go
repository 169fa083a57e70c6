package advlock

import "errors"

// ErrLockTimeout is returned when acquiring the lock did not succeed
// before the caller's timeout elapsed.
var ErrLockTimeout = errors.New("advlock: lock timeout")

// ErrSetupFailure is returned when the lock file itself could not be
// opened or created.
var ErrSetupFailure = errors.New("advlock: setup failure")
