package pubsub

import "errors"

var (
	// ErrNotInitialized names the "operation before setup" error kind.
	// No operation in this package returns it: an operation before
	// Setup fails with storedict.ErrNotInitialized from the underlying
	// store.
	ErrNotInitialized = errors.New("pubsub: not initialized")
)
