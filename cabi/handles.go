// Package cabi is the C-ABI facade: a flat function table per pattern
// — {create, setup, op…, destroy} — operating on opaque integer
// handles, for a thin client-language binding.
//
// Grounded on cross_ipc_export.h's CROSS_IPC_API export macro pattern
// and on the method tables in store_dict_pattern.h and
// shm_dispenser_pattern.h. This module carries no cgo dependency (see
// SPEC_FULL.md §3), so these functions are plain exported Go functions
// over integer handles rather than `//export`-annotated C entry
// points; a cgo shim wrapping this package in a future build is a
// mechanical exercise this module does not take on, since nothing in
// the example pack uses cgo either.
package cabi

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrInvalidHandle is returned when a Handle does not (or no longer)
// refer to a live object, including after Destroy has been called on
// it.
var ErrInvalidHandle = errors.New("cabi: invalid handle")

// Handle is an opaque reference returned by every *Create function.
type Handle uint64

// handleTable maps Handle values to live Go objects, the C-ABI
// equivalent of the original's per-pattern pointer returned to the
// caller.
type handleTable struct {
	next    atomic.Uint64
	objects sync.Map // Handle -> any
}

func newHandleTable() *handleTable {
	return &handleTable{}
}

func (t *handleTable) put(v any) Handle {
	id := Handle(t.next.Add(1))
	t.objects.Store(id, v)
	return id
}

func (t *handleTable) get(h Handle) (any, bool) {
	return t.objects.Load(h)
}

// destroy removes h from the table. It reports whether h was present;
// per spec.md §9's "destroy" note, this is the facade's substitute for
// the original's handle-struct free — the underlying Go object is
// simply no longer reachable through cabi once this returns.
func (t *handleTable) destroy(h Handle) bool {
	_, ok := t.objects.LoadAndDelete(h)
	return ok
}
