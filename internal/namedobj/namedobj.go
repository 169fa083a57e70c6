// Package namedobj centralizes the on-disk path and OS-object naming
// grammar from spec.md §6, so every component derives names the same
// way instead of each hand-rolling its own string concatenation.
package namedobj

import (
	"os"
	"path/filepath"
)

// RegionFile returns the backing file path for a plain SharedRegion or
// StoreDict named id: <OS_TEMP>/<id>.bin.
func RegionFile(id string) string {
	return filepath.Join(os.TempDir(), id+".bin")
}

// DispenserRegionFile returns the backing file path for a ShmDispenser
// named id: <OS_TEMP>/ShmDispenser_<id>.bin.
func DispenserRegionFile(id string) string {
	return filepath.Join(os.TempDir(), "ShmDispenser_"+id+".bin")
}

// StoreDictMutexName returns the named-mutex id used for a StoreDict's
// cross-process critical section.
func StoreDictMutexName(id string) string {
	return "StoreDictPattern_Mutex_" + id
}

// DispenserMutexName returns the named-mutex id used for a
// ShmDispenser's cross-process critical section.
func DispenserMutexName(id string) string {
	return "ShmDispenser_Mutex_" + id
}

// DispenserNotEmptyName returns the named-semaphore id that tracks
// "at least one item present" for a ShmDispenser.
func DispenserNotEmptyName(id string) string {
	return "ShmDispenser_NotEmpty_" + id
}

// DispenserNotFullName returns the named-semaphore id that tracks
// "at least one free slot" for a ShmDispenser.
func DispenserNotFullName(id string) string {
	return "ShmDispenser_NotFull_" + id
}
