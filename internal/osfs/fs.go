// Package osfs provides a filesystem abstraction used by the region and
// lock layers so that tests can exercise setup/teardown paths without
// depending on the exact error values the host OS returns.
//
// The main types are:
//   - [FS]: interface for filesystem operations
//   - [File]: interface for open files (satisfied by [os.File])
//   - [Real]: production implementation using [os]
package osfs

import (
	"io"
	"os"
)

// File represents an open file descriptor.
//
// This interface is satisfied by [os.File] and can be used with all
// standard library functions that accept [io.Reader], [io.Writer],
// [io.Seeker], or [io.Closer].
type File interface {
	io.ReadWriteCloser
	io.Seeker
	io.ReaderAt
	io.WriterAt

	// Fd returns the file descriptor. Used for [syscall.Flock] and
	// mmap.
	Fd() uintptr

	// Stat returns the [os.FileInfo] for this file.
	Stat() (os.FileInfo, error)

	// Truncate changes the size of the file.
	Truncate(size int64) error

	// Sync commits the file's contents to disk.
	Sync() error
}

// FS defines the filesystem operations needed to back a [region.Region]
// and an [advlock.AdvisoryLock].
//
// [Real] is the only production implementation; a fake is useful for
// exercising setup-failure paths in tests.
type FS interface {
	// Open opens a file for reading. See [os.Open].
	Open(path string) (File, error)

	// OpenFile opens a file with specified flags and permissions. See
	// [os.OpenFile].
	OpenFile(path string, flag int, perm os.FileMode) (File, error)

	// Stat returns file info. See [os.Stat].
	Stat(path string) (os.FileInfo, error)

	// Remove deletes a file. See [os.Remove]. Idempotent: returns nil
	// if the file does not exist.
	Remove(path string) error
}

// Compile-time interface check.
var _ File = (*os.File)(nil)
