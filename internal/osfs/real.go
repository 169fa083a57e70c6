package osfs

import "os"

// Real implements [FS] using the real filesystem. Every method is a pure
// passthrough to the [os] package with identical behavior and error
// semantics, except [Real.Remove] which treats a missing file as success.
type Real struct{}

// NewReal returns a new [Real] filesystem.
func NewReal() *Real {
	return &Real{}
}

func (r *Real) Open(path string) (File, error) {
	return os.Open(path)
}

func (r *Real) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	return os.OpenFile(path, flag, perm)
}

func (r *Real) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// Remove deletes path. Unlike [os.Remove] it is idempotent: a missing
// file is not an error, matching the unlink-is-idempotent invariants
// spec.md requires of [region.Region.Unlink] and [advlock.AdvisoryLock].
func (r *Real) Remove(path string) error {
	err := os.Remove(path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

var _ FS = (*Real)(nil)
