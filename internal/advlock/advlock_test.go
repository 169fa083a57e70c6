package advlock

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shmkit/shmkit/internal/osfs"
)

func TestAcquireReleaseAcquire(t *testing.T) {
	path := filepath.Join(t.TempDir(), "region.bin")
	l := New(osfs.NewReal(), path)

	require.NoError(t, l.Acquire(time.Second))
	require.True(t, l.Release())
	require.NoError(t, l.Acquire(time.Second))
	require.True(t, l.Release())
}

func TestReacquiringHeldLockIsNoOp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "region.bin")
	l := New(osfs.NewReal(), path)

	require.NoError(t, l.Acquire(time.Second))
	require.NoError(t, l.Acquire(time.Second)) // no-op success
	require.True(t, l.Release())
}

func TestReleaseOnUnheldLockIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "region.bin")
	l := New(osfs.NewReal(), path)
	require.False(t, l.Release())
}

// TestSecondAcquireTimesOutWhileHeld is S6's "first acquirer wins,
// second times out" scenario.
func TestSecondAcquireTimesOutWhileHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "region.bin")

	first := New(osfs.NewReal(), path)
	require.NoError(t, first.Acquire(time.Second))
	defer first.Release()

	second := New(osfs.NewReal(), path)
	err := second.Acquire(100 * time.Millisecond)
	require.ErrorIs(t, err, ErrLockTimeout)
}

func TestAcquireSucceedsAfterHolderReleases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "region.bin")

	first := New(osfs.NewReal(), path)
	require.NoError(t, first.Acquire(time.Second))

	second := New(osfs.NewReal(), path)
	done := make(chan error, 1)
	go func() {
		done <- second.Acquire(2 * time.Second)
	}()

	time.Sleep(50 * time.Millisecond)
	first.Release()

	require.NoError(t, <-done)
	second.Release()
}
