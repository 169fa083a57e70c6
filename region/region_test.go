package region

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shmkit/shmkit/internal/osfs"
)

func isolatedTempDir(t *testing.T) {
	t.Helper()
	t.Setenv("TMPDIR", t.TempDir())
}

func TestWriteThenReadStartsWithWritten(t *testing.T) {
	isolatedTempDir(t)

	r := New(osfs.NewReal(), "TestRegionRoundTrip", 64)
	require.NoError(t, r.Setup())
	defer r.Close()

	require.NoError(t, r.Write([]byte("hello")))

	got, err := r.Read()
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(got, []byte("hello")))
	require.Len(t, got, 64)
}

func TestWriteRejectsOversizePayload(t *testing.T) {
	isolatedTempDir(t)

	r := New(osfs.NewReal(), "TestRegionOversize", 8)
	require.NoError(t, r.Setup())
	defer r.Close()

	err := r.Write(make([]byte, 9))
	require.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestClearZeroesRegion(t *testing.T) {
	isolatedTempDir(t)

	r := New(osfs.NewReal(), "TestRegionClear", 16)
	require.NoError(t, r.Setup())
	defer r.Close()

	require.NoError(t, r.Write([]byte("data")))
	require.NoError(t, r.Clear())

	got, err := r.Read()
	require.NoError(t, err)
	require.Equal(t, make([]byte, 16), got)
}

func TestReadLengthPrefixed(t *testing.T) {
	isolatedTempDir(t)

	r := New(osfs.NewReal(), "TestRegionLengthPrefixed", 32)
	require.NoError(t, r.Setup())
	defer r.Close()

	payload := []byte("abc")
	buf := make([]byte, 4+len(payload))
	buf[0] = byte(len(payload))
	copy(buf[4:], payload)
	require.NoError(t, r.Write(buf))

	got, err := r.ReadLengthPrefixed()
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestUnlinkRemovesBackingFile(t *testing.T) {
	isolatedTempDir(t)

	r := New(osfs.NewReal(), "TestRegionUnlink", 16)
	require.NoError(t, r.Setup())

	path := r.FilePath()
	require.NoError(t, r.Unlink())

	_, err := osfs.NewReal().Stat(path)
	require.Error(t, err)

	// Idempotent: a second Unlink on an already-closed/removed region
	// must not error.
	require.NoError(t, r.Unlink())
}

func TestWriteLockedTimesOutWhileLockHeldByAnother(t *testing.T) {
	isolatedTempDir(t)

	holder := New(osfs.NewReal(), "TestRegionWriteLocked", 16)
	require.NoError(t, holder.Setup())
	defer holder.Close()
	require.NoError(t, holder.Lock().Acquire(time.Second))
	defer holder.Lock().Release()

	writer := New(osfs.NewReal(), "TestRegionWriteLocked", 16)
	require.NoError(t, writer.Setup())
	defer writer.Close()

	err := writer.WriteLocked([]byte("x"), 100*time.Millisecond)
	require.Error(t, err)
}

func TestOperationsBeforeSetupFail(t *testing.T) {
	isolatedTempDir(t)

	r := New(osfs.NewReal(), "TestRegionNotInitialized", 16)
	_, err := r.Read()
	require.ErrorIs(t, err, ErrNotInitialized)
}
