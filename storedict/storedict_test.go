package storedict

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shmkit/shmkit/internal/osfs"
)

// isolatedTempDir points os.TempDir() (and therefore every region's
// backing file path) at a fresh per-test directory, so tests never
// collide with each other or with anything outside the sandbox.
func isolatedTempDir(t *testing.T) {
	t.Helper()
	t.Setenv("TMPDIR", t.TempDir())
}

func TestStoreDictStoreRetrieveRoundTrip(t *testing.T) {
	isolatedTempDir(t)

	d := New(osfs.NewReal(), "TestStoreDictRoundTrip", 4096)
	require.NoError(t, d.Setup())
	defer d.Close()

	require.NoError(t, d.Store("greeting", []byte("Hello")))
	got, err := d.Retrieve("greeting")
	require.NoError(t, err)
	require.Equal(t, []byte("Hello"), got)
}

func TestStoreDictOverwriteUpdatesInPlace(t *testing.T) {
	isolatedTempDir(t)

	d := New(osfs.NewReal(), "TestStoreDictOverwrite", 4096)
	require.NoError(t, d.Setup())
	defer d.Close()

	require.NoError(t, d.Store("k", []byte("v1")))
	require.NoError(t, d.Store("k", []byte("v2")))

	got, err := d.Retrieve("k")
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), got)

	keys, err := d.ListKeys()
	require.NoError(t, err)
	require.Equal(t, []string{"k"}, keys)
}

func TestStoreDictListKeysPreservesInsertionOrder(t *testing.T) {
	isolatedTempDir(t)

	d := New(osfs.NewReal(), "TestStoreDictOrder", 4096)
	require.NoError(t, d.Setup())
	defer d.Close()

	require.NoError(t, d.Store("b", []byte("2")))
	require.NoError(t, d.Store("a", []byte("1")))
	require.NoError(t, d.Store("b", []byte("2-updated"))) // update must not move position

	keys, err := d.ListKeys()
	require.NoError(t, err)
	require.Equal(t, []string{"b", "a"}, keys)
}

func TestStoreDictVersionIncreasesOnEverySuccessfulStore(t *testing.T) {
	isolatedTempDir(t)

	d := New(osfs.NewReal(), "TestStoreDictVersion", 4096)
	require.NoError(t, d.Setup())
	defer d.Close()

	require.NoError(t, d.Store("k", []byte("v1")))
	v1 := d.Version()
	require.NoError(t, d.Store("k", []byte("v2")))
	v2 := d.Version()

	require.Greater(t, v2, v1)
}

func TestStoreDictOversizeWriteFailsWithoutMutation(t *testing.T) {
	isolatedTempDir(t)

	// A region just big enough for the header plus one small entry.
	d := New(osfs.NewReal(), "TestStoreDictOversize", 32)
	require.NoError(t, d.Setup())
	defer d.Close()

	err := d.Store("k", make([]byte, 64))
	require.ErrorIs(t, err, ErrCapacityExceeded)

	keys, err := d.ListKeys()
	require.NoError(t, err)
	require.Empty(t, keys)
}

func TestStoreDictCrossProcessVisibility(t *testing.T) {
	isolatedTempDir(t)

	// S1: provider creates the dict, a second handle (standing in for a
	// second process) attaches, reads what the first wrote, and writes
	// back.
	provider := New(osfs.NewReal(), "TestStoreDictS1", 4096)
	require.NoError(t, provider.Setup())
	defer provider.Close()

	require.NoError(t, provider.Store("greeting", []byte("Hello")))
	require.NoError(t, provider.Store("number", []byte("12345")))

	consumer := New(osfs.NewReal(), "TestStoreDictS1", 4096)
	require.NoError(t, consumer.Setup())
	defer consumer.Close()

	got, err := consumer.Retrieve("greeting")
	require.NoError(t, err)
	require.Equal(t, []byte("Hello"), got)

	got, err = consumer.Retrieve("number")
	require.NoError(t, err)
	require.Equal(t, []byte("12345"), got)

	keys, err := consumer.ListKeys()
	require.NoError(t, err)
	require.Equal(t, []string{"greeting", "number"}, keys)

	require.NoError(t, consumer.Store("response", []byte("Hi")))

	require.NoError(t, provider.Load())
	got, err = provider.Retrieve("response")
	require.NoError(t, err)
	require.Equal(t, []byte("Hi"), got)
}

func TestStoreDictRetrieveMissingKey(t *testing.T) {
	isolatedTempDir(t)

	d := New(osfs.NewReal(), "TestStoreDictMissing", 4096)
	require.NoError(t, d.Setup())
	defer d.Close()

	_, err := d.Retrieve("nope")
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestStoreDictDoubleCloseIsSafe(t *testing.T) {
	isolatedTempDir(t)

	d := New(osfs.NewReal(), "TestStoreDictDoubleClose", 4096)
	require.NoError(t, d.Setup())
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
}

func TestStoreDictOperationBeforeSetupFails(t *testing.T) {
	isolatedTempDir(t)

	d := New(osfs.NewReal(), "TestStoreDictNotInitialized", 4096)
	_, err := d.Retrieve("k")
	require.ErrorIs(t, err, ErrNotInitialized)
}
