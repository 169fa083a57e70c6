package shmsync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shmkit/shmkit/internal/advlock"
	"github.com/shmkit/shmkit/internal/osfs"
)

func isolatedTempDir(t *testing.T) {
	t.Helper()
	t.Setenv("TMPDIR", t.TempDir())
}

func TestMutexLockUnlockLock(t *testing.T) {
	isolatedTempDir(t)

	m := NewMutex(osfs.NewReal(), "TestMutexBasic")
	defer m.Close()

	require.NoError(t, m.Lock(time.Second))
	m.Unlock()
	require.NoError(t, m.Lock(time.Second))
	m.Unlock()
}

func TestMutexSecondLockerTimesOutWhileHeld(t *testing.T) {
	isolatedTempDir(t)

	first := NewMutex(osfs.NewReal(), "TestMutexContention")
	defer first.Close()
	require.NoError(t, first.Lock(time.Second))
	defer first.Unlock()

	second := NewMutex(osfs.NewReal(), "TestMutexContention")
	defer second.Close()

	err := second.Lock(100 * time.Millisecond)
	require.ErrorIs(t, err, advlock.ErrLockTimeout)
}
