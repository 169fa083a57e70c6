package pubsub

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTopicHasSeenMarkSeen(t *testing.T) {
	top := newTopic("t")

	require.False(t, top.hasSeen(1))
	top.markSeen(1)
	require.True(t, top.hasSeen(1))

	// Marking the same id again is a no-op.
	top.markSeen(1)
	require.Len(t, top.seenOrder, 1)
}

func TestTopicEvictsOldestHalfPastCap(t *testing.T) {
	top := newTopic("t")

	for i := uint32(0); i < seenCap; i++ {
		top.markSeen(i)
	}
	require.Len(t, top.seenOrder, seenCap)

	// The (seenCap+1)th distinct id triggers eviction of the oldest
	// seenEvict ids.
	top.markSeen(seenCap)
	require.Len(t, top.seenOrder, seenCap-seenEvict+1)

	for i := uint32(0); i < seenEvict; i++ {
		require.False(t, top.hasSeen(i), "id %d should have been evicted", i)
	}
	for i := uint32(seenEvict); i <= seenCap; i++ {
		require.True(t, top.hasSeen(i), "id %d should still be seen", i)
	}
}
