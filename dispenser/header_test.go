package dispenser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := header{mode: DEQUE, head: 3, tail: 7, count: 4, capacity: 8, itemSize: 16}
	buf := make([]byte, headerSize)
	writeHeader(buf, h)

	got := readHeader(buf)
	if diff := cmp.Diff(h, got, cmp.AllowUnexported(header{})); diff != "" {
		t.Fatalf("header round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSlotRoundTrip(t *testing.T) {
	const itemSize = 8
	buf := make([]byte, headerSize+3*slotStride(itemSize))

	writeSlot(buf, 1, itemSize, []byte("hi"))
	got := readSlot(buf, 1, itemSize)
	require.Equal(t, []byte("hi"), got)

	// Untouched slots read back empty.
	require.Empty(t, readSlot(buf, 0, itemSize))
}

func TestRegionSizeMatchesHeaderPlusSlots(t *testing.T) {
	got := regionSize(4, 8)
	want := uint64(headerSize) + 4*(8+8)
	require.Equal(t, want, got)
}

func TestResetRegionBytesProducesEmptyHeader(t *testing.T) {
	buf := ResetRegionBytes(LIFO, 4, 8)
	require.Len(t, buf, int(regionSize(4, 8)))

	h := readHeader(buf)
	want := header{mode: LIFO, head: 0, tail: 0, count: 0, capacity: 4, itemSize: 8}
	if diff := cmp.Diff(want, h, cmp.AllowUnexported(header{})); diff != "" {
		t.Fatalf("reset header mismatch (-want +got):\n%s", diff)
	}

	for i := uint64(0); i < 4; i++ {
		require.Empty(t, readSlot(buf, i, 8))
	}
}
