package pubsub

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameParseFrameRoundTrip(t *testing.T) {
	buf := frame(42, []byte("payload"))

	id, payload, ok := parseFrame(buf)
	require.True(t, ok)
	require.Equal(t, uint32(42), id)
	require.Equal(t, []byte("payload"), payload)
}

func TestParseFrameRejectsShortBuffer(t *testing.T) {
	_, _, ok := parseFrame([]byte{1, 2, 3})
	require.False(t, ok)
}

func TestParseFrameRejectsTruncatedPayload(t *testing.T) {
	buf := frame(1, []byte("hello"))
	truncated := buf[:len(buf)-2]

	_, _, ok := parseFrame(truncated)
	require.False(t, ok)
}

func TestParseFrameAllowsEmptyPayload(t *testing.T) {
	buf := frame(7, nil)

	id, payload, ok := parseFrame(buf)
	require.True(t, ok)
	require.Equal(t, uint32(7), id)
	require.Empty(t, payload)
}
