package storedict

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	entries := []Entry{
		{Key: "greeting", Value: []byte("Hello")},
		{Key: "number", Value: []byte("12345")},
	}

	buf := encode(7, entries)

	version, got, err := decode(buf)
	require.NoError(t, err)
	require.Equal(t, uint32(7), version)

	if diff := cmp.Diff(entries, got); diff != "" {
		t.Fatalf("decoded entries mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeDecodeEmptyTable(t *testing.T) {
	buf := encode(0, nil)
	version, entries, err := decode(buf)
	require.NoError(t, err)
	require.Equal(t, uint32(0), version)
	require.Empty(t, entries)
}

func TestEncodedSizeMatchesEncodeLength(t *testing.T) {
	entries := []Entry{
		{Key: "a", Value: []byte("1")},
		{Key: "bb", Value: []byte("22")},
	}
	require.Equal(t, len(encode(1, entries)), encodedSize(entries))
}

func TestDecodeRejectsShortBuffer(t *testing.T) {
	_, _, err := decode([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrCorruptRegion)
}

func TestDecodeRejectsTruncatedKey(t *testing.T) {
	buf := encode(1, []Entry{{Key: "hello", Value: []byte("x")}})
	// Cut the buffer off partway through the key bytes.
	_, _, err := decode(buf[:8+4+3])
	require.ErrorIs(t, err, ErrCorruptRegion)
}

func TestDecodeRejectsKeyNotNulTerminated(t *testing.T) {
	buf := encode(1, []Entry{{Key: "hello", Value: []byte("x")}})
	// Corrupt the NUL terminator of the key (last byte of the key field).
	buf[8+4+len("hello")] = 'Z'
	_, _, err := decode(buf)
	require.ErrorIs(t, err, ErrCorruptRegion)
}
