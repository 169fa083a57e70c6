package storedict

import (
	"encoding/binary"
	"fmt"
)

// Entry is one key/value pair in a StoreDict's in-memory table.
type Entry struct {
	Key   string
	Value []byte
}

// encode serializes version and entries per spec.md §6:
//
//	u32 version | u32 count | { u32 key_len | key[key_len] (NUL-terminated) | u32 val_len | value[val_len] }*
//
// key_len includes the trailing NUL.
func encode(version uint32, entries []Entry) []byte {
	size := encodedSize(entries)
	buf := make([]byte, size)

	binary.LittleEndian.PutUint32(buf[0:4], version)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(entries)))

	off := 8
	for _, e := range entries {
		keyLen := uint32(len(e.Key) + 1)
		binary.LittleEndian.PutUint32(buf[off:off+4], keyLen)
		off += 4
		copy(buf[off:off+len(e.Key)], e.Key)
		buf[off+len(e.Key)] = 0
		off += int(keyLen)

		binary.LittleEndian.PutUint32(buf[off:off+4], uint32(len(e.Value)))
		off += 4
		copy(buf[off:off+len(e.Value)], e.Value)
		off += len(e.Value)
	}

	return buf
}

// encodedSize computes the exact byte length encode would produce,
// without allocating, so callers can reject an over-capacity write
// before serializing anything (spec.md §4.3: "If the new full
// serialization would exceed size, the operation fails and the
// in-memory table is unchanged").
func encodedSize(entries []Entry) int {
	size := 8
	for _, e := range entries {
		size += 4 + len(e.Key) + 1 + 4 + len(e.Value)
	}
	return size
}

// decode parses a region payload produced by encode. A truncated or
// malformed payload is a CorruptRegion condition: callers handling a
// background poll loop should treat it as "no entries" rather than
// fail hard, per spec.md §7.
func decode(buf []byte) (version uint32, entries []Entry, err error) {
	if len(buf) < 8 {
		return 0, nil, fmt.Errorf("%w: payload shorter than header", ErrCorruptRegion)
	}

	version = binary.LittleEndian.Uint32(buf[0:4])
	count := binary.LittleEndian.Uint32(buf[4:8])

	off := 8
	entries = make([]Entry, 0, count)
	for i := uint32(0); i < count; i++ {
		if off+4 > len(buf) {
			return 0, nil, fmt.Errorf("%w: truncated key_len at entry %d", ErrCorruptRegion, i)
		}
		keyLen := binary.LittleEndian.Uint32(buf[off : off+4])
		off += 4

		if keyLen == 0 || off+int(keyLen) > len(buf) {
			return 0, nil, fmt.Errorf("%w: invalid key_len at entry %d", ErrCorruptRegion, i)
		}
		keyBytes := buf[off : off+int(keyLen)]
		if keyBytes[len(keyBytes)-1] != 0 {
			return 0, nil, fmt.Errorf("%w: key not NUL-terminated at entry %d", ErrCorruptRegion, i)
		}
		key := string(keyBytes[:len(keyBytes)-1])
		off += int(keyLen)

		if off+4 > len(buf) {
			return 0, nil, fmt.Errorf("%w: truncated val_len at entry %d", ErrCorruptRegion, i)
		}
		valLen := binary.LittleEndian.Uint32(buf[off : off+4])
		off += 4

		if off+int(valLen) > len(buf) {
			return 0, nil, fmt.Errorf("%w: truncated value at entry %d", ErrCorruptRegion, i)
		}
		value := make([]byte, valLen)
		copy(value, buf[off:off+int(valLen)])
		off += int(valLen)

		entries = append(entries, Entry{Key: key, Value: value})
	}

	return version, entries, nil
}
