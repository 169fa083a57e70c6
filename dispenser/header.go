package dispenser

import (
	"bytes"
	"encoding/binary"
)

// Mode selects a ShmDispenser's ring-buffer discipline.
type Mode int32

const (
	FIFO Mode = iota
	LIFO
	DEQUE
)

// Header field byte offsets within the region, per spec.md §4.5:
//
//	mode      : i32
//	head      : usize
//	tail      : usize
//	count     : usize
//	capacity  : usize
//	item_size : usize
//
// usize is encoded as a fixed 8-byte little-endian field. spec.md §6
// calls the header "native-endian"; this module fixes little-endian
// explicitly so the on-disk format is reproducible across machines
// sharing the same backing file under os.TempDir(), consistent with StoreDict and
// PubSub's framing, which are already little-endian by spec.
const (
	offMode     = 0
	offHead     = 4
	offTail     = offHead + 8
	offCount    = offTail + 8
	offCapacity = offCount + 8
	offItemSize = offCapacity + 8
	headerSize  = offItemSize + 8
)

// slotStride returns the byte width of one slot: a usize size prefix
// followed by itemSize bytes of data.
func slotStride(itemSize uint64) uint64 {
	return 8 + itemSize
}

// regionSize returns the total backing file size for a dispenser with
// the given capacity and item size.
func regionSize(capacity, itemSize uint64) uint64 {
	return headerSize + capacity*slotStride(itemSize)
}

type header struct {
	mode     Mode
	head     uint64
	tail     uint64
	count    uint64
	capacity uint64
	itemSize uint64
}

func writeHeader(buf []byte, h header) {
	binary.LittleEndian.PutUint32(buf[offMode:], uint32(h.mode))
	binary.LittleEndian.PutUint64(buf[offHead:], h.head)
	binary.LittleEndian.PutUint64(buf[offTail:], h.tail)
	binary.LittleEndian.PutUint64(buf[offCount:], h.count)
	binary.LittleEndian.PutUint64(buf[offCapacity:], h.capacity)
	binary.LittleEndian.PutUint64(buf[offItemSize:], h.itemSize)
}

func readHeader(buf []byte) header {
	return header{
		mode:     Mode(binary.LittleEndian.Uint32(buf[offMode:])),
		head:     binary.LittleEndian.Uint64(buf[offHead:]),
		tail:     binary.LittleEndian.Uint64(buf[offTail:]),
		count:    binary.LittleEndian.Uint64(buf[offCount:]),
		capacity: binary.LittleEndian.Uint64(buf[offCapacity:]),
		itemSize: binary.LittleEndian.Uint64(buf[offItemSize:]),
	}
}

// ResetRegionBytes builds the full backing-file contents for a freshly
// initialized dispenser of the given mode/capacity/itemSize: a header
// with head=tail=count=0 followed by capacity zeroed slots.
//
// This is an administrative operation, not a runtime one: it is meant
// to be written straight to the backing file (see cmd/shmctl's
// "dispenser reset" admin command) while no process has the region
// mapped, to recover a dispenser whose header was left in an
// inconsistent state by a crashed provider. Setup (and every other
// Dispenser method) still goes through region.Region/mmap as normal;
// nothing in the Dispenser type itself calls this.
func ResetRegionBytes(mode Mode, capacity, itemSize uint64) []byte {
	buf := bytes.Repeat([]byte{0}, int(regionSize(capacity, itemSize)))
	writeHeader(buf, header{mode: mode, capacity: capacity, itemSize: itemSize})
	return buf
}

// slotOffset returns the byte offset of slot index i.
func slotOffset(i uint64, itemSize uint64) uint64 {
	return headerSize + i*slotStride(itemSize)
}

func writeSlot(buf []byte, i uint64, itemSize uint64, data []byte) {
	off := slotOffset(i, itemSize)
	binary.LittleEndian.PutUint64(buf[off:], uint64(len(data)))
	copy(buf[off+8:off+8+itemSize], data)
}

func readSlot(buf []byte, i uint64, itemSize uint64) []byte {
	off := slotOffset(i, itemSize)
	n := binary.LittleEndian.Uint64(buf[off:])
	if n > itemSize {
		n = itemSize
	}
	out := make([]byte, n)
	copy(out, buf[off+8:off+8+n])
	return out
}
