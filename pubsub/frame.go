package pubsub

import "encoding/binary"

// frame builds the on-wire message payload per spec.md §6:
// u32 msg_id | u32 payload_size | payload[payload_size].
func frame(msgID uint32, payload []byte) []byte {
	buf := make([]byte, 8+len(payload))
	binary.LittleEndian.PutUint32(buf[0:4], msgID)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(payload)))
	copy(buf[8:], payload)
	return buf
}

// parseFrame decodes a message framed by frame. It reports ok=false
// (rather than an error) on a short or inconsistent buffer, matching
// spec.md §4.4's poller algorithm: "if length >= 8, parse ...; if parse
// fails ... skip" — framing corruption is swallowed, not surfaced.
func parseFrame(buf []byte) (msgID uint32, payload []byte, ok bool) {
	if len(buf) < 8 {
		return 0, nil, false
	}

	msgID = binary.LittleEndian.Uint32(buf[0:4])
	size := binary.LittleEndian.Uint32(buf[4:8])
	if 8+int(size) > len(buf) {
		return 0, nil, false
	}

	payload = make([]byte, size)
	copy(payload, buf[8:8+int(size)])
	return msgID, payload, true
}
