package protocol

import "fmt"

const (
	headerByte = 0x55
	footerByte = 0xAA

	// minFrameLen is the smallest possible wire frame:
	// 2 header + type + length + checksum + 2 footer.
	minFrameLen = 7

	// MaxPayloadLen is the largest payload one frame can carry; the
	// length field on the wire is a single byte.
	MaxPayloadLen = 255
)

// Frame is one complete wire message, stripped of header and footer.
// Immutable once constructed.
type Frame struct {
	Type    byte
	Payload []byte
}

// Checksum XOR-folds the type, the payload length and every payload byte.
func (f Frame) Checksum() byte {
	sum := f.Type ^ byte(len(f.Payload))
	for _, b := range f.Payload {
		sum ^= b
	}
	return sum
}

// Encode produces the wire form of one frame:
//
//	0x55 0x55 | type | len | payload | checksum | 0xAA 0xAA
func Encode(typ byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	f := Frame{Type: typ, Payload: payload}
	buf := make([]byte, 0, minFrameLen+len(payload))
	buf = append(buf, headerByte, headerByte, typ, byte(len(payload)))
	buf = append(buf, payload...)
	buf = append(buf, f.Checksum(), footerByte, footerByte)
	return buf, nil
}

// Decode parses one complete wire frame. The payload is copied out of buf;
// nothing else is allocated.
func Decode(buf []byte) (Frame, error) {
	if len(buf) < minFrameLen {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrMalformedFrame, len(buf))
	}
	if buf[0] != headerByte || buf[1] != headerByte {
		return Frame{}, fmt.Errorf("%w: missing header", ErrMalformedFrame)
	}
	if buf[len(buf)-2] != footerByte || buf[len(buf)-1] != footerByte {
		return Frame{}, fmt.Errorf("%w: missing footer", ErrMalformedFrame)
	}
	payloadLen := int(buf[3])
	if len(buf) != minFrameLen+payloadLen {
		return Frame{}, fmt.Errorf("%w: length field disagrees with buffer", ErrMalformedFrame)
	}
	payload := make([]byte, payloadLen)
	copy(payload, buf[4:4+payloadLen])
	f := Frame{Type: buf[2], Payload: payload}
	if got, want := buf[4+payloadLen], f.Checksum(); got != want {
		return Frame{}, fmt.Errorf("%w: got 0x%02x want 0x%02x", ErrChecksumMismatch, got, want)
	}
	return f, nil
}
