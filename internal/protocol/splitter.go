package protocol

import "bytes"

var headerMark = []byte{headerByte, headerByte}

// Splitter reassembles complete wire frames out of raw transport chunks.
// BLE notifications deliver frames fragmented or coalesced; Splitter buffers
// across Push calls and yields each frame exactly once, in arrival order.
// Not safe for concurrent use; owned by the single inbound pump.
type Splitter struct {
	buf []byte
}

// Push appends a received chunk and returns every frame now complete.
func (s *Splitter) Push(chunk []byte) [][]byte {
	s.buf = append(s.buf, chunk...)
	var frames [][]byte
	for {
		start := bytes.Index(s.buf, headerMark)
		if start < 0 {
			// A lone trailing 0x55 may pair up with the next chunk.
			if n := len(s.buf); n > 0 && s.buf[n-1] == headerByte {
				s.buf = append(s.buf[:0], headerByte)
			} else {
				s.buf = s.buf[:0]
			}
			return frames
		}
		if start > 0 {
			s.buf = append(s.buf[:0], s.buf[start:]...)
		}
		if len(s.buf) < minFrameLen {
			return frames
		}
		total := minFrameLen + int(s.buf[3])
		if len(s.buf) < total {
			return frames
		}
		if s.buf[total-2] != footerByte || s.buf[total-1] != footerByte {
			// False header; resync one byte past it.
			s.buf = append(s.buf[:0], s.buf[1:]...)
			continue
		}
		frame := make([]byte, total)
		copy(frame, s.buf[:total])
		s.buf = append(s.buf[:0], s.buf[total:]...)
		frames = append(frames, frame)
	}
}

// Reset drops any buffered partial frame. Called on transport teardown.
func (s *Splitter) Reset() {
	s.buf = s.buf[:0]
}
