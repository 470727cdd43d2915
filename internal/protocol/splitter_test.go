package protocol

import (
	"bytes"
	"testing"
)

func mustEncode(t *testing.T, typ byte, payload []byte) []byte {
	t.Helper()
	wire, err := Encode(typ, payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return wire
}

func TestSplitterWholeFrame(t *testing.T) {
	var s Splitter
	wire := mustEncode(t, 0xDC, []byte{1})
	frames := s.Push(wire)
	if len(frames) != 1 || !bytes.Equal(frames[0], wire) {
		t.Fatalf("expected one frame back, got %d", len(frames))
	}
}

func TestSplitterFragmentedAcrossChunks(t *testing.T) {
	var s Splitter
	wire := mustEncode(t, 0xA3, []byte{0, 1, 0x64, 0x64})
	for i := 0; i < len(wire)-1; i++ {
		if frames := s.Push(wire[i : i+1]); len(frames) != 0 {
			t.Fatalf("premature frame after byte %d", i)
		}
	}
	frames := s.Push(wire[len(wire)-1:])
	if len(frames) != 1 || !bytes.Equal(frames[0], wire) {
		t.Fatalf("expected reassembled frame, got %d frames", len(frames))
	}
}

func TestSplitterCoalescedFrames(t *testing.T) {
	var s Splitter
	a := mustEncode(t, 0xDC, []byte{1})
	b := mustEncode(t, 0xA3, []byte{0, 1, 0x32, 0x32})
	chunk := append(append([]byte(nil), a...), b...)
	frames := s.Push(chunk)
	if len(frames) != 2 {
		t.Fatalf("expected two frames, got %d", len(frames))
	}
	if !bytes.Equal(frames[0], a) || !bytes.Equal(frames[1], b) {
		t.Fatalf("frame order/content mismatch")
	}
}

func TestSplitterSkipsGarbageBeforeHeader(t *testing.T) {
	var s Splitter
	wire := mustEncode(t, 0x01, []byte{1})
	chunk := append([]byte{0x00, 0xFF, 0x55}, wire...)
	frames := s.Push(chunk)
	if len(frames) != 1 || !bytes.Equal(frames[0], wire) {
		t.Fatalf("expected frame after garbage, got %d frames", len(frames))
	}
}

func TestSplitterResyncsPastFalseHeader(t *testing.T) {
	var s Splitter
	wire := mustEncode(t, 0x01, []byte{1})
	// 0x55 0x55 followed by bytes that do not form a frame, then a real one.
	chunk := append([]byte{0x55, 0x55, 0x03, 0x00, 0x01, 0x02, 0x03, 0x04}, wire...)
	frames := s.Push(chunk)
	if len(frames) != 1 || !bytes.Equal(frames[0], wire) {
		t.Fatalf("expected resync to real frame, got %d frames", len(frames))
	}
}

func TestSplitterRecoversFramesBehindLargeFalseHeader(t *testing.T) {
	var s Splitter
	// A false header claiming a 255-byte payload keeps the splitter
	// waiting until enough bytes arrive to fail the footer check; the
	// real frames accumulated behind it must survive the resync intact.
	payload := bytes.Repeat([]byte{0x11}, 60)
	wire := mustEncode(t, 0x85, payload)

	var got [][]byte
	got = append(got, s.Push([]byte{0x55, 0x55, 0x01, 0xFF})...)
	for i := 0; i < 4; i++ {
		got = append(got, s.Push(wire)...)
	}
	if len(got) != 4 {
		t.Fatalf("recovered %d frames behind false header, want 4", len(got))
	}
	for i, f := range got {
		if !bytes.Equal(f, wire) {
			t.Fatalf("frame %d corrupted after resync", i)
		}
	}
}

func TestSplitterReset(t *testing.T) {
	var s Splitter
	wire := mustEncode(t, 0x01, []byte{1})
	s.Push(wire[:4])
	s.Reset()
	if frames := s.Push(wire[4:]); len(frames) != 0 {
		t.Fatalf("expected no frames after reset, got %d", len(frames))
	}
}
