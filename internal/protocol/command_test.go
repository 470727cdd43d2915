package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func decodeCommand(t *testing.T, wire []byte) Frame {
	t.Helper()
	f, err := Decode(wire)
	if err != nil {
		t.Fatalf("decode command frame: %v", err)
	}
	return f
}

func TestSetDensityRange(t *testing.T) {
	for _, d := range []int{0, 6, -1, 100} {
		if _, err := SetDensity(d); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("density %d: expected ErrInvalidArgument, got %v", d, err)
		}
	}
	wire, err := SetDensity(3)
	if err != nil {
		t.Fatalf("set density: %v", err)
	}
	f := decodeCommand(t, wire)
	if f.Type != TypeSetDensity || !bytes.Equal(f.Payload, []byte{3}) {
		t.Fatalf("unexpected frame: type=0x%02x payload=%x", f.Type, f.Payload)
	}
}

func TestSetLabelTypeRange(t *testing.T) {
	for _, lt := range []int{0, 4} {
		if _, err := SetLabelType(lt); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("label type %d: expected ErrInvalidArgument, got %v", lt, err)
		}
	}
	wire, err := SetLabelType(1)
	if err != nil {
		t.Fatalf("set label type: %v", err)
	}
	if f := decodeCommand(t, wire); f.Type != TypeSetLabelType {
		t.Fatalf("unexpected type 0x%02x", f.Type)
	}
}

func TestSetDimensionsEncodesHeightThenWidth(t *testing.T) {
	wire, err := SetDimensions(384, 240)
	if err != nil {
		t.Fatalf("set dimensions: %v", err)
	}
	f := decodeCommand(t, wire)
	want := []byte{0x00, 0xF0, 0x01, 0x80} // height 240, width 384, big-endian
	if f.Type != TypeSetDimensions || !bytes.Equal(f.Payload, want) {
		t.Fatalf("unexpected payload: got %x want %x", f.Payload, want)
	}

	if _, err := SetDimensions(0, 10); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for zero width, got %v", err)
	}
	if _, err := SetDimensions(10, 0x10000); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for oversized height, got %v", err)
	}
}

func TestSetQuantity(t *testing.T) {
	wire, err := SetQuantity(0x0102)
	if err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	f := decodeCommand(t, wire)
	if f.Type != TypeSetQuantity || !bytes.Equal(f.Payload, []byte{0x01, 0x02}) {
		t.Fatalf("unexpected payload %x", f.Payload)
	}
	if _, err := SetQuantity(0); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestSimpleCommandOpcodes(t *testing.T) {
	cases := []struct {
		name  string
		build func() ([]byte, error)
		typ   byte
	}{
		{"start_print", StartPrint, TypeStartPrint},
		{"start_page_print", StartPagePrint, TypeStartPagePrint},
		{"end_page_print", EndPagePrint, TypeEndPagePrint},
		{"end_print", EndPrint, TypeEndPrint},
		{"get_print_status", GetPrintStatus, TypeGetPrintStatus},
		{"heartbeat", Heartbeat, TypeHeartbeat},
		{"get_rfid", GetRfid, TypeGetRfid},
	}
	for _, tc := range cases {
		wire, err := tc.build()
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		f := decodeCommand(t, wire)
		if f.Type != tc.typ {
			t.Fatalf("%s: type 0x%02x want 0x%02x", tc.name, f.Type, tc.typ)
		}
		if !bytes.Equal(f.Payload, []byte{1}) {
			t.Fatalf("%s: payload %x want 01", tc.name, f.Payload)
		}
	}
}

func TestGetInfoCarriesKey(t *testing.T) {
	wire, err := GetInfo(InfoDeviceSerial)
	if err != nil {
		t.Fatalf("get info: %v", err)
	}
	f := decodeCommand(t, wire)
	if f.Type != TypeGetInfo || !bytes.Equal(f.Payload, []byte{byte(InfoDeviceSerial)}) {
		t.Fatalf("unexpected frame: type=0x%02x payload=%x", f.Type, f.Payload)
	}
}
