package protocol

import (
	"encoding/binary"
	"fmt"
)

// Command opcodes of the printer's proprietary protocol.
const (
	TypeStartPrint     byte = 0x01
	TypeStartPagePrint byte = 0x03
	TypeSetDimensions  byte = 0x13
	TypeSetQuantity    byte = 0x15
	TypeGetRfid        byte = 0x1A
	TypeSetDensity     byte = 0x21
	TypeSetLabelType   byte = 0x23
	TypeGetInfo        byte = 0x40
	TypeImageRow       byte = 0x85
	TypeGetPrintStatus byte = 0xA3
	TypeHeartbeat      byte = 0xDC
	TypeEndPagePrint   byte = 0xE3
	TypeEndPrint       byte = 0xF3
)

// Density and label-type ranges accepted by the firmware.
const (
	MinDensity   = 1
	MaxDensity   = 5
	MinLabelType = 1
	MaxLabelType = 3
)

// Command builders are pure functions from arguments to encoded wire bytes.
// Argument validation happens here, synchronously at the call site.

func SetDensity(density int) ([]byte, error) {
	if density < MinDensity || density > MaxDensity {
		return nil, fmt.Errorf("%w: density %d outside %d..%d", ErrInvalidArgument, density, MinDensity, MaxDensity)
	}
	return Encode(TypeSetDensity, []byte{byte(density)})
}

func SetLabelType(labelType int) ([]byte, error) {
	if labelType < MinLabelType || labelType > MaxLabelType {
		return nil, fmt.Errorf("%w: label type %d outside %d..%d", ErrInvalidArgument, labelType, MinLabelType, MaxLabelType)
	}
	return Encode(TypeSetLabelType, []byte{byte(labelType)})
}

func StartPrint() ([]byte, error) {
	return Encode(TypeStartPrint, []byte{1})
}

func StartPagePrint() ([]byte, error) {
	return Encode(TypeStartPagePrint, []byte{1})
}

// SetDimensions encodes height before width, both big-endian. Firmware
// variants disagree on byte and parameter order here; this ordering was
// validated against a B21 unit and is the single place to change if a
// different variant needs the swap.
func SetDimensions(width, height int) ([]byte, error) {
	if width <= 0 || width > 0xFFFF || height <= 0 || height > 0xFFFF {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidArgument, width, height)
	}
	payload := make([]byte, 4)
	binary.BigEndian.PutUint16(payload[0:2], uint16(height))
	binary.BigEndian.PutUint16(payload[2:4], uint16(width))
	return Encode(TypeSetDimensions, payload)
}

func SetQuantity(quantity int) ([]byte, error) {
	if quantity <= 0 || quantity > 0xFFFF {
		return nil, fmt.Errorf("%w: quantity %d", ErrInvalidArgument, quantity)
	}
	payload := make([]byte, 2)
	binary.BigEndian.PutUint16(payload, uint16(quantity))
	return Encode(TypeSetQuantity, payload)
}

func EndPagePrint() ([]byte, error) {
	return Encode(TypeEndPagePrint, []byte{1})
}

func EndPrint() ([]byte, error) {
	return Encode(TypeEndPrint, []byte{1})
}

func GetPrintStatus() ([]byte, error) {
	return Encode(TypeGetPrintStatus, []byte{1})
}

func Heartbeat() ([]byte, error) {
	return Encode(TypeHeartbeat, []byte{1})
}

func GetInfo(key InfoKey) ([]byte, error) {
	return Encode(TypeGetInfo, []byte{byte(key)})
}

func GetRfid() ([]byte, error) {
	return Encode(TypeGetRfid, []byte{1})
}
