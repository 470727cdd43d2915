package protocol

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// PrintStatus is the decoded GetPrintStatus response.
type PrintStatus struct {
	Page      int
	Progress1 int
	Progress2 int
}

func DecodePrintStatus(payload []byte) (PrintStatus, error) {
	if len(payload) < 4 {
		return PrintStatus{}, fmt.Errorf("%w: print status needs 4 bytes, got %d", ErrShortResponse, len(payload))
	}
	return PrintStatus{
		Page:      int(binary.BigEndian.Uint16(payload[0:2])),
		Progress1: int(payload[2]),
		Progress2: int(payload[3]),
	}, nil
}

// HeartbeatReport carries printer physical state. Which fields a firmware
// reports depends on its response length; absent fields are nil.
type HeartbeatReport struct {
	ClosingState  *byte
	PowerLevel    *byte
	PaperState    *byte
	RfidReadState *byte
}

// DecodeHeartbeat dispatches on payload length. The per-length offsets are
// inherited from observed firmware responses (lengths 9, 10, 13, 19, 20);
// an unknown length decodes to all-absent fields, never an error.
func DecodeHeartbeat(payload []byte) HeartbeatReport {
	var r HeartbeatReport
	switch len(payload) {
	case 9:
		r.ClosingState = ref(payload[8])
	case 10:
		r.ClosingState = ref(payload[8])
		r.PowerLevel = ref(payload[9])
	case 13:
		r.ClosingState = ref(payload[9])
		r.PowerLevel = ref(payload[10])
		r.PaperState = ref(payload[11])
		r.RfidReadState = ref(payload[12])
	case 19:
		r.ClosingState = ref(payload[15])
		r.PowerLevel = ref(payload[16])
		r.PaperState = ref(payload[17])
		r.RfidReadState = ref(payload[18])
	case 20:
		r.PaperState = ref(payload[18])
		r.RfidReadState = ref(payload[19])
	}
	return r
}

func ref(b byte) *byte { return &b }

// InfoKey selects which device property a GetInfo command queries.
type InfoKey byte

const (
	InfoDensity          InfoKey = 1
	InfoPrintSpeed       InfoKey = 2
	InfoLabelType        InfoKey = 3
	InfoLanguageType     InfoKey = 6
	InfoAutoShutdownTime InfoKey = 7
	InfoDeviceType       InfoKey = 8
	InfoSoftwareVersion  InfoKey = 9
	InfoBatteryLevel     InfoKey = 10
	InfoDeviceSerial     InfoKey = 11
	InfoHardwareVersion  InfoKey = 12
)

// DeviceInfo is one decoded GetInfo response. Exactly one of Serial,
// Version or Value is meaningful, selected by Key.
type DeviceInfo struct {
	Key     InfoKey
	Serial  string
	Version float64
	Value   uint32
}

func DecodeDeviceInfo(key InfoKey, payload []byte) (DeviceInfo, error) {
	if len(payload) == 0 {
		return DeviceInfo{}, fmt.Errorf("%w: empty info response", ErrShortResponse)
	}
	info := DeviceInfo{Key: key}
	switch key {
	case InfoDeviceSerial:
		info.Serial = hex.EncodeToString(payload)
	case InfoSoftwareVersion, InfoHardwareVersion:
		// Versions arrive as a fixed-point integer scaled by 100.
		info.Version = float64(foldUint32(payload)) / 100
	default:
		info.Value = foldUint32(payload)
	}
	return info, nil
}

// foldUint32 reads up to the first four payload bytes big-endian.
func foldUint32(p []byte) uint32 {
	if len(p) > 4 {
		p = p[:4]
	}
	var v uint32
	for _, b := range p {
		v = v<<8 | uint32(b)
	}
	return v
}

// RfidRecord describes the label roll tag currently loaded.
type RfidRecord struct {
	UUID          string
	Barcode       string
	Serial        string
	TotalCapacity int
	UsedCapacity  int
	Type          byte
}

// DecodeRfid parses a GetRfid response. A zero first byte means no tag is
// present and decodes to a nil record, not an error.
func DecodeRfid(payload []byte) (*RfidRecord, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: empty rfid response", ErrShortResponse)
	}
	if payload[0] == 0 {
		return nil, nil
	}
	if len(payload) < 8 {
		return nil, fmt.Errorf("%w: rfid uuid truncated", ErrShortResponse)
	}
	rec := &RfidRecord{UUID: hex.EncodeToString(payload[0:8])}
	idx := 8
	var err error
	if rec.Barcode, idx, err = readLenPrefixed(payload, idx); err != nil {
		return nil, err
	}
	if rec.Serial, idx, err = readLenPrefixed(payload, idx); err != nil {
		return nil, err
	}
	if len(payload) < idx+5 {
		return nil, fmt.Errorf("%w: rfid capacity fields truncated", ErrShortResponse)
	}
	rec.TotalCapacity = int(binary.BigEndian.Uint16(payload[idx : idx+2]))
	rec.UsedCapacity = int(binary.BigEndian.Uint16(payload[idx+2 : idx+4]))
	rec.Type = payload[idx+4]
	return rec, nil
}

func readLenPrefixed(payload []byte, idx int) (string, int, error) {
	if idx >= len(payload) {
		return "", 0, fmt.Errorf("%w: rfid string length truncated", ErrShortResponse)
	}
	n := int(payload[idx])
	idx++
	if idx+n > len(payload) {
		return "", 0, fmt.Errorf("%w: rfid string truncated", ErrShortResponse)
	}
	return string(payload[idx : idx+n]), idx + n, nil
}
