//go:build !linux

package transport

// RFCOMMConfig selects the Bluetooth Classic peer.
type RFCOMMConfig struct {
	Address string
	Channel uint8
}

// DialRFCOMM requires raw Bluetooth sockets, which only Linux exposes.
func DialRFCOMM(cfg RFCOMMConfig) (Transport, error) {
	return nil, ErrNotSupported
}
