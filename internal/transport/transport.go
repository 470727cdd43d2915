// Package transport provides the byte-stream contract the protocol engine
// runs against, with BLE and Bluetooth Classic (RFCOMM) variants selected at
// construction. The engine never touches discovery or pairing; it only needs
// write, an inbound chunk channel, and a teardown signal.
package transport

import "errors"

var (
	ErrClosed       = errors.New("transport: closed")
	ErrNotSupported = errors.New("transport: not supported on this platform")
)

// Transport is one connected byte-stream link to the printer.
// Implementations must be safe for concurrent use.
type Transport interface {
	// Write sends raw bytes. Blocks until the link accepted them.
	Write(p []byte) error
	// Inbound delivers raw received chunks. Chunk boundaries carry no
	// meaning; frames may arrive fragmented or coalesced. The channel is
	// closed on teardown.
	Inbound() <-chan []byte
	// Done is closed when the link is gone, whether by Close or by a
	// transport failure.
	Done() <-chan struct{}
	// Close tears the link down. Idempotent.
	Close() error
}
