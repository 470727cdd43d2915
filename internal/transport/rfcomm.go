//go:build linux

package transport

import (
	"fmt"
	"net"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// RFCOMMConfig selects the Bluetooth Classic peer.
type RFCOMMConfig struct {
	// Address is the printer MAC, "XX:XX:XX:XX:XX:XX".
	Address string
	// Channel is the RFCOMM channel; printers use 1.
	Channel uint8
}

// RFCOMM is the Bluetooth Classic (serial socket) transport variant.
type RFCOMM struct {
	file    *os.File
	inbound chan []byte
	done    chan struct{}
	mu      sync.Mutex
	closed  bool
}

// DialRFCOMM opens a stream socket to the printer's RFCOMM channel and
// starts the inbound reader.
func DialRFCOMM(cfg RFCOMMConfig) (*RFCOMM, error) {
	hw, err := net.ParseMAC(cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("transport: mac %q: %w", cfg.Address, err)
	}
	if len(hw) != 6 {
		return nil, fmt.Errorf("transport: mac %q: need 6 bytes, got %d", cfg.Address, len(hw))
	}
	if cfg.Channel == 0 {
		cfg.Channel = 1
	}

	// The kernel wants the address little-endian.
	var addr [6]byte
	for i := 0; i < 6; i++ {
		addr[i] = hw[5-i]
	}

	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_STREAM, unix.BTPROTO_RFCOMM)
	if err != nil {
		return nil, fmt.Errorf("transport: rfcomm socket: %w", err)
	}
	sa := &unix.SockaddrRFCOMM{Addr: addr, Channel: cfg.Channel}
	if err := unix.Connect(fd, sa); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("transport: rfcomm connect %s: %w", cfg.Address, err)
	}

	t := &RFCOMM{
		file:    os.NewFile(uintptr(fd), "rfcomm"),
		inbound: make(chan []byte, 64),
		done:    make(chan struct{}),
	}
	go t.readLoop()
	return t, nil
}

func (t *RFCOMM) readLoop() {
	buf := make([]byte, 512)
	for {
		n, err := t.file.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			t.mu.Lock()
			if !t.closed {
				select {
				case t.inbound <- chunk:
				default:
				}
			}
			t.mu.Unlock()
		}
		if err != nil {
			t.teardown()
			return
		}
	}
}

func (t *RFCOMM) Write(p []byte) error {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if _, err := t.file.Write(p); err != nil {
		return fmt.Errorf("transport: rfcomm write: %w", err)
	}
	return nil
}

func (t *RFCOMM) Inbound() <-chan []byte { return t.inbound }

func (t *RFCOMM) Done() <-chan struct{} { return t.done }

func (t *RFCOMM) Close() error {
	t.teardown()
	return t.file.Close()
}

func (t *RFCOMM) teardown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	close(t.done)
	close(t.inbound)
}
