package transport

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"
)

// Default GATT endpoints for the supported label printer family. Both the
// command write and the notification source live on one characteristic.
const (
	DefaultServiceUUID        = "e7810a71-73ae-499d-8c15-faa9aef0c3f2"
	DefaultCharacteristicUUID = "bef8d6c9-9c21-4c9e-b632-bd58c1009f9f"
)

// bleWriteChunk keeps writes under the lowest ATT MTU seen in the field.
const bleWriteChunk = 150

// BLEConfig selects the peer and its GATT endpoints.
type BLEConfig struct {
	// Address is the peripheral MAC, "XX:XX:XX:XX:XX:XX".
	Address            string
	ServiceUUID        string
	CharacteristicUUID string
	ScanTimeout        time.Duration
}

func (c *BLEConfig) applyDefaults() {
	if c.ServiceUUID == "" {
		c.ServiceUUID = DefaultServiceUUID
	}
	if c.CharacteristicUUID == "" {
		c.CharacteristicUUID = DefaultCharacteristicUUID
	}
	if c.ScanTimeout <= 0 {
		c.ScanTimeout = 30 * time.Second
	}
}

// BLE is the Bluetooth Low Energy transport variant.
type BLE struct {
	device  bluetooth.Device
	char    bluetooth.DeviceCharacteristic
	inbound chan []byte
	done    chan struct{}
	mu      sync.Mutex
	closed  bool
}

// DialBLE scans for the configured peripheral, connects, resolves the
// serial service and characteristic, and subscribes to notifications.
func DialBLE(cfg BLEConfig) (*BLE, error) {
	cfg.applyDefaults()
	if cfg.Address == "" {
		return nil, fmt.Errorf("transport: ble address required")
	}
	svcUUID, err := bluetooth.ParseUUID(cfg.ServiceUUID)
	if err != nil {
		return nil, fmt.Errorf("transport: service uuid: %w", err)
	}
	charUUID, err := bluetooth.ParseUUID(cfg.CharacteristicUUID)
	if err != nil {
		return nil, fmt.Errorf("transport: characteristic uuid: %w", err)
	}

	adapter := bluetooth.DefaultAdapter
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("transport: enable adapter: %w", err)
	}

	result, err := scanForAddress(adapter, cfg.Address, cfg.ScanTimeout)
	if err != nil {
		return nil, err
	}

	device, err := adapter.Connect(result.Address, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, fmt.Errorf("transport: connect %s: %w", cfg.Address, err)
	}

	svcs, err := device.DiscoverServices([]bluetooth.UUID{svcUUID})
	if err != nil || len(svcs) == 0 {
		device.Disconnect()
		return nil, fmt.Errorf("transport: discover service: %w", err)
	}
	chars, err := svcs[0].DiscoverCharacteristics([]bluetooth.UUID{charUUID})
	if err != nil || len(chars) == 0 {
		device.Disconnect()
		return nil, fmt.Errorf("transport: discover characteristic: %w", err)
	}

	t := &BLE{
		device:  device,
		char:    chars[0],
		inbound: make(chan []byte, 64),
		done:    make(chan struct{}),
	}

	err = t.char.EnableNotifications(func(buf []byte) {
		chunk := make([]byte, len(buf))
		copy(chunk, buf)
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.closed {
			return
		}
		select {
		case t.inbound <- chunk:
		default:
			// Inbound backpressure means the engine is gone; drop.
		}
	})
	if err != nil {
		device.Disconnect()
		return nil, fmt.Errorf("transport: enable notifications: %w", err)
	}

	adapter.SetConnectHandler(func(peer bluetooth.Device, connected bool) {
		if !connected {
			t.teardown()
		}
	})

	return t, nil
}

func scanForAddress(adapter *bluetooth.Adapter, address string, timeout time.Duration) (bluetooth.ScanResult, error) {
	found := make(chan bluetooth.ScanResult, 1)
	go func() {
		err := adapter.Scan(func(a *bluetooth.Adapter, result bluetooth.ScanResult) {
			if strings.EqualFold(result.Address.String(), address) {
				a.StopScan()
				select {
				case found <- result:
				default:
				}
			}
		})
		if err != nil {
			// Scan error with no match surfaces as a timeout below.
			_ = err
		}
	}()

	select {
	case result := <-found:
		return result, nil
	case <-time.After(timeout):
		adapter.StopScan()
		return bluetooth.ScanResult{}, fmt.Errorf("transport: %s not found within %s", address, timeout)
	}
}

func (t *BLE) Write(p []byte) error {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return ErrClosed
	}
	for off := 0; off < len(p); off += bleWriteChunk {
		end := off + bleWriteChunk
		if end > len(p) {
			end = len(p)
		}
		if _, err := t.char.WriteWithoutResponse(p[off:end]); err != nil {
			return fmt.Errorf("transport: ble write: %w", err)
		}
	}
	return nil
}

func (t *BLE) Inbound() <-chan []byte { return t.inbound }

func (t *BLE) Done() <-chan struct{} { return t.done }

func (t *BLE) Close() error {
	t.teardown()
	return t.device.Disconnect()
}

func (t *BLE) teardown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	close(t.done)
	close(t.inbound)
}
