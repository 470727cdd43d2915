package config

import (
	"fmt"
	"os"
)

// WriteTemplate drops a starter configuration at path.
func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const template = `[transport]
# "ble" for Bluetooth Low Energy, "rfcomm" for Bluetooth Classic (Linux only).
kind = "ble"
address = "AA:BB:CC:DD:EE:FF"
channel = 1
# Leave the UUIDs empty for the printer family defaults.
service_uuid = ""
characteristic_uuid = ""
scan_timeout_ms = 30000
request_timeout_ms = 2000

[job]
density = 3
label_type = 1
quantity = 1
rotate = false
invert = false

[polling]
interval_ms = 100
max_polls = 50
stable_at_100 = 3
stable_nonzero = 10
`
