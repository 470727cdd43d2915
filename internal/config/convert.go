package config

import (
	"time"

	"github.com/printbridge/labelctl/internal/engine"
	"github.com/printbridge/labelctl/internal/transport"
)

// The conversions below map the declarative file onto the runtime types.
// Zero millisecond values mean "use the built-in default" throughout.

func (c TransportConfig) BLE() transport.BLEConfig {
	return transport.BLEConfig{
		Address:            c.Address,
		ServiceUUID:        c.ServiceUUID,
		CharacteristicUUID: c.CharacteristicUUID,
		ScanTimeout:        time.Duration(c.ScanTimeoutMS) * time.Millisecond,
	}
}

func (c TransportConfig) RFCOMM() transport.RFCOMMConfig {
	return transport.RFCOMMConfig{
		Address: c.Address,
		Channel: uint8(c.Channel),
	}
}

func (c JobConfig) PrintJob() engine.PrintJobConfig {
	return engine.PrintJobConfig{
		Density:     c.Density,
		LabelType:   c.LabelType,
		Quantity:    c.Quantity,
		Rotate:      c.Rotate,
		InvertColor: c.Invert,
	}
}

func (c PollingConfig) CompletionPolicy() engine.CompletionPolicy {
	return engine.CompletionPolicy{
		PollInterval:  time.Duration(c.IntervalMS) * time.Millisecond,
		MaxPolls:      c.MaxPolls,
		StableAt100:   c.StableAt100,
		StableNonzero: c.StableNonzero,
	}
}
