package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/printbridge/labelctl/internal/protocol"
)

// Config is the full labelctl configuration file. Durations are expressed
// in milliseconds so the file stays plain TOML integers.
type Config struct {
	Transport TransportConfig `toml:"transport"`
	Job       JobConfig       `toml:"job"`
	Polling   PollingConfig   `toml:"polling"`
}

type TransportConfig struct {
	// Kind selects the link layer: "ble" or "rfcomm".
	Kind    string `toml:"kind"`
	Address string `toml:"address"`
	// Channel applies to rfcomm only; printers use 1.
	Channel int `toml:"channel"`
	// ServiceUUID and CharacteristicUUID apply to ble only; empty means
	// the printer family defaults.
	ServiceUUID        string `toml:"service_uuid"`
	CharacteristicUUID string `toml:"characteristic_uuid"`
	ScanTimeoutMS      int    `toml:"scan_timeout_ms"`
	RequestTimeoutMS   int    `toml:"request_timeout_ms"`
}

type JobConfig struct {
	Density   int  `toml:"density"`
	LabelType int  `toml:"label_type"`
	Quantity  int  `toml:"quantity"`
	Rotate    bool `toml:"rotate"`
	Invert    bool `toml:"invert"`
}

type PollingConfig struct {
	IntervalMS    int `toml:"interval_ms"`
	MaxPolls      int `toml:"max_polls"`
	StableAt100   int `toml:"stable_at_100"`
	StableNonzero int `toml:"stable_nonzero"`
}

func Default() Config {
	return Config{
		Transport: TransportConfig{
			Kind:    "ble",
			Channel: 1,
		},
		Job: JobConfig{
			Density:   3,
			LabelType: 1,
			Quantity:  1,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()
	if err := loadToml(path, &cfg); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func Validate(cfg Config) error {
	switch strings.ToLower(strings.TrimSpace(cfg.Transport.Kind)) {
	case "ble", "rfcomm":
	default:
		return fmt.Errorf("transport kind must be ble or rfcomm, got %q", cfg.Transport.Kind)
	}
	if strings.TrimSpace(cfg.Transport.Address) == "" {
		return fmt.Errorf("transport config missing address")
	}
	if cfg.Transport.Channel < 0 || cfg.Transport.Channel > 30 {
		return fmt.Errorf("rfcomm channel %d out of range", cfg.Transport.Channel)
	}
	if cfg.Job.Density < protocol.MinDensity || cfg.Job.Density > protocol.MaxDensity {
		return fmt.Errorf("job density %d outside %d..%d",
			cfg.Job.Density, protocol.MinDensity, protocol.MaxDensity)
	}
	if cfg.Job.LabelType < protocol.MinLabelType || cfg.Job.LabelType > protocol.MaxLabelType {
		return fmt.Errorf("job label_type %d outside %d..%d",
			cfg.Job.LabelType, protocol.MinLabelType, protocol.MaxLabelType)
	}
	if cfg.Job.Quantity <= 0 || cfg.Job.Quantity > 0xFFFF {
		return fmt.Errorf("job quantity %d out of range", cfg.Job.Quantity)
	}
	return nil
}
