package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/printbridge/labelctl/internal/testutil/testlog"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "labelctl.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	testlog.Start(t)

	path := writeConfig(t, `
[transport]
kind = "rfcomm"
address = "AA:BB:CC:DD:EE:FF"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Transport.Channel != 1 {
		t.Fatalf("channel = %d, want default 1", cfg.Transport.Channel)
	}
	if cfg.Job.Density != 3 || cfg.Job.Quantity != 1 {
		t.Fatalf("job defaults = %+v", cfg.Job)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	testlog.Start(t)

	for name, body := range map[string]string{
		"unknown transport": `
[transport]
kind = "serial"
address = "AA:BB:CC:DD:EE:FF"
`,
		"missing address": `
[transport]
kind = "ble"
`,
		"density out of range": `
[transport]
kind = "ble"
address = "AA:BB:CC:DD:EE:FF"
[job]
density = 9
`,
	} {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Fatalf("%s: load accepted invalid config", name)
		}
	}
}

func TestTemplateRoundTrips(t *testing.T) {
	testlog.Start(t)

	path := filepath.Join(t.TempDir(), "labelctl.toml")
	if err := WriteTemplate(path, false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if err := WriteTemplate(path, false); err == nil {
		t.Fatal("overwrite without flag must fail")
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	if cfg.Transport.Kind != "ble" {
		t.Fatalf("template transport kind = %q", cfg.Transport.Kind)
	}
	if got := cfg.Polling.CompletionPolicy().PollInterval; got != 100*time.Millisecond {
		t.Fatalf("template poll interval = %s", got)
	}
}
