package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	data := `
policy:
  queue_capacity: 50
bus:
  driver: redis
field:
  transport: sim
  registers:
    500: 42
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Policy.QueueCapacity != 50 {
		t.Fatalf("expected queue capacity 50, got %d", cfg.Policy.QueueCapacity)
	}
	if cfg.Policy.OnQueueFull != "block" {
		t.Fatalf("expected default policy block, got %s", cfg.Policy.OnQueueFull)
	}
	if cfg.Policy.RequestTimeout != 10*time.Second {
		t.Fatalf("expected request timeout 10s, got %s", cfg.Policy.RequestTimeout)
	}
	if cfg.TCP.Listen != "127.0.0.1:1502" || cfg.TCP.ReplyFormat != "legacy" {
		t.Fatalf("unexpected tcp defaults %+v", cfg.TCP)
	}
	if cfg.Bus.URL != "redis://localhost:6379/0" || cfg.Bus.RequestTopic != "modbus_request" {
		t.Fatalf("unexpected bus defaults %+v", cfg.Bus)
	}
	if cfg.Mapping.DSN != "modbus_mapping.db" {
		t.Fatalf("expected default mapping dsn, got %s", cfg.Mapping.DSN)
	}
	if cfg.Field.Registers[500] != 42 {
		t.Fatalf("expected sim register 500=42, got %v", cfg.Field.Registers)
	}
	if cfg.Field.Backoff.Max != 30*time.Second {
		t.Fatalf("expected backoff max 30s, got %s", cfg.Field.Backoff.Max)
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Fatalf("expected default metrics addr :9100, got %s", cfg.Metrics.Addr)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"policy":       "policy:\n  on_queue_full: spill\n",
		"reply format": "tcp:\n  reply_format: short\n",
		"bus driver":   "bus:\n  driver: kafka\n",
		"field":        "field:\n  transport: tcp\n",
		"log db":       "mapping:\n  driver: dynamodb\nlog:\n  db: true\n",
	}
	for name, raw := range cases {
		if _, err := Parse([]byte(raw)); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}
