package gateway

import (
	"github.com/Xuanphat2004/moxa-gateway/internal/adapters/bus"
	"github.com/Xuanphat2004/moxa-gateway/internal/adapters/fieldbus"
	"github.com/Xuanphat2004/moxa-gateway/internal/adapters/mapping"
	"github.com/Xuanphat2004/moxa-gateway/internal/app/config"
	"github.com/Xuanphat2004/moxa-gateway/internal/ports"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// Policy controls queue overflow and pending-request expiry.
	Policy = ports.Policy
	// TCPConfig configures the client-facing listener.
	TCPConfig = config.TCPConfig
	// BusConfig selects the pub/sub transport and its topics.
	BusConfig = bus.Config
	// MappingConfig selects the mapping store backend.
	MappingConfig = mapping.Config
	// FieldConfig describes the serial segment.
	FieldConfig = fieldbus.Config
	// BackoffConfig shapes the reconnect delay.
	BackoffConfig = ports.Backoff
	// MetricsConfig configures the metrics HTTP server.
	MetricsConfig = config.MetricsConfig
	// LogConfig configures level, file and database logging.
	LogConfig = config.LogConfig
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// ParseConfig decodes YAML held in memory.
func ParseConfig(raw []byte) (*Config, error) {
	return config.Parse(raw)
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	return config.Default()
}
