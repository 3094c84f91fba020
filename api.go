package moxagateway

import (
	"github.com/Xuanphat2004/moxa-gateway/pkg/gateway"
)

// Re-exported errors for convenience.
var (
	ErrMappingNotFound = gateway.ErrMappingNotFound
	ErrQueueFull       = gateway.ErrQueueFull
)

// Type aliases so consumers can import github.com/Xuanphat2004/moxa-gateway directly.
type (
	Config        = gateway.Config
	Policy        = gateway.Policy
	TCPConfig     = gateway.TCPConfig
	BusConfig     = gateway.BusConfig
	MappingConfig = gateway.MappingConfig
	FieldConfig   = gateway.FieldConfig
	BackoffConfig = gateway.BackoffConfig
	MetricsConfig = gateway.MetricsConfig
	LogConfig     = gateway.LogConfig
	TCPRuntime    = gateway.TCPRuntime
	FieldRuntime  = gateway.FieldRuntime
	Loopback      = gateway.Loopback
	Option        = gateway.Option
	Client        = gateway.Client
	Request       = gateway.Request
	FieldResponse = gateway.FieldResponse
	MappingEntry  = gateway.MappingEntry
	Reply         = gateway.Reply
	Bus           = gateway.Bus
	MappingStore  = gateway.MappingStore
	MappingFunc   = gateway.MappingFunc
	FieldDialer   = gateway.FieldDialer
	FieldConn     = gateway.FieldConn
	Observability = gateway.Observability
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return gateway.LoadConfig(path)
}

func ParseConfig(raw []byte) (*Config, error) {
	return gateway.ParseConfig(raw)
}

func DefaultConfig() *Config {
	return gateway.DefaultConfig()
}

// Runtimes.
func NewTCPRuntime(cfg *Config, opts ...Option) (*TCPRuntime, error) {
	return gateway.NewTCPRuntime(cfg, opts...)
}

func NewFieldRuntime(cfg *Config, opts ...Option) (*FieldRuntime, error) {
	return gateway.NewFieldRuntime(cfg, opts...)
}

func NewLoopback(cfg *Config, opts ...Option) (*Loopback, error) {
	return gateway.NewLoopback(cfg, opts...)
}

// Options.
func WithBus(b Bus) Option {
	return gateway.WithBus(b)
}

func WithMappingStore(s MappingStore) Option {
	return gateway.WithMappingStore(s)
}

func WithFieldDialer(d FieldDialer) Option {
	return gateway.WithFieldDialer(d)
}

func WithObservability(obs Observability) Option {
	return gateway.WithObservability(obs)
}

// Mapping adapters.
func NewStaticMappings(entries ...MappingEntry) *gateway.StaticMappings {
	return gateway.NewStaticMappings(entries...)
}
