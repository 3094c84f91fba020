package gateway

import (
	"net"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Option customizes the dependencies used by TCPRuntime and FieldRuntime.
type Option func(*overrides)

type overrides struct {
	bus           Bus
	store         MappingStore
	dialer        FieldDialer
	observability Observability
	listener      net.Listener
	logger        *logrus.Logger
	registerer    prometheus.Registerer
}

// WithBus injects a connected bus instead of dialing the configured driver.
func WithBus(b Bus) Option {
	return func(o *overrides) {
		o.bus = b
	}
}

// WithMappingStore injects a mapping store instead of opening the configured one.
func WithMappingStore(s MappingStore) Option {
	return func(o *overrides) {
		o.store = s
	}
}

// WithFieldDialer replaces the configured field transport (simulators, test rigs).
func WithFieldDialer(d FieldDialer) Option {
	return func(o *overrides) {
		o.dialer = d
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs Observability) Option {
	return func(o *overrides) {
		o.observability = obs
	}
}

// WithListener serves an existing listener instead of binding tcp.listen.
func WithListener(ln net.Listener) Option {
	return func(o *overrides) {
		o.listener = ln
	}
}

// WithLogger uses logger instead of building one from the log section.
func WithLogger(logger *logrus.Logger) Option {
	return func(o *overrides) {
		o.logger = logger
	}
}

// WithRegisterer registers metrics on reg instead of the default registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *overrides) {
		o.registerer = reg
	}
}

func collect(opts []Option) overrides {
	var o overrides
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
