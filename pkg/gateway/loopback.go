package gateway

import (
	"context"
	"fmt"
	"net"

	"golang.org/x/sync/errgroup"

	"github.com/Xuanphat2004/moxa-gateway/internal/adapters/bus"
	"github.com/Xuanphat2004/moxa-gateway/internal/adapters/observability"
)

// Loopback runs both gateway processes inside one process over an in-memory bus.
// It suits demos, benchmarks and end-to-end tests; production deployments run the
// two runtimes separately.
type Loopback struct {
	TCP   *TCPRuntime
	Field *FieldRuntime

	bus      *bus.Memory
	closeLog func() error
}

// NewLoopback builds both runtimes sharing one bus, one logger and one set of
// collectors. The bus section of cfg is ignored.
func NewLoopback(cfg *Config, opts ...Option) (*Loopback, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	o := collect(opts)

	lb := &Loopback{bus: bus.NewMemory(), closeLog: func() error { return nil }}

	shared := append([]Option(nil), opts...)
	if o.logger == nil {
		logger, closeLog, err := observability.NewLogger(observability.LoggerOptions{
			Level:   cfg.Log.Level,
			File:    cfg.Log.File,
			Service: "moxa-gateway-loopback",
			JSON:    cfg.Log.JSON,
		})
		if err != nil {
			return nil, err
		}
		o.logger, lb.closeLog = logger, closeLog
		shared = append(shared, WithLogger(logger))
	}
	if o.observability == nil {
		shared = append(shared, WithObservability(observability.NewPromObs(o.logger, o.registerer)))
	}
	shared = append(shared, WithBus(lb.bus))

	var err error
	if lb.TCP, err = NewTCPRuntime(cfg, shared...); err != nil {
		return nil, err
	}
	if lb.Field, err = NewFieldRuntime(cfg, shared...); err != nil {
		return nil, err
	}
	// one logger and one registry: the TCP side owns the DB hook and the metrics server
	lb.Field.secondary = true
	return lb, nil
}

// Ready is closed once both runtimes are serving.
func (lb *Loopback) Ready() <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		<-lb.TCP.Ready()
		<-lb.Field.Ready()
		close(ch)
	}()
	return ch
}

// Addr is the TCP listener address once Ready.
func (lb *Loopback) Addr() net.Addr { return lb.TCP.Addr() }

// Run serves both runtimes until ctx ends.
func (lb *Loopback) Run(ctx context.Context) error {
	defer lb.closeLog()
	defer lb.bus.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return lb.Field.Run(gctx) })
	g.Go(func() error { return lb.TCP.Run(gctx) })
	return g.Wait()
}
