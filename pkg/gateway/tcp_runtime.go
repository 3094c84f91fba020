package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Xuanphat2004/moxa-gateway/internal/adapters/bus"
	"github.com/Xuanphat2004/moxa-gateway/internal/adapters/mapping"
	"github.com/Xuanphat2004/moxa-gateway/internal/adapters/queue"
	"github.com/Xuanphat2004/moxa-gateway/internal/app/pipeline"
	"github.com/Xuanphat2004/moxa-gateway/internal/ports"
)

// TCPRuntime is the client-facing process: ingress, resolver, response listener and
// pending sweeper.
type TCPRuntime struct {
	*runtime

	queue    *queue.Bounded[*pipeline.Inbound]
	table    *pipeline.Table
	bus      ports.Bus
	store    ports.MappingStore
	listener net.Listener

	ownsBus   bool
	ownsStore bool
	ready     chan struct{}
}

// NewTCPRuntime builds the runtime without touching the network; Run dials the bus,
// opens the mapping store and binds the listener.
func NewTCPRuntime(cfg *Config, opts ...Option) (*TCPRuntime, error) {
	o := collect(opts)
	base, err := newRuntime(cfg, "tcp", o)
	if err != nil {
		return nil, err
	}

	return &TCPRuntime{
		runtime:  base,
		queue:    queue.NewBounded[*pipeline.Inbound](cfg.Policy.QueueCapacity, cfg.Policy.OnQueueFull),
		table:    pipeline.NewTable(cfg.Policy.MaxPending),
		bus:      o.bus,
		store:    o.store,
		listener: o.listener,
		ready:    make(chan struct{}),
	}, nil
}

// Ready is closed once the listener accepts and the response topic is subscribed.
func (r *TCPRuntime) Ready() <-chan struct{} { return r.ready }

// Addr is the bound listener address; nil before Ready.
func (r *TCPRuntime) Addr() net.Addr {
	if r.listener == nil {
		return nil
	}
	return r.listener.Addr()
}

// Pending reports the number of requests waiting for a field response.
func (r *TCPRuntime) Pending() int { return r.table.Len() }

// Run serves until ctx ends or a worker fails.
func (r *TCPRuntime) Run(ctx context.Context) error {
	defer r.shutdown()

	if err := r.attachDBHook(ctx); err != nil {
		return err
	}
	if err := r.open(ctx); err != nil {
		return err
	}

	tcp := pipeline.TCPSettings{
		ReadTimeout:  r.cfg.TCP.ReadTimeout,
		WriteTimeout: r.cfg.TCP.WriteTimeout,
		ReplyFormat:  r.cfg.TCP.ReplyFormat,
	}

	g, gctx := errgroup.WithContext(ctx)
	if err := r.bus.Subscribe(gctx, r.cfg.Bus.ResponseTopic, pipeline.NewResponseHandler(r.table, tcp, r.obs)); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.cfg.Bus.ResponseTopic, err)
	}

	g.Go(func() error {
		return pipeline.RunIngress(gctx, r.listener, r.queue, tcp, r.obs)
	})
	g.Go(func() error {
		return pipeline.RunResolver(gctx, r.queue, r.store, r.bus, r.table, r.cfg.Bus.RequestTopic, r.cfg.Policy, tcp, r.obs)
	})
	g.Go(func() error {
		return pipeline.RunSweeper(gctx, r.table, r.cfg.Policy.SweepInterval, tcp, r.obs)
	})
	g.Go(func() error { return r.serveMetrics(gctx) })
	g.Go(func() error {
		return r.sampleGauges(gctx, time.Second, func() {
			r.obs.SetGauge(ports.MetricRequestQueueLength, float64(r.queue.Len()))
			r.obs.SetGauge(ports.MetricPendingEntries, float64(r.table.Len()))
		})
	})

	r.obs.LogInfo("tcp_gateway_started",
		ports.Field{Key: "listen", Value: r.listener.Addr().String()},
		ports.Field{Key: "reply_format", Value: tcp.ReplyFormat})
	close(r.ready)

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return err
}

func (r *TCPRuntime) open(ctx context.Context) error {
	if r.bus == nil {
		b, err := bus.Open(ctx, r.cfg.Bus, r.role, r.obs)
		if err != nil {
			return err
		}
		r.bus, r.ownsBus = b, true
	}
	if r.store == nil {
		s, err := mapping.Open(ctx, r.cfg.Mapping)
		if err != nil {
			return err
		}
		r.store, r.ownsStore = s, true
	}
	if r.listener == nil {
		ln, err := net.Listen("tcp", r.cfg.TCP.Listen)
		if err != nil {
			return fmt.Errorf("listen %s: %w", r.cfg.TCP.Listen, err)
		}
		r.listener = ln
	}
	return nil
}

// shutdown closes every client still waiting and releases owned resources.
func (r *TCPRuntime) shutdown() {
	for _, in := range r.queue.Drain() {
		in.Conn.Close()
	}
	for _, p := range r.table.Drain() {
		p.Conn.Close()
	}
	if r.ownsBus && r.bus != nil {
		if err := r.bus.Close(); err != nil {
			r.obs.LogError("bus_close_failed", err)
		}
	}
	if r.ownsStore && r.store != nil {
		if err := r.store.Close(); err != nil {
			r.obs.LogError("mapping_close_failed", err)
		}
	}
	r.obs.LogInfo("tcp_gateway_stopped")
	if err := r.close(); err != nil {
		r.logger.WithError(err).Error("log_close_failed")
	}
}
