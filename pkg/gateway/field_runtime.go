package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Xuanphat2004/moxa-gateway/internal/adapters/bus"
	"github.com/Xuanphat2004/moxa-gateway/internal/adapters/fieldbus"
	"github.com/Xuanphat2004/moxa-gateway/internal/adapters/queue"
	"github.com/Xuanphat2004/moxa-gateway/internal/app/pipeline"
	"github.com/Xuanphat2004/moxa-gateway/internal/domain"
	"github.com/Xuanphat2004/moxa-gateway/internal/ports"
)

// FieldRuntime is the serial-side process: receiver, executor and response publisher.
type FieldRuntime struct {
	*runtime

	requests  *queue.Bounded[domain.FieldRequest]
	responses *queue.Bounded[domain.FieldResponse]
	bus       ports.Bus
	dialer    ports.FieldDialer

	ownsBus bool
	ready   chan struct{}
}

func NewFieldRuntime(cfg *Config, opts ...Option) (*FieldRuntime, error) {
	o := collect(opts)
	base, err := newRuntime(cfg, "field", o)
	if err != nil {
		return nil, err
	}

	dialer := o.dialer
	if dialer == nil {
		dialer, err = fieldbus.Open(cfg.Field, base.logger)
		if err != nil {
			return nil, err
		}
	}

	return &FieldRuntime{
		runtime:   base,
		requests:  queue.NewBounded[domain.FieldRequest](cfg.Policy.QueueCapacity, cfg.Policy.OnQueueFull),
		responses: queue.NewBounded[domain.FieldResponse](cfg.Policy.QueueCapacity, cfg.Policy.OnQueueFull),
		bus:       o.bus,
		dialer:    dialer,
		ready:     make(chan struct{}),
	}, nil
}

// Ready is closed once the request topic is subscribed.
func (r *FieldRuntime) Ready() <-chan struct{} { return r.ready }

func (r *FieldRuntime) Run(ctx context.Context) error {
	defer r.shutdown()

	if err := r.attachDBHook(ctx); err != nil {
		return err
	}
	if r.bus == nil {
		b, err := bus.Open(ctx, r.cfg.Bus, r.role, r.obs)
		if err != nil {
			return err
		}
		r.bus, r.ownsBus = b, true
	}

	g, gctx := errgroup.WithContext(ctx)
	if err := r.bus.Subscribe(gctx, r.cfg.Bus.RequestTopic, pipeline.NewRequestHandler(r.requests, r.obs)); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.cfg.Bus.RequestTopic, err)
	}

	exec := pipeline.NewExecutor(r.dialer, r.requests, r.responses, pipeline.ExecutorSettings{
		ResponseTimeout: r.cfg.Field.ResponseTimeout,
		ByteTimeout:     r.cfg.Field.ByteTimeout,
		Backoff:         r.cfg.Field.Backoff,
	}, r.obs)

	g.Go(func() error { return exec.Run(gctx) })
	g.Go(func() error {
		return pipeline.RunPublisher(gctx, r.responses, r.bus, r.cfg.Bus.ResponseTopic, r.obs)
	})
	g.Go(func() error { return r.serveMetrics(gctx) })
	g.Go(func() error {
		return r.sampleGauges(gctx, time.Second, func() {
			r.obs.SetGauge(ports.MetricRequestQueueLength, float64(r.requests.Len()))
			r.obs.SetGauge(ports.MetricResponseQueueLength, float64(r.responses.Len()))
		})
	})

	r.obs.LogInfo("field_gateway_started", ports.Field{Key: "transport", Value: r.cfg.Field.Transport})
	close(r.ready)

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return err
}

func (r *FieldRuntime) shutdown() {
	if r.ownsBus && r.bus != nil {
		if err := r.bus.Close(); err != nil {
			r.obs.LogError("bus_close_failed", err)
		}
	}
	r.obs.LogInfo("field_gateway_stopped")
	if err := r.close(); err != nil {
		r.logger.WithError(err).Error("log_close_failed")
	}
}
