package bus

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/Xuanphat2004/moxa-gateway/internal/ports"
)

// Open dials the configured driver, retrying with capped backoff until it succeeds or
// ctx ends. role names the process in the client name ("tcp" or "field").
func Open(ctx context.Context, cfg Config, role string, obs ports.Observability) (ports.Bus, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("bus config: %w", err)
	}
	if cfg.Name == "" {
		cfg.Name = fmt.Sprintf("moxa-gateway-%s-%s", role, uuid.NewString()[:8])
	}
	if cfg.Driver == "memory" {
		return NewMemory(), nil
	}

	var b ports.Bus
	dial := func() error {
		var err error
		switch cfg.Driver {
		case "nats":
			b, err = DialNATS(cfg, obs)
		case "redis":
			b, err = DialRedis(ctx, cfg, obs)
		}
		return err
	}
	retry := ports.Backoff{Initial: cfg.ReconnectWait, Max: 30 * time.Second, Multiplier: 2}
	err := backoff.RetryNotify(dial, backoff.WithContext(retry.NewExponential(), ctx), func(err error, d time.Duration) {
		if obs != nil {
			obs.LogError("bus_connect_failed", err,
				ports.Field{Key: "driver", Value: cfg.Driver},
				ports.Field{Key: "retry_in", Value: d.String()})
		}
	})
	if err != nil {
		return nil, err
	}
	if obs != nil {
		obs.LogInfo("bus_connected", ports.Field{Key: "driver", Value: cfg.Driver}, ports.Field{Key: "name", Value: cfg.Name})
	}
	return b, nil
}
