package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/Xuanphat2004/moxa-gateway/internal/ports"
)

// RedisBus carries gateway messages as Redis pub/sub channels.
type RedisBus struct {
	client *redis.Client
	obs    ports.Observability

	mu     sync.Mutex
	pubsub []*redis.PubSub
	wg     sync.WaitGroup
}

// DialRedis parses a redis:// URL and verifies the server answers PING.
func DialRedis(ctx context.Context, cfg Config, obs ports.Observability) (*RedisBus, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = cfg.ConnectTimeout
	opts.MinRetryBackoff = cfg.ReconnectWait / 4
	opts.MaxRetryBackoff = cfg.ReconnectWait
	if cfg.Name != "" {
		opts.ClientName = cfg.Name
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return &RedisBus{client: client, obs: obs}, nil
}

func (b *RedisBus) Publish(ctx context.Context, topic string, data []byte) error {
	if err := b.client.Publish(ctx, topic, data).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe waits for the subscription confirmation, then delivers messages from a
// dedicated goroutine until ctx ends or the bus is closed.
func (b *RedisBus) Subscribe(ctx context.Context, topic string, handler ports.MessageHandler) error {
	ps := b.client.Subscribe(ctx, topic)
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return fmt.Errorf("redis subscribe %s: %w", topic, err)
	}

	b.mu.Lock()
	b.pubsub = append(b.pubsub, ps)
	b.mu.Unlock()

	ch := ps.Channel()
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case <-ctx.Done():
				_ = ps.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				handler(ctx, []byte(msg.Payload))
			}
		}
	}()
	return nil
}

func (b *RedisBus) Close() error {
	b.mu.Lock()
	subs := b.pubsub
	b.pubsub = nil
	b.mu.Unlock()
	for _, ps := range subs {
		_ = ps.Close()
	}
	b.wg.Wait()
	return b.client.Close()
}

var _ ports.Bus = (*RedisBus)(nil)
