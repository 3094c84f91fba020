package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/Xuanphat2004/moxa-gateway/internal/ports"
)

// NATSBus carries gateway messages as core NATS subjects.
type NATSBus struct {
	conn *nats.Conn
	obs  ports.Observability

	mu   sync.Mutex
	subs []*nats.Subscription
}

// DialNATS connects once; the client then reconnects on its own for the life of the
// process.
func DialNATS(cfg Config, obs ports.Observability) (*NATSBus, error) {
	b := &NATSBus{obs: obs}
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(b.handleDisconnect),
		nats.ReconnectHandler(b.handleReconnect),
	}
	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", cfg.URL, err)
	}
	b.conn = conn
	return b, nil
}

func (b *NATSBus) Publish(_ context.Context, topic string, data []byte) error {
	if err := b.conn.Publish(topic, data); err != nil {
		return fmt.Errorf("nats publish %s: %w", topic, err)
	}
	return nil
}

func (b *NATSBus) Subscribe(ctx context.Context, topic string, handler ports.MessageHandler) error {
	sub, err := b.conn.Subscribe(topic, func(msg *nats.Msg) {
		handler(ctx, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", topic, err)
	}
	// the subscription is live on the server before Subscribe returns
	if err := b.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return fmt.Errorf("nats flush: %w", err)
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = sub.Unsubscribe()
	}()
	return nil
}

func (b *NATSBus) Close() error {
	b.mu.Lock()
	b.subs = nil
	b.mu.Unlock()
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
		return err
	}
	return nil
}

func (b *NATSBus) handleDisconnect(_ *nats.Conn, err error) {
	if b.obs == nil {
		return
	}
	if err != nil {
		b.obs.LogError("nats_disconnected", err)
		return
	}
	b.obs.LogInfo("nats_disconnected")
}

func (b *NATSBus) handleReconnect(nc *nats.Conn) {
	if b.obs != nil {
		b.obs.LogInfo("nats_reconnected", ports.Field{Key: "url", Value: nc.ConnectedUrl()})
	}
}

var _ ports.Bus = (*NATSBus)(nil)
