package ports

import "context"

// MessageHandler receives one bus payload. Handlers must not retain data after returning.
type MessageHandler func(ctx context.Context, data []byte)

// Bus is the asynchronous publish/subscribe transport between the two gateway processes.
type Bus interface {
	Publish(ctx context.Context, topic string, data []byte) error
	Subscribe(ctx context.Context, topic string, handler MessageHandler) error
	Close() error
}
