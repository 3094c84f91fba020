package ports

import (
	"context"
	"errors"
)

var ErrQueueFull = errors.New("queue full")

// Queue is a bounded FIFO shared by exactly one producer and one consumer.
type Queue[T any] interface {
	Enqueue(ctx context.Context, item T) error
	Dequeue(ctx context.Context) (T, error)
	Len() int
	Cap() int
	Dropped() uint64
}
