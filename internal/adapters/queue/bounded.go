package queue

import (
	"context"
	"sync/atomic"

	"github.com/Xuanphat2004/moxa-gateway/internal/ports"
)

// ErrQueueFull is returned by Enqueue when the queue is at capacity and the policy
// is "drop" or "reject".
var ErrQueueFull = ports.ErrQueueFull

// Bounded is a fixed-capacity FIFO. Enqueue applies the overflow policy, Dequeue
// blocks until an item is available.
type Bounded[T any] struct {
	items   chan T
	policy  string
	dropped atomic.Uint64
}

func NewBounded[T any](capacity int, onFull string) *Bounded[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Bounded[T]{
		items:  make(chan T, capacity),
		policy: onFull,
	}
}

func (q *Bounded[T]) Enqueue(ctx context.Context, item T) error {
	select {
	case q.items <- item:
		return nil
	default:
	}

	switch q.policy {
	case "drop", "reject":
		q.dropped.Add(1)
		return ErrQueueFull
	}

	select {
	case q.items <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Bounded[T]) Dequeue(ctx context.Context) (T, error) {
	select {
	case item := <-q.items:
		return item, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Drain removes and returns everything currently buffered without blocking.
func (q *Bounded[T]) Drain() []T {
	var out []T
	for {
		select {
		case item := <-q.items:
			out = append(out, item)
		default:
			return out
		}
	}
}

func (q *Bounded[T]) Len() int { return len(q.items) }

func (q *Bounded[T]) Cap() int { return cap(q.items) }

// Dropped counts items refused because the queue was full.
func (q *Bounded[T]) Dropped() uint64 { return q.dropped.Load() }

var _ ports.Queue[int] = (*Bounded[int])(nil)
