package bus

import (
	"context"
	"errors"
	"sync"

	"github.com/Xuanphat2004/moxa-gateway/internal/ports"
)

var ErrClosed = errors.New("bus closed")

// Memory is an in-process Bus. Each subscription gets its own ordered delivery
// goroutine so publishers never run subscriber code.
type Memory struct {
	mu     sync.RWMutex
	subs   map[string][]*memorySub
	closed bool
	wg     sync.WaitGroup
}

type memorySub struct {
	ch   chan []byte
	done chan struct{}
	once sync.Once
}

func (s *memorySub) stop() { s.once.Do(func() { close(s.done) }) }

func NewMemory() *Memory {
	return &Memory{subs: make(map[string][]*memorySub)}
}

func (m *Memory) Publish(ctx context.Context, topic string, data []byte) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrClosed
	}
	subs := append([]*memorySub(nil), m.subs[topic]...)
	m.mu.RUnlock()

	payload := append([]byte(nil), data...)
	for _, s := range subs {
		select {
		case s.ch <- payload:
		case <-s.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (m *Memory) Subscribe(ctx context.Context, topic string, handler ports.MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	s := &memorySub{ch: make(chan []byte, 256), done: make(chan struct{})}
	m.subs[topic] = append(m.subs[topic], s)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for {
			select {
			case <-ctx.Done():
				s.stop()
				return
			case <-s.done:
				return
			case data := <-s.ch:
				handler(ctx, data)
			}
		}
	}()
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	for _, subs := range m.subs {
		for _, s := range subs {
			s.stop()
		}
	}
	m.subs = nil
	m.mu.Unlock()
	m.wg.Wait()
	return nil
}

var _ ports.Bus = (*Memory)(nil)
