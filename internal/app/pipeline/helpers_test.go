package pipeline

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/Xuanphat2004/moxa-gateway/internal/domain"
	"github.com/Xuanphat2004/moxa-gateway/internal/ports"
)

type mockObs struct {
	mu       sync.Mutex
	errors   []error
	counters map[string]float64
	gauges   map[string]float64
}

func newMockObs() *mockObs {
	return &mockObs{counters: map[string]float64{}, gauges: map[string]float64{}}
}

func (m *mockObs) LogDebug(string, ...ports.Field) {}
func (m *mockObs) LogInfo(string, ...ports.Field)  {}
func (m *mockObs) LogError(_ string, err error, _ ...ports.Field) {
	m.mu.Lock()
	m.errors = append(m.errors, err)
	m.mu.Unlock()
}
func (m *mockObs) LogCritical(msg string, err error, f ...ports.Field) { m.LogError(msg, err, f...) }
func (m *mockObs) IncCounter(name string, v float64) {
	m.mu.Lock()
	m.counters[name] += v
	m.mu.Unlock()
}
func (m *mockObs) ObserveLatency(string, float64) {}
func (m *mockObs) SetGauge(name string, v float64) {
	m.mu.Lock()
	m.gauges[name] = v
	m.mu.Unlock()
}

func (m *mockObs) counter(name string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[name]
}

type mapStore struct {
	entries map[[2]uint16]uint16
	err     error
}

func (s *mapStore) Lookup(_ context.Context, rtuID, publicAddress uint16) (uint16, error) {
	if s.err != nil {
		return 0, s.err
	}
	addr, ok := s.entries[[2]uint16{rtuID, publicAddress}]
	if !ok {
		return 0, ports.ErrMappingNotFound
	}
	return addr, nil
}

func (s *mapStore) Close() error { return nil }

type published struct {
	topic string
	data  []byte
}

type recordingBus struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (b *recordingBus) Publish(_ context.Context, topic string, data []byte) error {
	if b.err != nil {
		return b.err
	}
	b.mu.Lock()
	b.msgs = append(b.msgs, published{topic: topic, data: append([]byte(nil), data...)})
	b.mu.Unlock()
	return nil
}

func (b *recordingBus) Subscribe(context.Context, string, ports.MessageHandler) error {
	return errors.New("not supported")
}

func (b *recordingBus) Close() error { return nil }

func (b *recordingBus) published() []published {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]published(nil), b.msgs...)
}

// clientPipe returns the server end of an in-memory connection and a channel that
// yields everything the client end reads until the server closes.
func clientPipe(t *testing.T) (net.Conn, <-chan []byte) {
	t.Helper()
	server, client := net.Pipe()
	out := make(chan []byte, 1)
	go func() {
		defer client.Close()
		data, _ := io.ReadAll(client)
		out <- data
	}()
	return server, out
}

func recv(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case b := <-ch:
		return b
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for client data")
		return nil
	}
}

var (
	testTCP = TCPSettings{ReadTimeout: time.Second, WriteTimeout: time.Second, ReplyFormat: FormatLegacy}
	wideTCP = TCPSettings{ReadTimeout: time.Second, WriteTimeout: time.Second, ReplyFormat: FormatWide}
)

// exceptionOf decodes a wide reply and returns its exception code.
func exceptionOf(t *testing.T, reply []byte) byte {
	t.Helper()
	r, err := DecodeReply(FormatWide, reply)
	if err != nil {
		t.Fatalf("decode reply %v: %v", reply, err)
	}
	return r.Exception
}

func sampleRequest() domain.Request {
	return domain.Request{TransactionID: 7, ProtocolID: 0, Length: 6, RTUID: 2, Address: 100, Function: domain.FuncReadHolding, Quantity: 1}
}
