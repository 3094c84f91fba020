package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu   sync.Mutex
	msgs []string
	got  chan struct{}
}

func newCollector() *collector { return &collector{got: make(chan struct{}, 64)} }

func (c *collector) handle(_ context.Context, data []byte) {
	c.mu.Lock()
	c.msgs = append(c.msgs, string(data))
	c.mu.Unlock()
	c.got <- struct{}{}
}

func (c *collector) wait(t *testing.T, n int) []string {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-c.got:
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for message %d", i+1)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.msgs...)
}

func TestMemoryDeliversInOrderPerTopic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b := NewMemory()
	defer b.Close()

	req, resp := newCollector(), newCollector()
	require.NoError(t, b.Subscribe(ctx, "modbus_request", req.handle))
	require.NoError(t, b.Subscribe(ctx, "modbus_response", resp.handle))

	for _, m := range []string{"a", "b", "c"} {
		require.NoError(t, b.Publish(ctx, "modbus_request", []byte(m)))
	}
	require.NoError(t, b.Publish(ctx, "modbus_response", []byte("r")))

	assert.Equal(t, []string{"a", "b", "c"}, req.wait(t, 3))
	assert.Equal(t, []string{"r"}, resp.wait(t, 1))
}

func TestMemoryPublishCopiesPayload(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b := NewMemory()
	defer b.Close()

	c := newCollector()
	require.NoError(t, b.Subscribe(ctx, "t", c.handle))

	buf := []byte("first")
	require.NoError(t, b.Publish(ctx, "t", buf))
	copy(buf, "XXXXX")

	assert.Equal(t, []string{"first"}, c.wait(t, 1))
}

func TestMemoryPublishWithoutSubscribers(t *testing.T) {
	b := NewMemory()
	defer b.Close()
	assert.NoError(t, b.Publish(context.Background(), "nobody", []byte("x")))
}

func TestMemoryClosed(t *testing.T) {
	b := NewMemory()
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	assert.ErrorIs(t, b.Publish(context.Background(), "t", nil), ErrClosed)
	assert.ErrorIs(t, b.Subscribe(context.Background(), "t", func(context.Context, []byte) {}), ErrClosed)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	assert.Equal(t, "nats", cfg.Driver)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.URL)
	assert.Equal(t, "modbus_request", cfg.RequestTopic)
	assert.Equal(t, "modbus_response", cfg.ResponseTopic)
	assert.Equal(t, 5*time.Second, cfg.ConnectTimeout)
	require.NoError(t, cfg.Validate())

	same := Config{Driver: "memory", RequestTopic: "x", ResponseTopic: "x"}
	assert.Error(t, same.Validate())

	unknown := Config{Driver: "kafka", URL: "x", RequestTopic: "a", ResponseTopic: "b"}
	assert.Error(t, unknown.Validate())
}

func TestOpenMemory(t *testing.T) {
	b, err := Open(context.Background(), Config{Driver: "memory"}, "tcp", nil)
	require.NoError(t, err)
	defer b.Close()
	_, ok := b.(*Memory)
	assert.True(t, ok)
}
