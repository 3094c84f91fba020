//go:build integration
// +build integration

package bus

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Xuanphat2004/moxa-gateway/internal/ports"
)

func startContainer(ctx context.Context, t *testing.T, image, port, ready, scheme string) string {
	t.Helper()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{port + "/tcp"},
			WaitingFor:   wait.ForLog(ready),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mapped, err := container.MappedPort(ctx, port)
	require.NoError(t, err)

	return fmt.Sprintf("%s://%s:%s", scheme, host, mapped.Port())
}

func roundTrip(ctx context.Context, t *testing.T, b ports.Bus) {
	t.Helper()
	defer b.Close()

	c := newCollector()
	require.NoError(t, b.Subscribe(ctx, "modbus_response", c.handle))
	payload := `{"transaction_id":7,"rtu_id":2,"rtu_address":500,"function":3,"value":42}`
	require.NoError(t, b.Publish(ctx, "modbus_response", []byte(payload)))

	assert.Equal(t, []string{payload}, c.wait(t, 1))
}

func TestIntegration_NATSRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	url := startContainer(ctx, t, "nats:2.10-alpine", "4222", "Server is ready", "nats")

	b, err := Open(ctx, Config{Driver: "nats", URL: url}, "tcp", nil)
	require.NoError(t, err)
	roundTrip(ctx, t, b)
}

func TestIntegration_RedisRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	url := startContainer(ctx, t, "redis:7-alpine", "6379", "Ready to accept connections", "redis")

	b, err := Open(ctx, Config{Driver: "redis", URL: url}, "field", nil)
	require.NoError(t, err)
	roundTrip(ctx, t, b)
}
