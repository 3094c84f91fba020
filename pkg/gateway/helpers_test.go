package gateway

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.TCP.Listen = "127.0.0.1:0"
	cfg.Metrics.Addr = ""
	cfg.Field.Transport = "sim"
	cfg.Policy.RequestTimeout = 2 * time.Second
	cfg.Policy.SweepInterval = 20 * time.Millisecond
	return cfg
}

func quietLogger() *logrus.Logger {
	logger, _ := logtest.NewNullLogger()
	return logger
}

// testOptions isolates metrics per test so collectors never collide.
func testOptions(extra ...Option) []Option {
	return append([]Option{
		WithLogger(quietLogger()),
		WithRegisterer(prometheus.NewRegistry()),
	}, extra...)
}

type runner interface {
	Run(ctx context.Context) error
}

// start runs r in the background and waits for ready. The returned stop cancels and
// returns Run's error.
func start(t *testing.T, r runner, ready <-chan struct{}) func() error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	select {
	case <-ready:
	case err := <-done:
		cancel()
		require.FailNow(t, "runtime exited before ready", "%v", err)
	case <-time.After(5 * time.Second):
		cancel()
		require.FailNow(t, "runtime not ready")
	}

	var stopped bool
	var result error
	stop := func() error {
		if stopped {
			return result
		}
		stopped = true
		cancel()
		select {
		case result = <-done:
		case <-time.After(5 * time.Second):
			t.Errorf("runtime did not stop")
		}
		return result
	}
	t.Cleanup(func() { _ = stop() })
	return stop
}

func sampleRequest() Request {
	return Request{TransactionID: 7, Length: 6, RTUID: 2, Address: 100, Function: 3, Quantity: 1}
}

// freeAddr returns a loopback address nothing is listening on.
func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}
