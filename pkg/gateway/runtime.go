package gateway

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/Xuanphat2004/moxa-gateway/internal/adapters/mapping"
	"github.com/Xuanphat2004/moxa-gateway/internal/adapters/observability"
	"github.com/Xuanphat2004/moxa-gateway/internal/ports"
)

// runtime holds what both processes share: logging, metrics and the DB log hook.
type runtime struct {
	cfg        *Config
	role       string
	obs        ports.Observability
	logger     *logrus.Logger
	registerer prometheus.Registerer
	closeLog   func() error

	hookDB *sql.DB
	hook   *observability.DBHook
	// secondary runtimes share another runtime's logger and metrics server
	secondary bool
}

func newRuntime(cfg *Config, role string, o overrides) (*runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	rt := &runtime{cfg: cfg, role: role, registerer: o.registerer, closeLog: func() error { return nil }}

	rt.logger = o.logger
	if rt.logger == nil {
		logger, closeLog, err := observability.NewLogger(observability.LoggerOptions{
			Level:   cfg.Log.Level,
			File:    cfg.Log.File,
			Service: rt.service(),
			JSON:    cfg.Log.JSON,
		})
		if err != nil {
			return nil, err
		}
		rt.logger, rt.closeLog = logger, closeLog
	}

	rt.obs = o.observability
	if rt.obs == nil {
		rt.obs = observability.NewPromObs(rt.logger, o.registerer)
	}
	return rt, nil
}

func (rt *runtime) service() string {
	if rt.cfg.Log.Service != "" {
		return rt.cfg.Log.Service
	}
	return "moxa-gateway-" + rt.role
}

// attachDBHook mirrors info-and-above log entries into the logs table.
func (rt *runtime) attachDBHook(ctx context.Context) error {
	if !rt.cfg.Log.DB || rt.secondary || rt.hook != nil {
		return nil
	}
	db, err := mapping.OpenDB(ctx, rt.cfg.Mapping.Driver, rt.cfg.Mapping.DSN)
	if err != nil {
		return fmt.Errorf("log db: %w", err)
	}
	rt.hookDB = db
	rt.hook = observability.NewDBHook(db, "logs", rt.service(), 256)
	rt.logger.AddHook(rt.hook)
	return nil
}

// serveMetrics exposes /metrics and /healthz until ctx ends. An empty address
// disables the server.
func (rt *runtime) serveMetrics(ctx context.Context) error {
	if rt.cfg.Metrics.Addr == "" || rt.secondary {
		return nil
	}

	handler := promhttp.Handler()
	if g, ok := rt.registerer.(prometheus.Gatherer); ok {
		handler = promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              rt.cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.obs.LogError("metrics_server_exited", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// sampleGauges calls record every interval until ctx ends.
func (rt *runtime) sampleGauges(ctx context.Context, interval time.Duration, record func()) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			record()
		}
	}
}

func (rt *runtime) close() error {
	var errs []error
	if rt.hook != nil {
		if err := rt.hook.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if rt.hookDB != nil {
		if err := rt.hookDB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := rt.closeLog(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
