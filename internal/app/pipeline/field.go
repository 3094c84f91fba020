package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/Xuanphat2004/moxa-gateway/internal/domain"
	"github.com/Xuanphat2004/moxa-gateway/internal/ports"
)

var (
	ErrUnsupportedFunction = errors.New("unsupported function code")
	ErrSlaveOutOfRange     = errors.New("rtu id outside the serial slave range")
)

// MaxSlaveID is the highest unicast address on a serial segment.
const MaxSlaveID = 247

// ExecutorSettings configure the per-transaction timeouts and the reconnect delay.
type ExecutorSettings struct {
	ResponseTimeout time.Duration
	ByteTimeout     time.Duration
	Backoff         ports.Backoff
}

// NewRequestHandler decodes bus requests onto the field queue.
func NewRequestHandler(q ports.Queue[domain.FieldRequest], obs ports.Observability) ports.MessageHandler {
	return func(ctx context.Context, data []byte) {
		req, err := DecodeRequest(data)
		if err != nil {
			obs.IncCounter(ports.MetricParseErrors, 1)
			obs.LogError("request_decode_failed", err)
			return
		}
		if err := q.Enqueue(ctx, req); err != nil {
			if errors.Is(err, ports.ErrQueueFull) {
				obs.IncCounter(ports.MetricQueueDropped, 1)
				obs.LogError("field_queue_full", err, txFields(req)...)
			}
		}
	}
}

// Executor owns the single field-bus connection. It is either disconnected (conn is
// nil) or connected.
type Executor struct {
	dialer    ports.FieldDialer
	requests  ports.Queue[domain.FieldRequest]
	responses ports.Queue[domain.FieldResponse]
	settings  ExecutorSettings
	obs       ports.Observability

	conn ports.FieldConn
}

func NewExecutor(dialer ports.FieldDialer, requests ports.Queue[domain.FieldRequest], responses ports.Queue[domain.FieldResponse], settings ExecutorSettings, obs ports.Observability) *Executor {
	return &Executor{
		dialer:    dialer,
		requests:  requests,
		responses: responses,
		settings:  settings,
		obs:       obs,
	}
}

// Run connects, then executes requests one at a time until ctx ends.
func (e *Executor) Run(ctx context.Context) error {
	defer e.disconnect()
	for {
		if e.conn == nil {
			if err := e.connect(ctx); err != nil {
				return nil
			}
		}

		req, err := e.requests.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		resp := e.execute(req)
		if err := e.responses.Enqueue(ctx, resp); err != nil {
			if errors.Is(err, ports.ErrQueueFull) {
				e.obs.IncCounter(ports.MetricQueueDropped, 1)
				e.obs.LogError("response_queue_full", err, txFields(req)...)
			} else if ctx.Err() != nil {
				return nil
			}
		}
	}
}

// connect dials until it succeeds, waiting the next backoff delay after each failure.
// Every call starts the schedule over from the initial delay.
func (e *Executor) connect(ctx context.Context) error {
	dial := func() error {
		conn, err := e.dialer.Dial(ctx)
		if err != nil {
			return err
		}
		e.conn = conn
		return nil
	}
	notify := func(err error, d time.Duration) {
		e.obs.LogError("field_connect_failed", err, ports.Field{Key: "retry_in", Value: d.String()})
	}
	if err := backoff.RetryNotify(dial, backoff.WithContext(e.settings.Backoff.NewExponential(), ctx), notify); err != nil {
		return err
	}
	e.obs.IncCounter(ports.MetricFieldReconnects, 1)
	e.obs.SetGauge(ports.MetricFieldConnected, 1)
	e.obs.LogInfo("field_connected")
	return nil
}

func (e *Executor) disconnect() {
	if e.conn == nil {
		return
	}
	if err := e.conn.Close(); err != nil {
		e.obs.LogError("field_close_failed", err)
	}
	e.conn = nil
	e.obs.SetGauge(ports.MetricFieldConnected, 0)
}

// execute performs one transaction and always yields a response.
func (e *Executor) execute(req domain.FieldRequest) domain.FieldResponse {
	resp := domain.FieldResponse{
		TransactionID: req.TransactionID,
		RTUID:         req.RTUID,
		Address:       req.Address,
		Function:      req.Function,
		Status:        domain.StatusError,
	}
	e.obs.IncCounter(ports.MetricFieldTransactions, 1)

	var read func(address, quantity uint16) ([]uint16, error)
	switch req.Function {
	case domain.FuncReadHolding:
		read = e.conn.ReadHoldingRegisters
	case domain.FuncReadInput:
		read = e.conn.ReadInputRegisters
	default:
		e.obs.IncCounter(ports.MetricFieldErrors, 1)
		e.obs.LogError("field_request_rejected", fmt.Errorf("%w: %d", ErrUnsupportedFunction, req.Function), txFields(req)...)
		return resp
	}
	if req.RTUID > MaxSlaveID {
		e.obs.IncCounter(ports.MetricFieldErrors, 1)
		e.obs.LogError("field_request_rejected", fmt.Errorf("%w: %d", ErrSlaveOutOfRange, req.RTUID), txFields(req)...)
		return resp
	}

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	e.conn.SetSlave(byte(req.RTUID))
	e.conn.SetTimeouts(e.settings.ResponseTimeout, e.settings.ByteTimeout)

	start := time.Now()
	regs, err := read(req.Address, quantity)
	e.obs.ObserveLatency(ports.MetricFieldTransactionTime, time.Since(start).Seconds())
	if err != nil {
		e.obs.IncCounter(ports.MetricFieldErrors, 1)
		e.obs.LogError("field_read_failed", err, txFields(req)...)
		// any failure, exception replies included, costs the connection
		e.disconnect()
		return resp
	}

	resp.Status = domain.StatusOK
	resp.Values = regs
	if len(regs) > 0 {
		resp.Value = regs[0]
	}
	return resp
}

// RunPublisher publishes field responses on topic. Failures are counted and dropped.
func RunPublisher(ctx context.Context, q ports.Queue[domain.FieldResponse], bus ports.Bus, topic string, obs ports.Observability) error {
	for {
		resp, err := q.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		payload, err := EncodeResponse(resp)
		if err == nil {
			err = bus.Publish(ctx, topic, payload)
		}
		if err != nil {
			obs.IncCounter(ports.MetricPublishErrors, 1)
			obs.LogError("response_publish_failed", err, ports.Field{Key: "transaction_id", Value: resp.TransactionID})
			continue
		}
		obs.IncCounter(ports.MetricResponsesPublished, 1)
	}
}
