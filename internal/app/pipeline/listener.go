package pipeline

import (
	"context"
	"time"

	"github.com/Xuanphat2004/moxa-gateway/internal/ports"
)

// NewResponseHandler matches bus responses to pending requests and writes the reply.
func NewResponseHandler(table *Table, tcp TCPSettings, obs ports.Observability) ports.MessageHandler {
	return func(_ context.Context, data []byte) {
		resp, err := DecodeResponse(data)
		if err != nil {
			obs.IncCounter(ports.MetricParseErrors, 1)
			obs.LogError("response_decode_failed", err)
			return
		}

		p, ok := table.Take(resp.TransactionID)
		if !ok {
			obs.IncCounter(ports.MetricUnknownTransactions, 1)
			obs.LogDebug("unknown_transaction", ports.Field{Key: "transaction_id", Value: resp.TransactionID})
			return
		}

		if !resp.OK() {
			obs.IncCounter(ports.MetricFailureReplies, 1)
		}
		frame := EncodeReply(tcp.ReplyFormat, p.Request, resp)
		if writeAndClose(p.Conn, frame, tcp.WriteTimeout, obs) {
			obs.IncCounter(ports.MetricRepliesSent, 1)
		}
		obs.ObserveLatency(ports.MetricRoundTripTime, time.Since(p.Accepted).Seconds())
	}
}

// RunSweeper expires pending entries past their deadline every interval.
func RunSweeper(ctx context.Context, table *Table, interval time.Duration, tcp TCPSettings, obs ports.Observability) error {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			sweep(table, now, tcp, obs)
		}
	}
}

func sweep(table *Table, now time.Time, tcp TCPSettings, obs ports.Observability) int {
	expired := table.Expire(now)
	for _, p := range expired {
		obs.IncCounter(ports.MetricPendingExpired, 1)
		obs.LogInfo("pending_expired", txFields(p.Request)...)
		replyFailure(p.Conn, p.Request, ExcGatewayTargetFailed, tcp, obs)
	}
	return len(expired)
}
