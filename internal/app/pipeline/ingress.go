package pipeline

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/Xuanphat2004/moxa-gateway/internal/domain"
	"github.com/Xuanphat2004/moxa-gateway/internal/ports"
)

// TCPSettings are the client-facing timeouts and reply layout.
type TCPSettings struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ReplyFormat  string
}

// Inbound is a parsed request together with the connection awaiting its reply.
type Inbound struct {
	Request  domain.Request
	Conn     net.Conn
	Accepted time.Time
}

// frameGrace is how long a connection may take to deliver the quantity field after the
// 12-byte header.
const frameGrace = 50 * time.Millisecond

// RunIngress accepts connections until ctx ends, reading one frame from each. The
// listener is closed when ctx ends.
func RunIngress(ctx context.Context, ln net.Listener, q ports.Queue[*Inbound], tcp TCPSettings, obs ports.Observability) error {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			obs.LogError("accept_failed", err)
			time.Sleep(50 * time.Millisecond)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			handleConn(ctx, conn, q, tcp, obs)
		}()
	}
}

func handleConn(ctx context.Context, conn net.Conn, q ports.Queue[*Inbound], tcp TCPSettings, obs ports.Observability) {
	if tcp.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(tcp.ReadTimeout))
	}
	buf := make([]byte, FrameLen)
	n, err := io.ReadAtLeast(conn, buf, FrameMinLen)
	if err != nil && n < FrameMinLen {
		obs.IncCounter(ports.MetricParseErrors, 1)
		obs.LogDebug("frame_read_failed", ports.Field{Key: "remote", Value: remoteAddr(conn)}, ports.Field{Key: "bytes", Value: n}, ports.Field{Key: "error", Value: err.Error()})
		conn.Close()
		return
	}
	if n < FrameLen {
		// the quantity may trail the header in a later segment
		_ = conn.SetReadDeadline(time.Now().Add(frameGrace))
		m, _ := io.ReadFull(conn, buf[n:])
		n += m
	}
	_ = conn.SetReadDeadline(time.Time{})

	req, err := ParseFrame(buf[:n])
	if err != nil {
		obs.IncCounter(ports.MetricParseErrors, 1)
		conn.Close()
		return
	}
	obs.IncCounter(ports.MetricFramesReceived, 1)

	in := &Inbound{Request: req, Conn: conn, Accepted: time.Now()}
	if err := q.Enqueue(ctx, in); err != nil {
		if errors.Is(err, ports.ErrQueueFull) {
			obs.IncCounter(ports.MetricQueueDropped, 1)
			obs.LogError("request_queue_full", err, txFields(req)...)
			replyFailure(conn, req, ExcServerBusy, tcp, obs)
			return
		}
		conn.Close()
	}
}
