package gateway

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/Xuanphat2004/moxa-gateway/internal/app/pipeline"
)

// Client sends single-request frames to a TCP gateway. Each Read uses a fresh
// connection because the gateway closes it after replying.
type Client struct {
	Addr    string
	Format  string // reply format the gateway is configured with
	Timeout time.Duration
}

// Read sends req and decodes the reply. Exception replies are returned without
// error; check Reply.Exception, which only the wide format carries.
func (c *Client) Read(ctx context.Context, req Request) (Reply, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.Addr)
	if err != nil {
		return Reply{}, fmt.Errorf("dial %s: %w", c.Addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if req.Length == 0 {
		req.Length = 6
	}
	if _, err := conn.Write(pipeline.EncodeFrame(req)); err != nil {
		return Reply{}, fmt.Errorf("write request: %w", err)
	}

	format := c.Format
	if format == "" {
		format = FormatLegacy
	}
	size := pipeline.LegacyReplyLen
	if format == FormatWide {
		size = pipeline.WideReplyLen
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(conn, buf); err != nil {
		return Reply{}, fmt.Errorf("read reply: %w", err)
	}
	return pipeline.DecodeReply(format, buf)
}
