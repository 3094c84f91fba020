package pipeline

import (
	"net"
	"time"

	"github.com/Xuanphat2004/moxa-gateway/internal/domain"
	"github.com/Xuanphat2004/moxa-gateway/internal/ports"
)

// writeAndClose writes one reply frame and closes conn. Errors are logged only: the
// client may already be gone.
func writeAndClose(conn net.Conn, frame []byte, timeout time.Duration, obs ports.Observability) bool {
	defer conn.Close()
	if timeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	if _, err := conn.Write(frame); err != nil {
		obs.LogError("reply_write_failed", err, ports.Field{Key: "remote", Value: remoteAddr(conn)})
		return false
	}
	return true
}

// replyFailure sends an exception reply for req and closes conn.
func replyFailure(conn net.Conn, req domain.Request, code byte, tcp TCPSettings, obs ports.Observability) {
	obs.IncCounter(ports.MetricFailureReplies, 1)
	writeAndClose(conn, EncodeFailure(tcp.ReplyFormat, req, code), tcp.WriteTimeout, obs)
}

func remoteAddr(conn net.Conn) string {
	if a := conn.RemoteAddr(); a != nil {
		return a.String()
	}
	return ""
}

func txFields(req domain.Request) []ports.Field {
	return []ports.Field{
		{Key: "transaction_id", Value: req.TransactionID},
		{Key: "rtu_id", Value: req.RTUID},
		{Key: "address", Value: req.Address},
	}
}
