package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/Xuanphat2004/moxa-gateway/internal/domain"
	"github.com/Xuanphat2004/moxa-gateway/internal/ports"
)

func TestResponseHandlerWritesReplyAndRemovesEntry(t *testing.T) {
	table := NewTable(0)
	obs := newMockObs()
	conn, out := clientPipe(t)
	_ = table.Insert(&Pending{Conn: conn, Request: sampleRequest(), Accepted: time.Now()})

	handle := NewResponseHandler(table, testTCP, obs)
	payload, _ := EncodeResponse(domain.FieldResponse{TransactionID: 7, RTUID: 2, Address: 500, Function: 3, Value: 42, Values: []uint16{42}})
	handle(context.Background(), payload)

	if table.Len() != 0 {
		t.Fatalf("entry must be removed once the reply is written")
	}
	reply := recv(t, out)
	want := []byte{7, 2, 0xF4, 3, 0, 42, 0, 0}
	if string(reply) != string(want) {
		t.Fatalf("expected reply %v, got %v", want, reply)
	}
	if obs.counter(ports.MetricRepliesSent) != 1 {
		t.Fatalf("expected replies counter 1")
	}

	// a second delivery of the same response finds nothing
	handle(context.Background(), payload)
	if obs.counter(ports.MetricUnknownTransactions) != 1 {
		t.Fatalf("expected unknown transaction counter 1")
	}
}

func TestResponseHandlerWideFormat(t *testing.T) {
	table := NewTable(0)
	obs := newMockObs()
	conn, out := clientPipe(t)
	_ = table.Insert(&Pending{Conn: conn, Request: sampleRequest(), Accepted: time.Now()})

	tcp := testTCP
	tcp.ReplyFormat = FormatWide
	payload, _ := EncodeResponse(domain.FieldResponse{TransactionID: 7, RTUID: 2, Address: 500, Function: 3, Value: 42})
	NewResponseHandler(table, tcp, obs)(context.Background(), payload)

	reply := recv(t, out)
	want := []byte{0, 7, 0, 2, 0, 100, 0, 3, 0, 0, 0, 42}
	if string(reply) != string(want) {
		t.Fatalf("expected reply %v, got %v", want, reply)
	}
}

func TestResponseHandlerErrorStatus(t *testing.T) {
	table := NewTable(0)
	obs := newMockObs()
	conn, out := clientPipe(t)
	_ = table.Insert(&Pending{Conn: conn, Request: sampleRequest(), Accepted: time.Now()})

	payload, _ := EncodeResponse(domain.FieldResponse{TransactionID: 7, RTUID: 2, Address: 500, Function: 3, Status: domain.StatusError})
	NewResponseHandler(table, wideTCP, obs)(context.Background(), payload)

	if reply := recv(t, out); exceptionOf(t, reply) != ExcGatewayTargetFailed {
		t.Fatalf("expected target-failed reply, got %v", reply)
	}
	if obs.counter(ports.MetricFailureReplies) != 1 {
		t.Fatalf("expected failure reply counter 1")
	}
}

func TestResponseHandlerErrorStatusLegacy(t *testing.T) {
	table := NewTable(0)
	obs := newMockObs()
	conn, out := clientPipe(t)
	_ = table.Insert(&Pending{Conn: conn, Request: sampleRequest(), Accepted: time.Now()})

	payload, _ := EncodeResponse(domain.FieldResponse{TransactionID: 7, RTUID: 2, Address: 500, Function: 3, Status: domain.StatusError, Value: 9})
	NewResponseHandler(table, testTCP, obs)(context.Background(), payload)

	want := []byte{7, 2, 0xF4, 3, 0, 0, 0, 0}
	if reply := recv(t, out); string(reply) != string(want) {
		t.Fatalf("expected legacy reply %v, got %v", want, reply)
	}
}

func TestResponseHandlerMalformed(t *testing.T) {
	obs := newMockObs()
	NewResponseHandler(NewTable(0), testTCP, obs)(context.Background(), []byte("not json"))
	if obs.counter(ports.MetricParseErrors) != 1 {
		t.Fatalf("expected parse error counter 1")
	}
}

func TestResponseHandlerClosedClient(t *testing.T) {
	table := NewTable(0)
	obs := newMockObs()
	conn, _ := clientPipe(t)
	conn.Close()
	_ = table.Insert(&Pending{Conn: conn, Request: sampleRequest(), Accepted: time.Now()})

	payload, _ := EncodeResponse(domain.FieldResponse{TransactionID: 7, Function: 3, Value: 1})
	NewResponseHandler(table, testTCP, obs)(context.Background(), payload)

	if len(obs.errors) != 1 {
		t.Fatalf("expected write failure to be logged once, got %d", len(obs.errors))
	}
	if obs.counter(ports.MetricRepliesSent) != 0 {
		t.Fatalf("no reply must be counted for a closed client")
	}
}

func TestSweepExpiresWithFailureReply(t *testing.T) {
	table := NewTable(0)
	obs := newMockObs()
	conn, out := clientPipe(t)
	now := time.Now()
	_ = table.Insert(&Pending{Conn: conn, Request: sampleRequest(), Accepted: now.Add(-11 * time.Second), Deadline: now.Add(-time.Second)})

	if n := sweep(table, now, wideTCP, obs); n != 1 {
		t.Fatalf("expected 1 expired entry, got %d", n)
	}
	if reply := recv(t, out); exceptionOf(t, reply) != ExcGatewayTargetFailed {
		t.Fatalf("expected target-failed reply, got %v", reply)
	}
	if table.Len() != 0 || obs.counter(ports.MetricPendingExpired) != 1 {
		t.Fatalf("expected entry removed and counted")
	}
}

func TestRunSweeperStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunSweeper(ctx, NewTable(0), time.Millisecond, testTCP, newMockObs()) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("sweeper: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("sweeper did not stop")
	}
}
