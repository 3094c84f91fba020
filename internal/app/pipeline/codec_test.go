package pipeline

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Xuanphat2004/moxa-gateway/internal/domain"
)

func TestParseFrame(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want domain.Request
	}{
		{
			name: "full frame",
			in:   []byte{0x00, 0x07, 0x00, 0x00, 0x00, 0x06, 0x00, 0x02, 0x00, 0x64, 0x00, 0x03, 0x00, 0x02},
			want: domain.Request{TransactionID: 7, Length: 6, RTUID: 2, Address: 100, Function: 3, Quantity: 2},
		},
		{
			name: "no quantity defaults to one",
			in:   []byte{0x01, 0x02, 0x00, 0x00, 0x00, 0x06, 0x00, 0x11, 0x01, 0x00, 0x00, 0x04},
			want: domain.Request{TransactionID: 0x0102, Length: 6, RTUID: 0x11, Address: 0x0100, Function: 4, Quantity: 1},
		},
		{
			name: "trailing bytes ignored",
			in:   []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x06, 0x00, 0x01, 0x00, 0x01, 0x00, 0x03, 0x00, 0x01, 0xFF, 0xFF},
			want: domain.Request{TransactionID: 1, Length: 6, RTUID: 1, Address: 1, Function: 3, Quantity: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFrame(tt.in)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("request mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseFrameShort(t *testing.T) {
	for _, n := range []int{0, 1, 11} {
		if _, err := ParseFrame(make([]byte, n)); !errors.Is(err, ErrShortFrame) {
			t.Fatalf("len %d: expected ErrShortFrame, got %v", n, err)
		}
	}
}

func TestEncodeFrameParses(t *testing.T) {
	req := sampleRequest()
	got, err := ParseFrame(EncodeFrame(req))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if diff := cmp.Diff(req, got); diff != "" {
		t.Fatalf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeReply(t *testing.T) {
	req := sampleRequest()
	ok := domain.FieldResponse{TransactionID: 7, RTUID: 2, Address: 500, Function: 3, Status: domain.StatusOK, Value: 0x012A}
	failed := ok
	failed.Status = domain.StatusError
	failed.Value = 0

	stale := failed
	stale.Value = 0x0B

	unsupported := req
	unsupported.Function = 6

	tests := []struct {
		name   string
		format string
		req    domain.Request
		resp   domain.FieldResponse
		want   []byte
	}{
		{"legacy ok", FormatLegacy, req, ok, []byte{7, 2, 0xF4, 3, 0x01, 0x2A, 0, 0}},
		{"wide ok", FormatWide, req, ok, []byte{0, 7, 0, 2, 0, 100, 0, 3, 0, 0, 0x01, 0x2A}},
		{"legacy field error", FormatLegacy, req, failed, []byte{7, 2, 0xF4, 3, 0, 0, 0, 0}},
		{"wide field error", FormatWide, req, failed, []byte{0, 7, 0, 2, 0, 100, 0, 0x83, 0, 0x0B, 0, 0}},
		{"legacy field error ignores stale value", FormatLegacy, req, stale, []byte{7, 2, 0xF4, 3, 0, 0, 0, 0}},
		{"wide unsupported function", FormatWide, unsupported, failed, []byte{0, 7, 0, 2, 0, 100, 0, 0x86, 0, 0x01, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeReply(tt.format, tt.req, tt.resp)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("reply mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncodeFailure(t *testing.T) {
	// legacy clients read bytes 4-5 as the value, so the layout stays the success layout
	for _, code := range []byte{ExcServerBusy, ExcGatewayPathUnavailable, ExcGatewayTargetFailed} {
		got := EncodeFailure(FormatLegacy, sampleRequest(), code)
		want := []byte{7, 2, 100, 3, 0, 0, 0, 0}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("legacy reply for code %#x mismatch (-want +got):\n%s", code, diff)
		}
	}

	got := EncodeFailure(FormatWide, sampleRequest(), ExcServerBusy)
	want := []byte{0, 7, 0, 2, 0, 100, 0, 0x83, 0, 0x06, 0, 0}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("wide reply mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeResponseReferenceShape(t *testing.T) {
	// responses without status or values still decode as successful reads
	resp, err := DecodeResponse([]byte(`{"transaction_id":7,"rtu_id":2,"rtu_address":500,"function":3,"value":42,"extra":true}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := domain.FieldResponse{TransactionID: 7, RTUID: 2, Address: 500, Function: 3, Value: 42}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Fatalf("response mismatch (-want +got):\n%s", diff)
	}
	if !resp.OK() {
		t.Fatalf("expected ok status")
	}

	if _, err := DecodeResponse([]byte(`{"transaction_id":`)); err == nil {
		t.Fatalf("expected decode error for malformed payload")
	}
}

func TestRequestPayloadFields(t *testing.T) {
	data, err := EncodeRequest(domain.FieldRequest{TransactionID: 7, RTUID: 2, Address: 500, Function: 3, Quantity: 1, Length: 6})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `{"transaction_id":7,"protocol_id":0,"length":6,"rtu_id":2,"rtu_address":500,"function":3,"quantity":1}`
	if string(data) != want {
		t.Fatalf("unexpected payload %s", data)
	}
}

func TestDecodeReply(t *testing.T) {
	req := sampleRequest()
	ok := domain.FieldResponse{TransactionID: 7, RTUID: 2, Address: 500, Function: 3, Value: 42}

	tests := []struct {
		name   string
		format string
		frame  []byte
		want   Reply
	}{
		{"legacy ok", FormatLegacy, EncodeReply(FormatLegacy, req, ok), Reply{TransactionID: 7, RTUID: 2, Address: 0xF4, Function: 3, Value: 42}},
		{"wide ok", FormatWide, EncodeReply(FormatWide, req, ok), Reply{TransactionID: 7, RTUID: 2, Address: 100, Function: 3, Value: 42}},
		{"legacy failure", FormatLegacy, EncodeFailure(FormatLegacy, req, ExcGatewayPathUnavailable), Reply{TransactionID: 7, RTUID: 2, Address: 100, Function: 3}},
		{"wide failure", FormatWide, EncodeFailure(FormatWide, req, ExcServerBusy), Reply{TransactionID: 7, RTUID: 2, Address: 100, Function: 3, Exception: 0x06}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeReply(tt.format, tt.frame)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("reply mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := DecodeReply(FormatWide, make([]byte, LegacyReplyLen)); err == nil {
		t.Fatalf("expected error for short wide reply")
	}
}
