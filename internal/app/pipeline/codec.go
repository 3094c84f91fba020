package pipeline

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Xuanphat2004/moxa-gateway/internal/domain"
)

const (
	// FrameMinLen is the shortest inbound frame; it carries no quantity.
	FrameMinLen = 12
	// FrameLen is a full inbound frame including quantity.
	FrameLen = 14

	LegacyReplyLen = 8
	WideReplyLen   = 12
)

// Reply formats written back to TCP clients.
const (
	FormatLegacy = "legacy"
	FormatWide   = "wide"
)

// Modbus exception codes carried by failure replies.
const (
	ExcIllegalFunction        byte = 0x01
	ExcServerBusy             byte = 0x06
	ExcGatewayPathUnavailable byte = 0x0A
	ExcGatewayTargetFailed    byte = 0x0B
)

var ErrShortFrame = errors.New("inbound frame shorter than 12 bytes")

// ParseFrame decodes a big-endian inbound frame. Bytes past FrameLen are ignored.
func ParseFrame(b []byte) (domain.Request, error) {
	if len(b) < FrameMinLen {
		return domain.Request{}, fmt.Errorf("%w: got %d", ErrShortFrame, len(b))
	}
	r := domain.Request{
		TransactionID: binary.BigEndian.Uint16(b[0:2]),
		ProtocolID:    binary.BigEndian.Uint16(b[2:4]),
		Length:        binary.BigEndian.Uint16(b[4:6]),
		RTUID:         binary.BigEndian.Uint16(b[6:8]),
		Address:       binary.BigEndian.Uint16(b[8:10]),
		Function:      binary.BigEndian.Uint16(b[10:12]),
		Quantity:      1,
	}
	if len(b) >= FrameLen {
		r.Quantity = binary.BigEndian.Uint16(b[12:14])
	}
	return r, nil
}

// EncodeFrame is the inverse of ParseFrame for full frames.
func EncodeFrame(r domain.Request) []byte {
	b := make([]byte, FrameLen)
	binary.BigEndian.PutUint16(b[0:2], r.TransactionID)
	binary.BigEndian.PutUint16(b[2:4], r.ProtocolID)
	binary.BigEndian.PutUint16(b[4:6], r.Length)
	binary.BigEndian.PutUint16(b[6:8], r.RTUID)
	binary.BigEndian.PutUint16(b[8:10], r.Address)
	binary.BigEndian.PutUint16(b[10:12], r.Function)
	binary.BigEndian.PutUint16(b[12:14], r.Quantity)
	return b
}

// EncodeReply builds the reply for a matched field response. req is the request as the
// client sent it.
func EncodeReply(format string, req domain.Request, resp domain.FieldResponse) []byte {
	if format == FormatWide {
		if !resp.OK() {
			return EncodeFailure(format, req, failureCode(req))
		}
		return wide(req.TransactionID, req.RTUID, req.Address, req.Function, 0, resp.Value)
	}
	value := resp.Value
	if !resp.OK() {
		value = 0
	}
	// legacy echoes the bus response, device address included, one byte per field
	return legacy(resp.TransactionID, resp.RTUID, resp.Address, resp.Function, value)
}

// EncodeFailure builds the reply for a request that never reached the device. Only
// the wide format carries code; legacy clients see value 0 with the function unchanged.
func EncodeFailure(format string, req domain.Request, code byte) []byte {
	if format == FormatWide {
		return wide(req.TransactionID, req.RTUID, req.Address, req.Function|0x80, uint16(code), 0)
	}
	return legacy(req.TransactionID, req.RTUID, req.Address, req.Function, 0)
}

func legacy(tid, rtu, addr, fn, value uint16) []byte {
	return []byte{byte(tid), byte(rtu), byte(addr), byte(fn), byte(value >> 8), byte(value), 0, 0}
}

func wide(tid, rtu, addr, fn, status, value uint16) []byte {
	b := make([]byte, WideReplyLen)
	binary.BigEndian.PutUint16(b[0:2], tid)
	binary.BigEndian.PutUint16(b[2:4], rtu)
	binary.BigEndian.PutUint16(b[4:6], addr)
	binary.BigEndian.PutUint16(b[6:8], fn)
	binary.BigEndian.PutUint16(b[8:10], status)
	binary.BigEndian.PutUint16(b[10:12], value)
	return b
}

func failureCode(req domain.Request) byte {
	switch req.Function {
	case domain.FuncReadHolding, domain.FuncReadInput:
		return ExcGatewayTargetFailed
	default:
		return ExcIllegalFunction
	}
}

func EncodeRequest(r domain.FieldRequest) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRequest(data []byte) (domain.FieldRequest, error) {
	var r domain.FieldRequest
	if err := json.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("decode request: %w", err)
	}
	return r, nil
}

func EncodeResponse(r domain.FieldResponse) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeResponse(data []byte) (domain.FieldResponse, error) {
	var r domain.FieldResponse
	if err := json.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("decode response: %w", err)
	}
	return r, nil
}

// Reply is a decoded reply frame as a client sees it.
type Reply struct {
	TransactionID uint16
	RTUID         uint16
	Address       uint16
	Function      uint16
	Exception     byte // zero on success; always zero in legacy replies
	Value         uint16
}

// DecodeReply parses a reply frame written in format.
func DecodeReply(format string, b []byte) (Reply, error) {
	if format == FormatWide {
		if len(b) < WideReplyLen {
			return Reply{}, fmt.Errorf("wide reply: got %d bytes", len(b))
		}
		r := Reply{
			TransactionID: binary.BigEndian.Uint16(b[0:2]),
			RTUID:         binary.BigEndian.Uint16(b[2:4]),
			Address:       binary.BigEndian.Uint16(b[4:6]),
			Function:      binary.BigEndian.Uint16(b[6:8]) &^ 0x80,
			Value:         binary.BigEndian.Uint16(b[10:12]),
		}
		if b[7]&0x80 != 0 {
			r.Exception = byte(binary.BigEndian.Uint16(b[8:10]))
		}
		return r, nil
	}

	if len(b) < LegacyReplyLen {
		return Reply{}, fmt.Errorf("legacy reply: got %d bytes", len(b))
	}
	r := Reply{
		TransactionID: uint16(b[0]),
		RTUID:         uint16(b[1]),
		Address:       uint16(b[2]),
		Function:      uint16(b[3]),
		Value:         binary.BigEndian.Uint16(b[4:6]),
	}
	return r, nil
}
