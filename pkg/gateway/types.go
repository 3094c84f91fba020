package gateway

import (
	"github.com/Xuanphat2004/moxa-gateway/internal/app/pipeline"
	"github.com/Xuanphat2004/moxa-gateway/internal/domain"
	"github.com/Xuanphat2004/moxa-gateway/internal/ports"
)

// Request is one register read as received from a TCP client.
type Request = domain.Request

// FieldResponse is the outcome of one field transaction.
type FieldResponse = domain.FieldResponse

// MappingEntry translates a public (rtu_id, address) pair to a device register.
type MappingEntry = domain.MappingEntry

// Reply is a decoded reply frame.
type Reply = pipeline.Reply

// Bus is the publish/subscribe transport between the two processes.
type Bus = ports.Bus

// MappingStore resolves public addresses to device addresses.
type MappingStore = ports.MappingStore

// FieldDialer opens connections to the field-bus segment.
type FieldDialer = ports.FieldDialer

// FieldConn is one open field-bus connection.
type FieldConn = ports.FieldConn

// Observability emits logs and metrics.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field

var (
	ErrMappingNotFound = ports.ErrMappingNotFound
	ErrQueueFull       = ports.ErrQueueFull
)

// Reply formats and exception codes.
const (
	FormatLegacy = pipeline.FormatLegacy
	FormatWide   = pipeline.FormatWide

	ExcIllegalFunction        = pipeline.ExcIllegalFunction
	ExcServerBusy             = pipeline.ExcServerBusy
	ExcGatewayPathUnavailable = pipeline.ExcGatewayPathUnavailable
	ExcGatewayTargetFailed    = pipeline.ExcGatewayTargetFailed
)
