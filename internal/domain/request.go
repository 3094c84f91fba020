package domain

// Function codes the gateway forwards to the field bus.
const (
	FuncReadHolding uint16 = 3
	FuncReadInput   uint16 = 4
)

// Status values carried by a FieldResponse.
const (
	StatusOK    = 0
	StatusError = 1
)

// Request is one register read received from a TCP client. Address is the public
// address until the resolver replaces it with the device address.
type Request struct {
	TransactionID uint16 `json:"transaction_id"`
	ProtocolID    uint16 `json:"protocol_id"`
	Length        uint16 `json:"length"`
	RTUID         uint16 `json:"rtu_id"`
	Address       uint16 `json:"rtu_address"`
	Function      uint16 `json:"function"`
	Quantity      uint16 `json:"quantity"`
}

// FieldRequest is a translated Request as seen by the field side.
type FieldRequest = Request

// FieldResponse is the outcome of exactly one field transaction. Value is the first
// register of the range; Values holds every register that was read.
type FieldResponse struct {
	TransactionID uint16   `json:"transaction_id"`
	RTUID         uint16   `json:"rtu_id"`
	Address       uint16   `json:"rtu_address"`
	Function      uint16   `json:"function"`
	Status        int      `json:"status"`
	Value         uint16   `json:"value"`
	Values        []uint16 `json:"values,omitempty"`
}

// OK reports whether the field transaction succeeded.
func (r FieldResponse) OK() bool { return r.Status == StatusOK }

// MappingEntry translates a public (rtu_id, address) pair to a device-local register.
type MappingEntry struct {
	RTUID         uint16 `json:"rtu_id" dynamodbav:"rtu_id"`
	PublicAddress uint16 `json:"tcp_address" dynamodbav:"tcp_address"`
	DeviceAddress uint16 `json:"rtu_address" dynamodbav:"rtu_address"`
}
