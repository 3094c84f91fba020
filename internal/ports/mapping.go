package ports

import (
	"context"
	"errors"
)

// ErrMappingNotFound is returned by a MappingStore when no entry exists.
var ErrMappingNotFound = errors.New("mapping not found")

// MappingStore resolves public register addresses to device-local ones. The gateway
// only reads from it.
type MappingStore interface {
	Lookup(ctx context.Context, rtuID, publicAddress uint16) (uint16, error)
	Close() error
}
