package gateway

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// NewStaticMappings returns an in-memory MappingStore seeded with entries. Later
// entries for the same (rtu_id, address) pair win.
func NewStaticMappings(entries ...MappingEntry) *StaticMappings {
	s := &StaticMappings{entries: make(map[mappingKey]uint16, len(entries))}
	for _, e := range entries {
		s.Put(e)
	}
	return s
}

// MappingFunc adapts a lookup function into a MappingStore so callers can resolve
// addresses without defining a struct.
type MappingFunc func(ctx context.Context, rtuID, publicAddress uint16) (uint16, error)

func (f MappingFunc) Lookup(ctx context.Context, rtuID, publicAddress uint16) (uint16, error) {
	if f == nil {
		return 0, fmt.Errorf("mapping func: nil handler")
	}
	return f(ctx, rtuID, publicAddress)
}

func (f MappingFunc) Close() error { return nil }

type mappingKey struct {
	rtu, addr uint16
}

// StaticMappings is a MappingStore held in memory.
type StaticMappings struct {
	mu      sync.RWMutex
	entries map[mappingKey]uint16
}

func (s *StaticMappings) Lookup(_ context.Context, rtuID, publicAddress uint16) (uint16, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	device, ok := s.entries[mappingKey{rtuID, publicAddress}]
	if !ok {
		return 0, fmt.Errorf("rtu %d address %d: %w", rtuID, publicAddress, ErrMappingNotFound)
	}
	return device, nil
}

func (s *StaticMappings) Put(e MappingEntry) {
	s.mu.Lock()
	s.entries[mappingKey{e.RTUID, e.PublicAddress}] = e.DeviceAddress
	s.mu.Unlock()
}

func (s *StaticMappings) Delete(rtuID, publicAddress uint16) {
	s.mu.Lock()
	delete(s.entries, mappingKey{rtuID, publicAddress})
	s.mu.Unlock()
}

// List returns the entries ordered by rtu_id, then public address.
func (s *StaticMappings) List() []MappingEntry {
	s.mu.RLock()
	out := make([]MappingEntry, 0, len(s.entries))
	for k, v := range s.entries {
		out = append(out, MappingEntry{RTUID: k.rtu, PublicAddress: k.addr, DeviceAddress: v})
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].RTUID != out[j].RTUID {
			return out[i].RTUID < out[j].RTUID
		}
		return out[i].PublicAddress < out[j].PublicAddress
	})
	return out
}

func (s *StaticMappings) Close() error { return nil }

var (
	_ MappingStore = (*StaticMappings)(nil)
	_ MappingStore = MappingFunc(nil)
)
