package pipeline

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/Xuanphat2004/moxa-gateway/internal/domain"
)

var (
	ErrDuplicateTransaction = errors.New("transaction id already pending")
	ErrTableFull            = errors.New("pending table full")
)

// Pending is one request waiting for its field response.
type Pending struct {
	Conn     net.Conn
	Request  domain.Request
	Accepted time.Time
	Deadline time.Time // zero means no deadline
}

// Table maps transaction ids to waiting client connections. Every method is one
// critical section, so an entry is handed out at most once.
type Table struct {
	mu      sync.Mutex
	entries map[uint16]*Pending
	max     int
}

// NewTable bounds the table to max entries; max <= 0 means unbounded.
func NewTable(max int) *Table {
	return &Table{entries: make(map[uint16]*Pending), max: max}
}

func (t *Table) Insert(p *Pending) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[p.Request.TransactionID]; ok {
		return ErrDuplicateTransaction
	}
	if t.max > 0 && len(t.entries) >= t.max {
		return ErrTableFull
	}
	t.entries[p.Request.TransactionID] = p
	return nil
}

// Take removes and returns the entry for id.
func (t *Table) Take(id uint16) (*Pending, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.entries[id]
	if ok {
		delete(t.entries, id)
	}
	return p, ok
}

// Remove deletes p only if it is still the entry stored under its id.
func (t *Table) Remove(p *Pending) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := p.Request.TransactionID
	if t.entries[id] != p {
		return false
	}
	delete(t.entries, id)
	return true
}

// Expire removes and returns every entry whose deadline is before now.
func (t *Table) Expire(now time.Time) []*Pending {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []*Pending
	for id, p := range t.entries {
		if !p.Deadline.IsZero() && p.Deadline.Before(now) {
			delete(t.entries, id)
			out = append(out, p)
		}
	}
	return out
}

func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Drain removes and returns every entry.
func (t *Table) Drain() []*Pending {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Pending, 0, len(t.entries))
	for id, p := range t.entries {
		delete(t.entries, id)
		out = append(out, p)
	}
	return out
}
