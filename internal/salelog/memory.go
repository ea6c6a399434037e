package salelog

import (
	"context"
	"errors"
	"sync"

	"github.com/noah-isme/pos-till/internal/sale"
)

// ErrEmpty is returned by LastAppended when nothing has been appended.
var ErrEmpty = errors.New("sale log is empty")

// Memory is an append-only in-process sale log.
type Memory struct {
	mu      sync.RWMutex
	records []sale.Record
}

// NewMemory returns an empty log.
func NewMemory() *Memory {
	return &Memory{}
}

// Append stores a copy of rec at the end of the log.
func (m *Memory) Append(_ context.Context, rec sale.Record) error {
	m.mu.Lock()
	m.records = append(m.records, rec.Clone())
	m.mu.Unlock()
	return nil
}

// LastAppended returns the most recently appended record.
func (m *Memory) LastAppended(context.Context) (sale.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.records) == 0 {
		return sale.Record{}, ErrEmpty
	}
	return m.records[len(m.records)-1].Clone(), nil
}

// All returns every record in append order.
func (m *Memory) All(context.Context) ([]sale.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]sale.Record, len(m.records))
	for i, rec := range m.records {
		out[i] = rec.Clone()
	}
	return out, nil
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }
