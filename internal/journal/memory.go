package journal

import (
	"context"
	"sync"

	"github.com/roach88/trycatch/internal/ir"
)

// Memory is an in-process Writer that keeps records in write order.
type Memory struct {
	mu      sync.Mutex
	records []ir.DispatchRecord
}

// WriteDispatch implements Writer.
func (m *Memory) WriteDispatch(_ context.Context, rec ir.DispatchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// Records returns a copy of the written records.
func (m *Memory) Records() []ir.DispatchRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ir.DispatchRecord, len(m.records))
	copy(out, m.records)
	return out
}
