package store

import (
	"context"
	"sync"
	"time"

	"github.com/shandysiswandi/contactgate/internal/pkg/goerror"
	"github.com/shandysiswandi/contactgate/internal/pkg/instrument"
	"github.com/shandysiswandi/contactgate/internal/verification/entity"
)

// Memory keeps records in process memory. A restart drops every record.
type Memory struct {
	spanner

	mu      sync.RWMutex
	records map[string]entity.OTPRecord
}

func NewMemory(ins instrument.Instrumentation) *Memory {
	return &Memory{
		spanner: spanner{ins: ins, name: "verification.outbound.store.memory"},
		records: make(map[string]entity.OTPRecord),
	}
}

func (m *Memory) Get(ctx context.Context, email string) (_ *entity.OTPRecord, err error) {
	_, span := m.startSpan(ctx, "Get")
	defer func() { m.endSpan(span, err) }()

	m.mu.RLock()
	rec, ok := m.records[email]
	m.mu.RUnlock()

	if !ok {
		return nil, goerror.ErrNotFound
	}

	return &rec, nil
}

func (m *Memory) Put(ctx context.Context, rec entity.OTPRecord) error {
	_, span := m.startSpan(ctx, "Put")
	defer span.End()

	m.mu.Lock()
	m.records[rec.Email] = rec
	m.mu.Unlock()

	return nil
}

func (m *Memory) Delete(ctx context.Context, email string) error {
	_, span := m.startSpan(ctx, "Delete")
	defer span.End()

	m.mu.Lock()
	delete(m.records, email)
	m.mu.Unlock()

	return nil
}

func (m *Memory) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	_, span := m.startSpan(ctx, "SweepExpired")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for email, rec := range m.records {
		if rec.ExpiresAt.Before(now) {
			delete(m.records, email)
			n++
		}
	}

	return n, nil
}
