package registration

import (
	"context"
	"sync"
	"time"

	"github.com/robertarktes/event-registration/internal/domain"
	"github.com/robertarktes/event-registration/internal/wizard"
)

// MemorySessions keeps every session in process memory.
type MemorySessions struct {
	mu     sync.Mutex
	stores map[string]*wizard.MemoryStore
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{stores: make(map[string]*wizard.MemoryStore)}
}

func (m *MemorySessions) Scope(sessionID string) wizard.Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.stores[sessionID]
	if !ok {
		st = wizard.NewMemoryStore()
		m.stores[sessionID] = st
	}
	return st
}

func (m *MemorySessions) Exists(_ context.Context, sessionID string) (bool, error) {
	m.mu.Lock()
	st, ok := m.stores[sessionID]
	m.mu.Unlock()
	return ok && st.Len() > 0, nil
}

// MemoryLocker is a process-local Locker.
type MemoryLocker struct {
	mu     sync.Mutex
	locked map[string]time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locked: make(map[string]time.Time)}
}

func (l *MemoryLocker) Lock(_ context.Context, sessionID string, ttl time.Duration) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if until, ok := l.locked[sessionID]; ok && time.Now().Before(until) {
		return nil, ErrSessionBusy
	}
	until := time.Now().Add(ttl)
	l.locked[sessionID] = until
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.locked[sessionID] == until {
			delete(l.locked, sessionID)
		}
		return nil
	}, nil
}

// MemoryConfirmations keeps confirmations in process memory.
type MemoryConfirmations struct {
	mu   sync.Mutex
	byID map[string]domain.Confirmation
}

func NewMemoryConfirmations() *MemoryConfirmations {
	return &MemoryConfirmations{byID: make(map[string]domain.Confirmation)}
}

func (m *MemoryConfirmations) Record(_ context.Context, c domain.Confirmation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.byID[c.OrderID]; dup {
		return domain.ErrConflict
	}
	m.byID[c.OrderID] = c
	return nil
}

func (m *MemoryConfirmations) GetConfirmation(_ context.Context, orderID string) (domain.Confirmation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[orderID]
	if !ok {
		return domain.Confirmation{}, domain.ErrNotFound
	}
	return c, nil
}
