package lockout

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process [Store].
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]State
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]State)}
}

func (m *MemoryStore) IncrementFailures(ctx context.Context, accountID string, threshold int, now time.Time) (State, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.records[accountID]
	st.Failures++
	newlyLocked := false
	if !st.Locked && st.Failures >= threshold {
		st.Locked = true
		st.LockedAt = now
		newlyLocked = true
	}
	m.records[accountID] = st
	return st, newlyLocked, nil
}

func (m *MemoryStore) ResetFailures(ctx context.Context, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if st, ok := m.records[accountID]; ok && !st.Locked {
		delete(m.records, accountID)
	}
	return nil
}

func (m *MemoryStore) Load(ctx context.Context, accountID string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[accountID], nil
}

func (m *MemoryStore) Unlock(ctx context.Context, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, accountID)
	return nil
}
