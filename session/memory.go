package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process [Store]. A single mutex serializes all
// operations, which makes every method atomic with respect to the others.
type MemoryStore struct {
	mu       sync.Mutex
	seq      uint64
	sessions map[string]*Session
	byOwner  map[string]map[string]struct{}
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		byOwner:  make(map[string]map[string]struct{}),
	}
}

func (m *MemoryStore) Create(ctx context.Context, id, ownerID string, meta Metadata, now time.Time) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[id]; exists {
		return nil, ErrDuplicateSessionID
	}
	m.seq++
	sess := &Session{
		ID:             id,
		OwnerID:        ownerID,
		CreatedAt:      now,
		LastActivityAt: now,
		IPAddress:      meta.IPAddress,
		UserAgent:      meta.UserAgent,
		Seq:            m.seq,
	}
	m.sessions[id] = sess
	owned, ok := m.byOwner[ownerID]
	if !ok {
		owned = make(map[string]struct{})
		m.byOwner[ownerID] = owned
	}
	owned[id] = struct{}{}
	return sess.Clone(), nil
}

func (m *MemoryStore) Touch(ctx context.Context, id string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	if now.After(sess.LastActivityAt) {
		sess.LastActivityAt = now
	}
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sess.Clone(), nil
}

func (m *MemoryStore) ListByOwner(ctx context.Context, ownerID string) ([]*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	owned := m.byOwner[ownerID]
	out := make([]*Session, 0, len(owned))
	for id := range owned {
		out = append(out, m.sessions[id].Clone())
	}
	SortOldestFirst(out)
	return out, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deleteLocked(id)
	return nil
}

func (m *MemoryStore) DeleteByOwnerExcept(ctx context.Context, ownerID, keepID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id := range m.byOwner[ownerID] {
		if id == keepID {
			continue
		}
		m.deleteLocked(id)
		removed++
	}
	return removed, nil
}

func (m *MemoryStore) deleteLocked(id string) {
	sess, ok := m.sessions[id]
	if !ok {
		return
	}
	delete(m.sessions, id)
	owned := m.byOwner[sess.OwnerID]
	delete(owned, id)
	if len(owned) == 0 {
		delete(m.byOwner, sess.OwnerID)
	}
}

// Len reports the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
