package session

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownRole is returned when a role has no quota and no default is set.
var ErrUnknownRole = errors.New("no session quota for role")

// DefaultRoleQuotas returns the built-in quota table: three sessions for
// staff, one for admins.
func DefaultRoleQuotas() map[string]int {
	return map[string]int{
		"staff": 3,
		"admin": 1,
	}
}

// QuotaTable maps a role to its maximum number of concurrent sessions. It is
// immutable once built.
type QuotaTable struct {
	quotas map[string]int
	def    int
}

// NewQuotaTable copies quotas. def applies to roles not in the table; zero
// means such roles are rejected with [ErrUnknownRole].
func NewQuotaTable(quotas map[string]int, def int) (QuotaTable, error) {
	if def < 0 {
		return QuotaTable{}, errors.New("default session quota must be >= 0")
	}
	copied := make(map[string]int, len(quotas))
	for role, max := range quotas {
		if role == "" {
			return QuotaTable{}, errors.New("session quota role must not be empty")
		}
		if max < 1 {
			return QuotaTable{}, fmt.Errorf("session quota for role %q must be >= 1", role)
		}
		copied[role] = max
	}
	return QuotaTable{quotas: copied, def: def}, nil
}

// Quota returns the session limit for role.
func (q QuotaTable) Quota(role string) (int, error) {
	if max, ok := q.quotas[role]; ok {
		return max, nil
	}
	if q.def > 0 {
		return q.def, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRole, role)
}

// Roles returns a copy of the configured table, without the default.
func (q QuotaTable) Roles() map[string]int {
	out := make(map[string]int, len(q.quotas))
	for role, max := range q.quotas {
		out[role] = max
	}
	return out
}

// Limiter evicts the oldest sessions of an account once it holds more than
// its role allows.
type Limiter struct {
	store  Store
	quotas QuotaTable
}

// NewLimiter builds a [Limiter] over store.
func NewLimiter(store Store, quotas QuotaTable) *Limiter {
	return &Limiter{store: store, quotas: quotas}
}

// EnforceLimit keeps currentID plus at most quota-1 of the account's other
// sessions, deleting the oldest surplus first. It returns the evicted ids in
// eviction order.
//
// The list and the deletes are separate store calls. Two logins racing on
// the same account may each evict, and because deletes are idempotent the
// account ends at or below quota.
func (l *Limiter) EnforceLimit(ctx context.Context, accountID, role, currentID string) ([]string, error) {
	quota, err := l.quotas.Quota(role)
	if err != nil {
		return nil, err
	}

	sessions, err := l.store.ListByOwner(ctx, accountID)
	if err != nil {
		return nil, err
	}

	others := make([]*Session, 0, len(sessions))
	for _, sess := range sessions {
		if sess.ID != currentID {
			others = append(others, sess)
		}
	}

	allowed := quota - 1
	if len(others) <= allowed {
		return nil, nil
	}

	surplus := others[:len(others)-allowed]
	evicted := make([]string, 0, len(surplus))
	for _, sess := range surplus {
		if err := l.store.Delete(ctx, sess.ID); err != nil {
			return evicted, err
		}
		evicted = append(evicted, sess.ID)
	}
	return evicted, nil
}
