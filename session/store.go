package session

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no session exists for the given id.
	ErrNotFound = errors.New("session not found")
	// ErrDuplicateSessionID is returned by Create when the id is already taken.
	ErrDuplicateSessionID = errors.New("duplicate session id")
	// ErrUnavailable wraps backend failures. Callers must fail closed.
	ErrUnavailable = errors.New("session store unavailable")
)

// Store persists sessions. Implementations must be safe for concurrent use.
type Store interface {
	// Create inserts a new session with CreatedAt and LastActivityAt set to now.
	Create(ctx context.Context, id, ownerID string, meta Metadata, now time.Time) (*Session, error)
	// Touch advances LastActivityAt to now. It never moves the value backwards,
	// so LastActivityAt stays at or after CreatedAt.
	Touch(ctx context.Context, id string, now time.Time) error
	Get(ctx context.Context, id string) (*Session, error)
	// ListByOwner returns copies ordered oldest first (see SortOldestFirst).
	ListByOwner(ctx context.Context, ownerID string) ([]*Session, error)
	// Delete is idempotent: deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error
	// DeleteByOwnerExcept removes every session of ownerID other than keepID
	// and returns how many were removed. An empty keepID removes all of them.
	DeleteByOwnerExcept(ctx context.Context, ownerID, keepID string) (int, error)
}
