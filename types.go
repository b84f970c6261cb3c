package staffguard

import (
	"context"
	"io"
	"time"

	internalaudit "github.com/MrEthical07/staffguard/internal/audit"
	"github.com/MrEthical07/staffguard/lockout"
	"github.com/MrEthical07/staffguard/session"
)

// Clock supplies the current time. Each engine operation reads it once.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to [Clock].
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// AccountRecord is the subset of a staff account the engine needs to log it in.
type AccountRecord struct {
	ID           string
	Identifier   string
	PasswordHash string
	Role         string
}

// AccountProvider resolves login identifiers to staff accounts. It returns
// ErrAccountNotFound for unknown identifiers; any other error is treated as a
// store failure.
type AccountProvider interface {
	GetAccountByIdentifier(ctx context.Context, identifier string) (AccountRecord, error)
}

// LoginResult is returned by a successful [Engine.Login].
type LoginResult struct {
	SessionID  string
	AccountID  string
	Role       string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	Evicted    int
	EvictedIDs []string
}

// SessionInfo describes a validated session.
type SessionInfo struct {
	SessionID      string
	AccountID      string
	CreatedAt      time.Time
	LastActivityAt time.Time
	ExpiresAt      time.Time
	IPAddress      string
	UserAgent      string
}

func sessionInfo(sess *session.Session, deadline time.Time) *SessionInfo {
	return &SessionInfo{
		SessionID:      sess.ID,
		AccountID:      sess.OwnerID,
		CreatedAt:      sess.CreatedAt,
		LastActivityAt: sess.LastActivityAt,
		ExpiresAt:      deadline,
		IPAddress:      sess.IPAddress,
		UserAgent:      sess.UserAgent,
	}
}

// LockoutStatus is the administrative view of an account's lockout record.
type LockoutStatus struct {
	AccountID string
	Failures  int
	Locked    bool
	LockedAt  time.Time
	Remaining int
}

// Verifier checks a secret against a stored hash; see package password.
type Verifier interface {
	Verify(secret, encodedHash string) (bool, error)
}

// LockoutStore is the persistence contract of the lockout tracker.
type LockoutStore = lockout.Store

// SessionStore is the persistence contract of sessions.
type SessionStore = session.Store

// AuditEvent is an alias of the internal audit event model.
type AuditEvent = internalaudit.Event

// AuditSink receives audit events from the dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink drops audit events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink forwards audit events into a buffered channel.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// LogSink writes audit events to a logrus logger.
type LogSink = internalaudit.LogSink

// TeeSink delivers each audit event to several sinks.
type TeeSink = internalaudit.Tee

// NewChannelSink creates a [ChannelSink] with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] writing to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
