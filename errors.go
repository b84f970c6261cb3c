package staffguard

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/staffguard/session"
)

var (
	// ErrInvalidCredentials is returned when the identifier is unknown or the secret does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked is returned for every login attempt against a locked account.
	ErrAccountLocked = errors.New("account locked")
	// ErrSessionExpired is returned when the idle or absolute timeout has fired.
	ErrSessionExpired = errors.New("session expired")
	// ErrSessionNotFound is returned when the session id is unknown. Callers
	// should treat it like ErrSessionExpired.
	ErrSessionNotFound = errors.New("session not found")
	// ErrStoreUnavailable is returned when a backing store fails. The engine
	// fails closed: no session is created or validated.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrUnknownRole is returned when an account's role has no session quota.
	ErrUnknownRole = session.ErrUnknownRole
	// ErrSessionCreationFailed is returned when no unique session id could be allocated.
	ErrSessionCreationFailed = errors.New("session creation failed")
	// ErrEngineNotReady is returned by methods called on a nil or partially built Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrAccountNotFound is returned by AccountProvider implementations for unknown identifiers.
	ErrAccountNotFound = errors.New("account not found")
)

// CredentialsError is a failed secret check. It unwraps to ErrInvalidCredentials.
type CredentialsError struct {
	FailureCount int
	Remaining    int
}

func (e *CredentialsError) Error() string {
	return ErrInvalidCredentials.Error()
}

func (e *CredentialsError) Unwrap() error {
	return ErrInvalidCredentials
}

// LockedError reports a locked account. JustLocked is true only for the
// failed attempt that crossed the threshold. It unwraps to ErrAccountLocked.
type LockedError struct {
	JustLocked   bool
	FailureCount int
	LockedAt     time.Time
}

func (e *LockedError) Error() string {
	if e.JustLocked {
		return fmt.Sprintf("account locked after %d failed attempts", e.FailureCount)
	}
	return ErrAccountLocked.Error()
}

func (e *LockedError) Unwrap() error {
	return ErrAccountLocked
}

// ExpiredError names the timeout that ended a session. It unwraps to ErrSessionExpired.
type ExpiredError struct {
	Reason session.ExpiryReason
}

func (e *ExpiredError) Error() string {
	return fmt.Sprintf("session expired (%s)", e.Reason)
}

func (e *ExpiredError) Unwrap() error {
	return ErrSessionExpired
}
