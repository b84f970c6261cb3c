package session

import "time"

// Default timeouts for staff sessions.
const (
	DefaultIdleTimeout     = 30 * time.Minute
	DefaultAbsoluteTimeout = 8 * time.Hour
)

// ExpiryReason names the timeout that invalidated a session.
type ExpiryReason string

const (
	ReasonIdle     ExpiryReason = "idle"
	ReasonAbsolute ExpiryReason = "absolute"
)

// Verdict is the result of [TimeoutPolicy.Enforce].
type Verdict struct {
	Valid  bool
	Reason ExpiryReason
}

// TimeoutPolicy holds the idle and absolute limits. A zero duration disables
// that check.
//
// Both checks are exclusive of the limit: a session whose age equals the
// limit exactly is expired.
type TimeoutPolicy struct {
	Idle     time.Duration
	Absolute time.Duration
}

// DefaultTimeoutPolicy returns 30 minutes idle and 8 hours absolute.
func DefaultTimeoutPolicy() TimeoutPolicy {
	return TimeoutPolicy{Idle: DefaultIdleTimeout, Absolute: DefaultAbsoluteTimeout}
}

// CheckIdle reports whether sess is still within the idle limit at now.
func (p TimeoutPolicy) CheckIdle(sess *Session, now time.Time) bool {
	if p.Idle <= 0 {
		return true
	}
	return now.Sub(sess.LastActivityAt) < p.Idle
}

// CheckAbsolute reports whether sess is still within the absolute limit at
// now. Activity never extends it.
func (p TimeoutPolicy) CheckAbsolute(sess *Session, now time.Time) bool {
	if p.Absolute <= 0 {
		return true
	}
	return now.Sub(sess.CreatedAt) < p.Absolute
}

// Enforce evaluates both limits against the same instant. When both have
// fired the absolute reason is reported.
func (p TimeoutPolicy) Enforce(sess *Session, now time.Time) Verdict {
	if sess == nil {
		return Verdict{}
	}
	if !p.CheckAbsolute(sess, now) {
		return Verdict{Reason: ReasonAbsolute}
	}
	if !p.CheckIdle(sess, now) {
		return Verdict{Reason: ReasonIdle}
	}
	return Verdict{Valid: true}
}

// AbsoluteDeadline returns the instant at which sess expires regardless of
// activity, or the zero time when the absolute limit is disabled.
func (p TimeoutPolicy) AbsoluteDeadline(sess *Session) time.Time {
	if p.Absolute <= 0 {
		return time.Time{}
	}
	return sess.CreatedAt.Add(p.Absolute)
}
