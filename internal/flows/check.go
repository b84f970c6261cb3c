package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/staffguard/session"
	"github.com/sirupsen/logrus"
)

// CheckMetrics carries metric IDs needed by the session check flow.
type CheckMetrics struct {
	ExpiredIdle     int
	ExpiredAbsolute int
	NotFound        int
	Latency         int
}

// CheckEvents carries audit event names used by the session check flow.
type CheckEvents struct {
	SessionExpired string
}

// CheckErrors carries host-level sentinel errors used by the session check flow.
type CheckErrors struct {
	EngineNotReady  error
	SessionNotFound error
}

// CheckDeps captures the per-request session validation dependencies.
type CheckDeps struct {
	Now           func() time.Time
	GetSession    func(context.Context, string) (*session.Session, error)
	Enforce       func(*session.Session, time.Time) session.Verdict
	DeleteSession func(context.Context, string) error
	TouchSession  func(context.Context, string, time.Time) error
	// IsLocked is optional; when set, sessions of locked accounts are rejected.
	IsLocked func(context.Context, string) (bool, error)
	// RevokeLocked also deletes a rejected session of a locked account.
	RevokeLocked bool

	ExpiredError func(session.ExpiryReason) error
	LockedError  func() error
	StoreError   StoreErrorFunc

	MetricInc func(int)
	Observe   func(int, time.Duration)
	EmitAudit AuditFunc
	Log       logrus.FieldLogger

	Metrics CheckMetrics
	Events  CheckEvents
	Errors  CheckErrors
}

func (d *CheckDeps) setDefaults() {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.MetricInc == nil {
		d.MetricInc = func(int) {}
	}
	if d.Observe == nil {
		d.Observe = func(int, time.Duration) {}
	}
	if d.EmitAudit == nil {
		d.EmitAudit = noopAudit
	}
	if d.Log == nil {
		d.Log = discardLogger()
	}
}

// RunCheckSession loads the session, evaluates both timeouts against one
// instant, deletes it when expired, and otherwise records activity at that
// same instant.
func RunCheckSession(ctx context.Context, sessionID string, deps CheckDeps) (*session.Session, error) {
	deps.setDefaults()
	if deps.GetSession == nil || deps.Enforce == nil || deps.DeleteSession == nil ||
		deps.TouchSession == nil || deps.ExpiredError == nil || deps.StoreError == nil {
		return nil, deps.Errors.EngineNotReady
	}

	start := time.Now()
	defer func() { deps.Observe(deps.Metrics.Latency, time.Since(start)) }()

	if sessionID == "" {
		deps.MetricInc(deps.Metrics.NotFound)
		return nil, deps.Errors.SessionNotFound
	}

	sess, err := deps.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			deps.MetricInc(deps.Metrics.NotFound)
			return nil, deps.Errors.SessionNotFound
		}
		return nil, deps.StoreError("get_session", "", sessionID, err)
	}

	now := deps.Now()
	verdict := deps.Enforce(sess, now)
	if !verdict.Valid {
		if err := deps.DeleteSession(ctx, sess.ID); err != nil {
			deps.Log.WithFields(logrus.Fields{
				"op":         "delete_expired",
				"account_id": sess.OwnerID,
				"session_id": sess.ID,
			}).WithError(err).Error("failed to delete expired session")
		}
		if verdict.Reason == session.ReasonIdle {
			deps.MetricInc(deps.Metrics.ExpiredIdle)
		} else {
			deps.MetricInc(deps.Metrics.ExpiredAbsolute)
		}
		expiredErr := deps.ExpiredError(verdict.Reason)
		deps.EmitAudit(ctx, deps.Events.SessionExpired, true, sess.OwnerID, sess.ID, expiredErr, func() map[string]string {
			return map[string]string{"reason": string(verdict.Reason)}
		})
		deps.Log.WithFields(logrus.Fields{
			"account_id": sess.OwnerID,
			"session_id": sess.ID,
			"reason":     verdict.Reason,
		}).Debug("session expired")
		return nil, expiredErr
	}

	if deps.IsLocked != nil && deps.LockedError != nil {
		locked, err := deps.IsLocked(ctx, sess.OwnerID)
		if err != nil {
			return nil, deps.StoreError("lockout_state", sess.OwnerID, sess.ID, err)
		}
		if locked {
			if !deps.RevokeLocked {
				return nil, deps.LockedError()
			}
			if err := deps.DeleteSession(ctx, sess.ID); err != nil {
				deps.Log.WithFields(logrus.Fields{
					"op":         "delete_locked",
					"account_id": sess.OwnerID,
					"session_id": sess.ID,
				}).WithError(err).Error("failed to delete session of locked account")
			}
			return nil, deps.LockedError()
		}
	}

	if err := deps.TouchSession(ctx, sess.ID, now); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			deps.MetricInc(deps.Metrics.NotFound)
			return nil, deps.Errors.SessionNotFound
		}
		return nil, deps.StoreError("touch_session", sess.OwnerID, sess.ID, err)
	}
	if now.After(sess.LastActivityAt) {
		sess.LastActivityAt = now
	}
	return sess, nil
}
