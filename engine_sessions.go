package staffguard

import (
	"context"
	"errors"
	"strconv"

	"github.com/MrEthical07/staffguard/session"
)

// TerminateSession deletes one session. Unknown ids are not an error.
func (e *Engine) TerminateSession(ctx context.Context, sessionID string) error {
	if e == nil || e.sessions == nil {
		return ErrEngineNotReady
	}
	if sessionID == "" {
		return nil
	}

	owner := ""
	if sess, err := e.sessions.Get(ctx, sessionID); err == nil {
		owner = sess.OwnerID
	} else if !errors.Is(err, session.ErrNotFound) {
		return e.storeError("terminate_session", "", sessionID, err)
	}

	if err := e.sessions.Delete(ctx, sessionID); err != nil {
		return e.storeError("terminate_session", owner, sessionID, err)
	}
	if owner != "" {
		e.metricInc(MetricSessionTerminated)
		e.emitAudit(ctx, auditEventSessionTerminated, true, owner, sessionID, nil, nil)
	}
	return nil
}

// TerminateOtherSessions deletes every session of accountID except
// keepSessionID and returns how many were removed. keepSessionID must belong
// to accountID; otherwise ErrSessionNotFound is returned and nothing is
// deleted.
func (e *Engine) TerminateOtherSessions(ctx context.Context, accountID, keepSessionID string) (int, error) {
	if e == nil || e.sessions == nil {
		return 0, ErrEngineNotReady
	}

	keep, err := e.sessions.Get(ctx, keepSessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return 0, ErrSessionNotFound
		}
		return 0, e.storeError("terminate_others", accountID, keepSessionID, err)
	}
	if keep.OwnerID != accountID {
		return 0, ErrSessionNotFound
	}

	n, err := e.sessions.DeleteByOwnerExcept(ctx, accountID, keepSessionID)
	if err != nil {
		return 0, e.storeError("terminate_others", accountID, keepSessionID, err)
	}
	if n > 0 {
		e.metrics.Add(MetricSessionsTerminatedOthers, uint64(n))
	}
	e.emitAudit(ctx, auditEventSessionsTerminatedOth, true, accountID, keepSessionID, nil, func() map[string]string {
		return map[string]string{"count": strconv.Itoa(n)}
	})
	return n, nil
}

// ListSessions returns the account's sessions, least recently active first.
// Sessions that have already timed out are omitted but not deleted.
func (e *Engine) ListSessions(ctx context.Context, accountID string) ([]SessionInfo, error) {
	if e == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}

	sessions, err := e.sessions.ListByOwner(ctx, accountID)
	if err != nil {
		return nil, e.storeError("list_sessions", accountID, "", err)
	}

	now := e.clock.Now()
	out := make([]SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		if !e.policy.Enforce(sess, now).Valid {
			continue
		}
		out = append(out, *sessionInfo(sess, e.policy.AbsoluteDeadline(sess)))
	}
	return out, nil
}

// RoleQuota returns the concurrent-session limit for role.
func (e *Engine) RoleQuota(role string) (int, error) {
	if e == nil {
		return 0, ErrEngineNotReady
	}
	return e.quotas.Quota(role)
}
