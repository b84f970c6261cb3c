package staffguard

import "context"

// UnlockAccount clears the lock and the failure counter. It is the only way
// a locked account regains access.
func (e *Engine) UnlockAccount(ctx context.Context, accountID string) error {
	if e == nil || e.tracker == nil {
		return ErrEngineNotReady
	}

	if err := e.tracker.Unlock(ctx, accountID); err != nil {
		return e.storeError("unlock_account", accountID, "", err)
	}

	e.metricInc(MetricAccountUnlocked)
	e.emitAudit(ctx, auditEventAccountUnlocked, true, accountID, "", nil, nil)
	e.log.WithField("account_id", accountID).Warn("account unlocked")
	return nil
}

// LockoutStatus reports the failure count and lock state of accountID.
func (e *Engine) LockoutStatus(ctx context.Context, accountID string) (LockoutStatus, error) {
	if e == nil || e.tracker == nil {
		return LockoutStatus{}, ErrEngineNotReady
	}

	state, err := e.tracker.State(ctx, accountID)
	if err != nil {
		return LockoutStatus{}, e.storeError("lockout_status", accountID, "", err)
	}
	return LockoutStatus{
		AccountID: accountID,
		Failures:  state.Failures,
		Locked:    state.Locked,
		LockedAt:  state.LockedAt,
		Remaining: e.tracker.Remaining(state),
	}, nil
}
