package staffguard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/staffguard/internal"
	internalaudit "github.com/MrEthical07/staffguard/internal/audit"
	"github.com/MrEthical07/staffguard/internal/flows"
	"github.com/MrEthical07/staffguard/lockout"
	"github.com/MrEthical07/staffguard/session"
	"github.com/sirupsen/logrus"
)

// Engine enforces lockout, session timeouts, and session quotas. It is
// immutable after [Builder.Build] and safe for concurrent use.
type Engine struct {
	config   Config
	clock    Clock
	log      logrus.FieldLogger
	accounts AccountProvider
	verifier Verifier
	sessions session.Store
	tracker  *lockout.Tracker
	quotas   session.QuotaTable
	limiter  *session.Limiter
	policy   session.TimeoutPolicy
	audit    *internalaudit.Dispatcher
	metrics  *Metrics
	flows    flows.Deps
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *internalaudit.Dispatcher {
	return internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Enabled,
		BufferSize: cfg.BufferSize,
		DropIfFull: cfg.DropIfFull,
	}, sink)
}

// Close drains pending audit events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// AuditDropped returns how many audit events were dropped because the
// buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Config returns a copy of the active configuration.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	return cloneConfig(e.config)
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// storeError logs a backend failure and maps it to ErrStoreUnavailable.
func (e *Engine) storeError(op, accountID, sessionID string, err error) error {
	e.log.WithFields(logrus.Fields{
		"op":         op,
		"account_id": accountID,
		"session_id": sessionID,
	}).WithError(err).Error("session store unavailable")
	e.metricInc(MetricStoreUnavailable)
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// Login verifies identifier and secret and opens a session. A locked account
// is rejected before the secret is checked. The failed attempt that locks
// the account returns a [*LockedError] with JustLocked set.
func (e *Engine) Login(ctx context.Context, identifier, secret string) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	out, err := flows.RunLogin(ctx, identifier, secret, e.flows.Login)
	if err != nil {
		return nil, err
	}

	sess := out.Session
	return &LoginResult{
		SessionID:  sess.ID,
		AccountID:  sess.OwnerID,
		Role:       out.Role,
		CreatedAt:  sess.CreatedAt,
		ExpiresAt:  e.policy.AbsoluteDeadline(sess),
		Evicted:    len(out.Evicted),
		EvictedIDs: out.Evicted,
	}, nil
}

// CheckSession validates sessionID and records activity. An expired session
// is deleted and reported as a [*ExpiredError]; unknown ids return
// ErrSessionNotFound.
func (e *Engine) CheckSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	sess, err := flows.RunCheckSession(ctx, sessionID, e.flows.Check)
	if err != nil {
		return nil, err
	}
	return sessionInfo(sess, e.policy.AbsoluteDeadline(sess)), nil
}

func (e *Engine) initFlowDeps() {
	e.flows = flows.Deps{
		Login: flows.LoginDeps{
			MaxCreateAttempts:    e.config.Sessions.MaxCreateAttempts,
			RevokeOnLock:         e.config.Sessions.RevokeOnLock,
			Now:                  e.clock.Now,
			ClientIPFromContext:  clientIPFromContext,
			UserAgentFromContext: userAgentFromContext,
			GetAccountByIdentifier: func(ctx context.Context, identifier string) (flows.LoginAccount, bool, error) {
				rec, err := e.accounts.GetAccountByIdentifier(ctx, identifier)
				if err != nil {
					if errors.Is(err, ErrAccountNotFound) {
						return flows.LoginAccount{}, false, nil
					}
					return flows.LoginAccount{}, false, err
				}
				return flows.LoginAccount{
					ID:           rec.ID,
					PasswordHash: rec.PasswordHash,
					Role:         rec.Role,
				}, true, nil
			},
			LockoutState:  e.tracker.State,
			VerifySecret:  e.verifier.Verify,
			RecordFailure: e.tracker.RecordFailure,
			RecordSuccess: e.tracker.RecordSuccess,
			RemainingAttempts: func(failures int) int {
				return e.tracker.Remaining(lockout.State{Failures: failures})
			},
			CheckRole: func(role string) error {
				_, err := e.quotas.Quota(role)
				return err
			},
			NewSessionID:  internal.NewSessionID,
			CreateSession: e.sessions.Create,
			DeleteSession: e.sessions.Delete,
			EnforceLimit:  e.limiter.EnforceLimit,
			RevokeAllSessions: func(ctx context.Context, accountID string) (int, error) {
				return e.sessions.DeleteByOwnerExcept(ctx, accountID, "")
			},
			LockedError: func(justLocked bool, failures int, lockedAt time.Time) error {
				return &LockedError{JustLocked: justLocked, FailureCount: failures, LockedAt: lockedAt}
			},
			CredentialsError: func(failures, remaining int) error {
				return &CredentialsError{FailureCount: failures, Remaining: remaining}
			},
			StoreError: e.storeError,
			MetricInc:  func(id int) { e.metricInc(MetricID(id)) },
			MetricAdd:  func(id int, n uint64) { e.metrics.Add(MetricID(id), n) },
			EmitAudit:  e.emitAudit,
			Log:        e.log,
			Metrics: flows.LoginMetrics{
				LoginSuccess:        int(MetricLoginSuccess),
				LoginFailure:        int(MetricLoginFailure),
				LoginRejectedLocked: int(MetricLoginRejectedLocked),
				AccountLocked:       int(MetricAccountLocked),
				SessionCreated:      int(MetricSessionCreated),
				SessionEvicted:      int(MetricSessionEvicted),
			},
			Events: flows.LoginEvents{
				LoginSuccess:        auditEventLoginSuccess,
				LoginFailure:        auditEventLoginFailure,
				LoginRejectedLocked: auditEventLoginRejectedLocked,
				AccountLocked:       auditEventAccountLocked,
				SessionCreated:      auditEventSessionCreated,
				SessionEvicted:      auditEventSessionEvicted,
			},
			Errors: flows.LoginErrors{
				EngineNotReady:        ErrEngineNotReady,
				InvalidCredentials:    ErrInvalidCredentials,
				SessionCreationFailed: ErrSessionCreationFailed,
			},
		},
		Check: flows.CheckDeps{
			Now:           e.clock.Now,
			GetSession:    e.sessions.Get,
			Enforce:       e.policy.Enforce,
			DeleteSession: e.sessions.Delete,
			TouchSession:  e.sessions.Touch,
			IsLocked:      e.tracker.IsLocked,
			RevokeLocked:  e.config.Sessions.RevokeOnLock,
			ExpiredError: func(reason session.ExpiryReason) error {
				return &ExpiredError{Reason: reason}
			},
			LockedError: func() error {
				return &LockedError{}
			},
			StoreError: e.storeError,
			MetricInc:  func(id int) { e.metricInc(MetricID(id)) },
			Observe:    func(id int, d time.Duration) { e.metrics.Observe(MetricID(id), d) },
			EmitAudit:  e.emitAudit,
			Log:        e.log,
			Metrics: flows.CheckMetrics{
				ExpiredIdle:     int(MetricSessionExpiredIdle),
				ExpiredAbsolute: int(MetricSessionExpiredAbsolute),
				NotFound:        int(MetricSessionNotFound),
				Latency:         int(MetricCheckSessionLatency),
			},
			Events: flows.CheckEvents{
				SessionExpired: auditEventSessionExpired,
			},
			Errors: flows.CheckErrors{
				EngineNotReady:  ErrEngineNotReady,
				SessionNotFound: ErrSessionNotFound,
			},
		},
	}
}
