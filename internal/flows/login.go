package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/staffguard/lockout"
	"github.com/MrEthical07/staffguard/session"
	"github.com/sirupsen/logrus"
)

// LoginAccount is the flow-local account model.
type LoginAccount struct {
	ID           string
	PasswordHash string
	Role         string
}

// LoginOutcome is the flow-local success payload.
type LoginOutcome struct {
	Session *session.Session
	Role    string
	Evicted []string
}

// LoginMetrics carries metric IDs needed by the login flow.
type LoginMetrics struct {
	LoginSuccess        int
	LoginFailure        int
	LoginRejectedLocked int
	AccountLocked       int
	SessionCreated      int
	SessionEvicted      int
}

// LoginEvents carries audit event names used by the login flow.
type LoginEvents struct {
	LoginSuccess        string
	LoginFailure        string
	LoginRejectedLocked string
	AccountLocked       string
	SessionCreated      string
	SessionEvicted      string
}

// LoginErrors carries host-level sentinel errors used by the login flow.
type LoginErrors struct {
	EngineNotReady        error
	InvalidCredentials    error
	SessionCreationFailed error
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	MaxCreateAttempts int
	RevokeOnLock      bool

	Now                  func() time.Time
	ClientIPFromContext  func(context.Context) string
	UserAgentFromContext func(context.Context) string

	// GetAccountByIdentifier reports found=false for unknown identifiers.
	GetAccountByIdentifier func(context.Context, string) (account LoginAccount, found bool, err error)
	LockoutState           func(context.Context, string) (lockout.State, error)
	VerifySecret           func(secret, encodedHash string) (bool, error)
	RecordFailure          func(context.Context, string) (lockout.Outcome, error)
	RecordSuccess          func(context.Context, string) error
	RemainingAttempts      func(failures int) int
	CheckRole              func(role string) error

	NewSessionID      func() (string, error)
	CreateSession     func(context.Context, string, string, session.Metadata, time.Time) (*session.Session, error)
	DeleteSession     func(context.Context, string) error
	EnforceLimit      func(ctx context.Context, accountID, role, currentID string) ([]string, error)
	RevokeAllSessions func(context.Context, string) (int, error)

	LockedError      func(justLocked bool, failures int, lockedAt time.Time) error
	CredentialsError func(failures, remaining int) error
	StoreError       StoreErrorFunc

	MetricInc func(int)
	MetricAdd func(int, uint64)
	EmitAudit AuditFunc
	Log       logrus.FieldLogger

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

func (d *LoginDeps) setDefaults() {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.ClientIPFromContext == nil {
		d.ClientIPFromContext = func(context.Context) string { return "" }
	}
	if d.UserAgentFromContext == nil {
		d.UserAgentFromContext = func(context.Context) string { return "" }
	}
	if d.MetricInc == nil {
		d.MetricInc = func(int) {}
	}
	if d.MetricAdd == nil {
		d.MetricAdd = func(int, uint64) {}
	}
	if d.EmitAudit == nil {
		d.EmitAudit = noopAudit
	}
	if d.Log == nil {
		d.Log = discardLogger()
	}
	if d.MaxCreateAttempts < 1 {
		d.MaxCreateAttempts = 1
	}
	if d.RemainingAttempts == nil {
		d.RemainingAttempts = func(int) int { return 0 }
	}
	if d.CheckRole == nil {
		d.CheckRole = func(string) error { return nil }
	}
}

func (d *LoginDeps) ready() bool {
	return d.GetAccountByIdentifier != nil &&
		d.LockoutState != nil &&
		d.VerifySecret != nil &&
		d.RecordFailure != nil &&
		d.RecordSuccess != nil &&
		d.NewSessionID != nil &&
		d.CreateSession != nil &&
		d.DeleteSession != nil &&
		d.EnforceLimit != nil &&
		d.LockedError != nil &&
		d.CredentialsError != nil &&
		d.StoreError != nil
}

// RunLogin checks the lock, verifies the secret, records the outcome, and on
// success creates a session and applies the role quota.
func RunLogin(ctx context.Context, identifier, secret string, deps LoginDeps) (*LoginOutcome, error) {
	deps.setDefaults()
	if !deps.ready() {
		return nil, deps.Errors.EngineNotReady
	}

	account, found, err := deps.GetAccountByIdentifier(ctx, identifier)
	if err != nil {
		return nil, deps.StoreError("account_lookup", "", "", err)
	}
	if !found {
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, "", "", deps.Errors.InvalidCredentials, func() map[string]string {
			return map[string]string{
				"identifier": identifier,
				"reason":     "unknown_identifier",
			}
		})
		return nil, deps.Errors.InvalidCredentials
	}

	state, err := deps.LockoutState(ctx, account.ID)
	if err != nil {
		return nil, deps.StoreError("lockout_state", account.ID, "", err)
	}
	if state.Locked {
		lockedErr := deps.LockedError(false, state.Failures, state.LockedAt)
		deps.MetricInc(deps.Metrics.LoginRejectedLocked)
		deps.EmitAudit(ctx, deps.Events.LoginRejectedLocked, false, account.ID, "", lockedErr, nil)
		return nil, lockedErr
	}

	ok, err := deps.VerifySecret(secret, account.PasswordHash)
	secret = ""
	if err != nil {
		deps.Log.WithFields(logrus.Fields{
			"op":         "verify_secret",
			"account_id": account.ID,
		}).WithError(err).Error("stored password hash is unusable")
		ok = false
	}

	if !ok {
		return nil, recordLoginFailure(ctx, account, deps)
	}

	if err := deps.RecordSuccess(ctx, account.ID); err != nil {
		return nil, deps.StoreError("record_success", account.ID, "", err)
	}
	if err := deps.CheckRole(account.Role); err != nil {
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, account.ID, "", err, func() map[string]string {
			return map[string]string{"role": account.Role}
		})
		return nil, err
	}

	now := deps.Now()
	meta := session.Metadata{
		IPAddress: deps.ClientIPFromContext(ctx),
		UserAgent: deps.UserAgentFromContext(ctx),
	}
	sess, err := createSession(ctx, account.ID, meta, now, deps)
	if err != nil {
		return nil, err
	}
	deps.MetricInc(deps.Metrics.SessionCreated)
	deps.EmitAudit(ctx, deps.Events.SessionCreated, true, account.ID, sess.ID, nil, nil)

	evicted, err := deps.EnforceLimit(ctx, account.ID, account.Role, sess.ID)
	if err != nil {
		// Without a completed limit check the new session could exceed quota.
		if delErr := deps.DeleteSession(ctx, sess.ID); delErr != nil {
			deps.Log.WithFields(logrus.Fields{
				"op":         "rollback_session",
				"account_id": account.ID,
				"session_id": sess.ID,
			}).WithError(delErr).Error("failed to remove session after limiter error")
		}
		return nil, deps.StoreError("enforce_limit", account.ID, sess.ID, err)
	}

	if len(evicted) > 0 {
		deps.MetricAdd(deps.Metrics.SessionEvicted, uint64(len(evicted)))
		for _, id := range evicted {
			evictedID := id
			deps.EmitAudit(ctx, deps.Events.SessionEvicted, true, account.ID, evictedID, nil, func() map[string]string {
				return map[string]string{"replaced_by": sess.ID}
			})
		}
		deps.Log.WithFields(logrus.Fields{
			"account_id": account.ID,
			"role":       account.Role,
			"evicted":    len(evicted),
		}).Info("evicted oldest sessions over role quota")
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, deps.Events.LoginSuccess, true, account.ID, sess.ID, nil, func() map[string]string {
		return map[string]string{"role": account.Role}
	})

	return &LoginOutcome{Session: sess, Role: account.Role, Evicted: evicted}, nil
}

func recordLoginFailure(ctx context.Context, account LoginAccount, deps LoginDeps) error {
	outcome, err := deps.RecordFailure(ctx, account.ID)
	if err != nil {
		return deps.StoreError("record_failure", account.ID, "", err)
	}
	deps.MetricInc(deps.Metrics.LoginFailure)

	if outcome.JustLocked {
		lockedErr := deps.LockedError(true, outcome.FailureCount, outcome.LockedAt)
		deps.MetricInc(deps.Metrics.AccountLocked)
		deps.EmitAudit(ctx, deps.Events.AccountLocked, false, account.ID, "", lockedErr, nil)
		deps.Log.WithFields(logrus.Fields{
			"account_id": account.ID,
			"failures":   outcome.FailureCount,
		}).Warn("account locked after consecutive failed logins")

		if deps.RevokeOnLock && deps.RevokeAllSessions != nil {
			if n, err := deps.RevokeAllSessions(ctx, account.ID); err != nil {
				deps.Log.WithFields(logrus.Fields{
					"op":         "revoke_on_lock",
					"account_id": account.ID,
				}).WithError(err).Error("failed to revoke sessions of locked account")
			} else if n > 0 {
				deps.Log.WithFields(logrus.Fields{
					"account_id": account.ID,
					"revoked":    n,
				}).Info("revoked sessions of locked account")
			}
		}
		return lockedErr
	}

	if outcome.Locked {
		// Another request crossed the threshold first.
		lockedErr := deps.LockedError(false, outcome.FailureCount, outcome.LockedAt)
		deps.EmitAudit(ctx, deps.Events.LoginRejectedLocked, false, account.ID, "", lockedErr, nil)
		return lockedErr
	}

	credErr := deps.CredentialsError(outcome.FailureCount, deps.RemainingAttempts(outcome.FailureCount))
	deps.EmitAudit(ctx, deps.Events.LoginFailure, false, account.ID, "", credErr, func() map[string]string {
		return map[string]string{"reason": "secret_mismatch"}
	})
	return credErr
}

func createSession(ctx context.Context, accountID string, meta session.Metadata, now time.Time, deps LoginDeps) (*session.Session, error) {
	for attempt := 0; attempt < deps.MaxCreateAttempts; attempt++ {
		id, err := deps.NewSessionID()
		if err != nil {
			return nil, err
		}
		sess, err := deps.CreateSession(ctx, id, accountID, meta, now)
		if err == nil {
			return sess, nil
		}
		if errors.Is(err, session.ErrDuplicateSessionID) {
			deps.Log.WithField("account_id", accountID).Warn("session id collision, retrying")
			continue
		}
		return nil, deps.StoreError("create_session", accountID, id, err)
	}
	deps.EmitAudit(ctx, deps.Events.LoginFailure, false, accountID, "", deps.Errors.SessionCreationFailed, nil)
	return nil, deps.Errors.SessionCreationFailed
}
