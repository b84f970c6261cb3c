package staffguard

import (
	"context"
	"errors"

	internalaudit "github.com/MrEthical07/staffguard/internal/audit"
)

const (
	auditEventLoginSuccess          = "login_success"
	auditEventLoginFailure          = "login_failure"
	auditEventLoginRejectedLocked   = "login_rejected_locked"
	auditEventAccountLocked         = "account_locked"
	auditEventAccountUnlocked       = "account_unlocked"
	auditEventSessionCreated        = "session_created"
	auditEventSessionEvicted        = "session_evicted"
	auditEventSessionExpired        = "session_expired"
	auditEventSessionTerminated     = "session_terminated"
	auditEventSessionsTerminatedOth = "sessions_terminated_others"
)

// Stable error labels carried in AuditEvent.Code.
const (
	auditErrInvalidCredentials    = "invalid_credentials"
	auditErrAccountLocked         = "account_locked"
	auditErrSessionExpired        = "session_expired"
	auditErrSessionNotFound       = "session_not_found"
	auditErrUnknownRole           = "unknown_role"
	auditErrSessionCreationFailed = "session_creation_failed"
	auditErrUnavailable           = "backend_unavailable"
	auditErrInternal              = "internal_error"
)

// auditCodes is checked in order; the first sentinel err wraps wins.
var auditCodes = []struct {
	sentinel error
	code     string
	failure  bool
}{
	{ErrInvalidCredentials, auditErrInvalidCredentials, false},
	{ErrAccountLocked, auditErrAccountLocked, false},
	{ErrSessionExpired, auditErrSessionExpired, false},
	{ErrSessionNotFound, auditErrSessionNotFound, false},
	{ErrUnknownRole, auditErrUnknownRole, false},
	{ErrSessionCreationFailed, auditErrSessionCreationFailed, true},
	{ErrStoreUnavailable, auditErrUnavailable, true},
}

func (e *Engine) emitAudit(
	ctx context.Context,
	kind string,
	success bool,
	accountID string,
	sessionID string,
	err error,
	detail func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	origin := originFromContext(ctx)
	event := AuditEvent{
		ID:        internalaudit.NewEventID(),
		At:        e.clock.Now().UTC(),
		Kind:      kind,
		AccountID: accountID,
		SessionID: sessionID,
		ClientIP:  origin.IPAddress,
		UserAgent: origin.UserAgent,
	}
	event.Code, event.Outcome = classifyAudit(success, err)
	if detail != nil {
		event.Detail = detail()
	}

	e.audit.Emit(ctx, event)
}

// classifyAudit maps err to its audit code and outcome. A successful
// event still carries the code of err, as session expiry does. Unrecognized
// errors are internal and count as operational errors.
func classifyAudit(success bool, err error) (code string, outcome internalaudit.Outcome) {
	outcome = internalaudit.OutcomeDenied
	if err != nil {
		code, outcome = auditErrInternal, internalaudit.OutcomeError
		for _, c := range auditCodes {
			if errors.Is(err, c.sentinel) {
				code, outcome = c.code, internalaudit.OutcomeDenied
				if c.failure {
					outcome = internalaudit.OutcomeError
				}
				break
			}
		}
	}
	if success {
		outcome = internalaudit.OutcomeOK
	}
	return code, outcome
}
