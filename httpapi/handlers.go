package httpapi

import (
	"net/http"
	"strings"

	"github.com/MrEthical07/staffguard"
	sgmw "github.com/MrEthical07/staffguard/middleware"
	"github.com/sirupsen/logrus"
)

// Login handles POST /auth/login.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[LoginRequest](w, r)
	if !ok {
		return
	}
	req.Identifier = strings.TrimSpace(req.Identifier)
	if req.Identifier == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "identifier and password are required")
		return
	}

	ctx := staffguard.WithClientIP(r.Context(), clientIP(r))
	ctx = staffguard.WithUserAgent(ctx, r.UserAgent())

	res, err := a.engine.Login(ctx, req.Identifier, req.Password)
	if err != nil {
		mapError(w, err)
		return
	}

	token, err := a.tokens.Issue(res.SessionID, res.AccountID, res.ExpiresAt)
	if err != nil {
		// The session exists but the client can never present it.
		if terr := a.engine.TerminateSession(r.Context(), res.SessionID); terr != nil {
			a.log.WithError(terr).WithField("session_id", res.SessionID).Warn("orphaned session after token failure")
		}
		a.log.WithFields(logrus.Fields{
			"request_id": RequestIDFromContext(r.Context()),
			"account_id": res.AccountID,
		}).WithError(err).Error("issue session token")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	sgmw.SetSessionCookie(w, a.opts.CookieName, token, res, a.opts.CookieSecure)
	writeJSON(w, http.StatusOK, LoginResponse{
		SessionID: res.SessionID,
		AccountID: res.AccountID,
		Role:      res.Role,
		ExpiresAt: res.ExpiresAt,
		Evicted:   res.Evicted,
	})
}

// Logout handles POST /auth/logout.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	info, ok := sgmw.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := a.engine.TerminateSession(r.Context(), info.SessionID); err != nil {
		mapError(w, err)
		return
	}
	sgmw.ClearSessionCookie(w, a.opts.CookieName, a.opts.CookieSecure)
	w.WriteHeader(http.StatusNoContent)
}

// ListSessions handles GET /auth/sessions.
func (a *API) ListSessions(w http.ResponseWriter, r *http.Request) {
	info, ok := sgmw.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	sessions, err := a.engine.ListSessions(r.Context(), info.AccountID)
	if err != nil {
		mapError(w, err)
		return
	}

	out := SessionListResponse{Sessions: make([]SessionView, 0, len(sessions))}
	for _, s := range sessions {
		out.Sessions = append(out.Sessions, SessionView{
			SessionID:      s.SessionID,
			CreatedAt:      s.CreatedAt,
			LastActivityAt: s.LastActivityAt,
			ExpiresAt:      s.ExpiresAt,
			IPAddress:      s.IPAddress,
			UserAgent:      s.UserAgent,
			Current:        s.SessionID == info.SessionID,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// TerminateOthers handles POST /auth/sessions/terminate-others.
func (a *API) TerminateOthers(w http.ResponseWriter, r *http.Request) {
	info, ok := sgmw.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	n, err := a.engine.TerminateOtherSessions(r.Context(), info.AccountID, info.SessionID)
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TerminateOthersResponse{Terminated: n})
}

// Healthz handles GET /healthz.
func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	if a.opts.Health != nil {
		if err := a.opts.Health(r.Context()); err != nil {
			a.log.WithError(err).Error("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
