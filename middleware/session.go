package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/MrEthical07/staffguard"
	"github.com/MrEthical07/staffguard/sessiontoken"
	"github.com/sirupsen/logrus"
)

// SessionChecker validates and refreshes a session. *staffguard.Engine
// implements it.
type SessionChecker interface {
	CheckSession(ctx context.Context, sessionID string) (*staffguard.SessionInfo, error)
}

// TokenParser verifies a session token. *sessiontoken.Manager implements it.
type TokenParser interface {
	Parse(token string) (*sessiontoken.Claims, error)
}

// Options configures [RequireSession].
type Options struct {
	CookieName   string
	CookieSecure bool
	Log          logrus.FieldLogger
}

type sessionContextKey struct{}

// SessionFromContext returns the session validated by [RequireSession].
func SessionFromContext(ctx context.Context) (*staffguard.SessionInfo, bool) {
	info, ok := ctx.Value(sessionContextKey{}).(*staffguard.SessionInfo)
	return info, ok
}

// ContextWithSession stores info the way RequireSession does. Handlers under
// test use it to skip the middleware.
func ContextWithSession(ctx context.Context, info *staffguard.SessionInfo) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, info)
}

// RequireSession rejects requests without a live session.
func RequireSession(engine SessionChecker, tokens TokenParser, opts Options) func(http.Handler) http.Handler {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil || tokens == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			raw, ok := sessionToken(r, opts.CookieName)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := tokens.Parse(raw)
			if err != nil {
				ClearSessionCookie(w, opts.CookieName, opts.CookieSecure)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			info, err := engine.CheckSession(r.Context(), claims.SID)
			if err != nil {
				if errors.Is(err, staffguard.ErrStoreUnavailable) {
					http.Error(w, "service unavailable", http.StatusServiceUnavailable)
					return
				}
				log.WithFields(logrus.Fields{
					"session_id": claims.SID,
					"reason":     rejectReason(err),
				}).Debug("session rejected")
				ClearSessionCookie(w, opts.CookieName, opts.CookieSecure)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), info)))
		})
	}
}

// SetSessionCookie writes the session cookie. It expires with the session's
// absolute deadline.
func SetSessionCookie(w http.ResponseWriter, name, token string, info *staffguard.LoginResult, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		Expires:  info.ExpiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearSessionCookie expires the session cookie in the browser.
func ClearSessionCookie(w http.ResponseWriter, name string, secure bool) {
	if name == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func sessionToken(r *http.Request, cookieName string) (string, bool) {
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
			return c.Value, true
		}
	}
	return bearerToken(r.Header.Get("Authorization"))
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}

func rejectReason(err error) string {
	var expired *staffguard.ExpiredError
	switch {
	case errors.As(err, &expired):
		return string(expired.Reason)
	case errors.Is(err, staffguard.ErrAccountLocked):
		return "account_locked"
	case errors.Is(err, staffguard.ErrSessionNotFound):
		return "not_found"
	default:
		return "invalid"
	}
}
