package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/staffguard"
	"github.com/MrEthical07/staffguard/session"
	"github.com/MrEthical07/staffguard/sessiontoken"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

type fakeChecker struct {
	calls int
	err   error
}

func (f *fakeChecker) CheckSession(_ context.Context, sessionID string) (*staffguard.SessionInfo, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &staffguard.SessionInfo{SessionID: sessionID, AccountID: "acct-1"}, nil
}

func newTokens(t *testing.T) *sessiontoken.Manager {
	t.Helper()
	m, err := sessiontoken.NewManager(sessiontoken.Config{
		SigningMethod: sessiontoken.MethodHS256,
		PrivateKey:    []byte("0123456789abcdef0123456789abcdef"),
	})
	if err != nil {
		t.Fatalf("new token manager: %v", err)
	}
	return m
}

func issue(t *testing.T, m *sessiontoken.Manager, sid string) string {
	t.Helper()
	tok, err := m.Issue(sid, "acct-1", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return tok
}

func serve(t *testing.T, checker SessionChecker, tokens TokenParser, req *http.Request) (*httptest.ResponseRecorder, *staffguard.SessionInfo) {
	t.Helper()
	log, _ := logtest.NewNullLogger()
	var seen *staffguard.SessionInfo
	h := RequireSession(checker, tokens, Options{CookieName: "sg", CookieSecure: true, Log: log})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = SessionFromContext(r.Context())
			w.WriteHeader(http.StatusNoContent)
		}),
	)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, seen
}

func clearsCookie(rec *httptest.ResponseRecorder) bool {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "sg" && c.MaxAge < 0 {
			return true
		}
	}
	return false
}

func TestRequireSessionFromCookie(t *testing.T) {
	tokens := newTokens(t)
	checker := &fakeChecker{}
	req := httptest.NewRequest(http.MethodGet, "/auth/sessions", nil)
	req.AddCookie(&http.Cookie{Name: "sg", Value: issue(t, tokens, "sess-1")})

	rec, seen := serve(t, checker, tokens, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if seen == nil || seen.SessionID != "sess-1" {
		t.Fatalf("session not propagated: %+v", seen)
	}
}

func TestRequireSessionFromBearer(t *testing.T) {
	tokens := newTokens(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, tokens, "sess-2"))

	rec, seen := serve(t, &fakeChecker{}, tokens, req)
	if rec.Code != http.StatusNoContent || seen == nil || seen.SessionID != "sess-2" {
		t.Fatalf("status = %d, seen = %+v", rec.Code, seen)
	}
}

func TestRequireSessionMissingOrForgedToken(t *testing.T) {
	tokens := newTokens(t)
	checker := &fakeChecker{}

	rec, _ := serve(t, checker, tokens, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sg", Value: "forged.token.value"})
	rec, _ = serve(t, checker, tokens, req)
	if rec.Code != http.StatusUnauthorized || !clearsCookie(rec) {
		t.Fatalf("forged token: status = %d, cleared = %v", rec.Code, clearsCookie(rec))
	}
	if checker.calls != 0 {
		t.Fatalf("engine must not be consulted for invalid tokens, calls = %d", checker.calls)
	}
}

func TestRequireSessionMapsEngineErrors(t *testing.T) {
	tokens := newTokens(t)
	tests := []struct {
		name    string
		err     error
		status  int
		cleared bool
	}{
		{"expired idle", &staffguard.ExpiredError{Reason: session.ReasonIdle}, http.StatusUnauthorized, true},
		{"expired absolute", &staffguard.ExpiredError{Reason: session.ReasonAbsolute}, http.StatusUnauthorized, true},
		{"not found", staffguard.ErrSessionNotFound, http.StatusUnauthorized, true},
		{"locked", &staffguard.LockedError{}, http.StatusUnauthorized, true},
		{"store down", fmt.Errorf("%w: connection refused", staffguard.ErrStoreUnavailable), http.StatusServiceUnavailable, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(&http.Cookie{Name: "sg", Value: issue(t, tokens, "sess-1")})
			rec, seen := serve(t, &fakeChecker{err: tc.err}, tokens, req)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			if clearsCookie(rec) != tc.cleared {
				t.Fatalf("cookie cleared = %v, want %v", clearsCookie(rec), tc.cleared)
			}
			if seen != nil {
				t.Fatal("handler must not run")
			}
		})
	}
}

func TestRequireSessionLogsRejectReason(t *testing.T) {
	tokens := newTokens(t)
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	h := RequireSession(&fakeChecker{err: &staffguard.ExpiredError{Reason: session.ReasonIdle}}, tokens, Options{CookieName: "sg", Log: log})(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) { t.Fatal("handler must not run") }),
	)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sg", Value: issue(t, tokens, "sess-9")})
	h.ServeHTTP(httptest.NewRecorder(), req)

	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.DebugLevel || entry.Data["reason"] != "idle" {
		t.Fatalf("unexpected log entry: %+v", entry)
	}
}

func TestRequireSessionNilDependencies(t *testing.T) {
	rec, _ := serve(t, nil, nil, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSetSessionCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	exp := time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC)
	SetSessionCookie(rec, "sg", "tok", &staffguard.LoginResult{ExpiresAt: exp}, true)

	header := rec.Header().Get("Set-Cookie")
	for _, want := range []string{"sg=tok", "HttpOnly", "Secure", "SameSite=Strict"} {
		if !strings.Contains(header, want) {
			t.Fatalf("Set-Cookie %q missing %q", header, want)
		}
	}
}
