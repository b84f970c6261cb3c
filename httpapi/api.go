package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/MrEthical07/staffguard"
	sgmw "github.com/MrEthical07/staffguard/middleware"
	"github.com/MrEthical07/staffguard/sessiontoken"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// Engine is the part of *staffguard.Engine the API calls.
type Engine interface {
	Login(ctx context.Context, identifier, secret string) (*staffguard.LoginResult, error)
	CheckSession(ctx context.Context, sessionID string) (*staffguard.SessionInfo, error)
	TerminateSession(ctx context.Context, sessionID string) error
	TerminateOtherSessions(ctx context.Context, accountID, keepSessionID string) (int, error)
	ListSessions(ctx context.Context, accountID string) ([]staffguard.SessionInfo, error)
}

// Tokens issues and verifies session cookies. *sessiontoken.Manager
// implements it.
type Tokens interface {
	Issue(sessionID, accountID string, expiresAt time.Time) (string, error)
	Parse(token string) (*sessiontoken.Claims, error)
}

// Options configures the API.
type Options struct {
	CookieName   string
	CookieSecure bool
	Log          logrus.FieldLogger
	// Health reports backing store reachability for /healthz. Nil always
	// reports healthy.
	Health func(ctx context.Context) error
}

// API holds the dependencies needed by the handlers.
type API struct {
	engine Engine
	tokens Tokens
	opts   Options
	log    logrus.FieldLogger
}

// New creates an API.
func New(engine Engine, tokens Tokens, opts Options) *API {
	if opts.CookieName == "" {
		opts.CookieName = "staffguard_session"
	}
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &API{engine: engine, tokens: tokens, opts: opts, log: log}
}

// Router returns a chi.Router with all routes mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(a.log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", a.Healthz)
	r.Post("/auth/login", a.Login)

	r.Group(func(r chi.Router) {
		r.Use(sgmw.RequireSession(a.engine, a.tokens, sgmw.Options{
			CookieName:   a.opts.CookieName,
			CookieSecure: a.opts.CookieSecure,
			Log:          a.log,
		}))
		r.Post("/auth/logout", a.Logout)
		r.Get("/auth/sessions", a.ListSessions)
		r.Post("/auth/sessions/terminate-others", a.TerminateOthers)
	})

	return r
}

// Handler returns the router as an http.Handler.
func (a *API) Handler() http.Handler {
	return a.Router()
}
