package staffguard

import (
	"errors"
	"io"

	"github.com/MrEthical07/staffguard/lockout"
	"github.com/MrEthical07/staffguard/password"
	"github.com/MrEthical07/staffguard/session"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Builder assembles an [Engine]. Configure it during initialization and call
// Build exactly once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	redisPrefix  string
	sessionStore session.Store
	lockoutStore lockout.Store

	accounts  AccountProvider
	verifier  Verifier
	clock     Clock
	logger    logrus.FieldLogger
	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the configuration. The quota map is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis backs both sessions and lockout records with Redis unless an
// explicit store is supplied for either.
func (b *Builder) WithRedis(client redis.UniversalClient, prefix string) *Builder {
	b.redis = client
	b.redisPrefix = prefix
	return b
}

// WithSessionStore sets the session store.
func (b *Builder) WithSessionStore(store session.Store) *Builder {
	b.sessionStore = store
	return b
}

// WithLockoutStore sets the lockout store.
func (b *Builder) WithLockoutStore(store lockout.Store) *Builder {
	b.lockoutStore = store
	return b
}

// WithAccountProvider sets the account lookup. Required.
func (b *Builder) WithAccountProvider(p AccountProvider) *Builder {
	b.accounts = p
	return b
}

// WithVerifier overrides the default argon2id/bcrypt verifier.
func (b *Builder) WithVerifier(v Verifier) *Builder {
	b.verifier = v
	return b
}

// WithClock overrides the wall clock.
func (b *Builder) WithClock(c Clock) *Builder {
	b.clock = c
	return b
}

// WithLogger sets the structured logger. The default discards output.
func (b *Builder) WithLogger(l logrus.FieldLogger) *Builder {
	b.logger = l
	return b
}

// WithAuditSink sets the audit sink and enables the dispatcher.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the CheckSession latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine. Without Redis or
// explicit stores the engine keeps state in process memory.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.accounts == nil {
		return nil, errors.New("account provider required")
	}

	clock := b.clock
	if clock == nil {
		clock = systemClock{}
	}

	logger := b.logger
	if logger == nil {
		l := logrus.New()
		l.Out = io.Discard
		logger = l
	}

	verifier := b.verifier
	if verifier == nil {
		multi, err := password.NewMulti()
		if err != nil {
			return nil, err
		}
		verifier = multi
	}

	sessions := b.sessionStore
	if sessions == nil {
		if b.redis != nil {
			sessions = session.NewRedisStore(b.redis, b.redisPrefix, cfg.Sessions.AbsoluteTimeout)
		} else {
			sessions = session.NewMemoryStore()
		}
	}

	lockStore := b.lockoutStore
	if lockStore == nil {
		if b.redis != nil {
			lockStore = lockout.NewRedisStore(b.redis, b.redisPrefix)
		} else {
			lockStore = lockout.NewMemoryStore()
		}
	}

	tracker, err := lockout.NewTracker(lockStore, cfg.Lockout.Threshold, clock.Now)
	if err != nil {
		return nil, err
	}

	quotas, err := session.NewQuotaTable(cfg.Sessions.RoleQuotas, cfg.Sessions.DefaultQuota)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		config:   cfg,
		clock:    clock,
		log:      logger,
		accounts: b.accounts,
		verifier: verifier,
		sessions: sessions,
		tracker:  tracker,
		quotas:   quotas,
		limiter:  session.NewLimiter(sessions, quotas),
		policy:   cfg.timeoutPolicy(),
		metrics:  NewMetrics(cfg.Metrics),
	}
	e.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	e.initFlowDeps()

	b.built = true
	return e, nil
}
