// Package staffguard is the session and account security core of the library
// staff admin app: password verification, consecutive-failure lockout,
// idle and absolute session timeouts, and per-role concurrent session quotas.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// staffguard is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (LoginResult, SessionInfo, LockoutStatus, MetricsSnapshot).
// Login and session-check orchestration lives in internal/flows; persistence
// lives behind the [session.Store] and [lockout.Store] interfaces.
//
// # Failure contract
//
// Every store failure surfaces as [ErrStoreUnavailable] and is logged at
// error level. The engine fails closed: it never creates or validates a
// session it could not read or write.
package staffguard
