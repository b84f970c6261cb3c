// Package session provides session persistence, idle and absolute timeout
// evaluation, and per-role concurrent session limits for staff logins.
//
// # Stores
//
// [Store] is the keyed session store used by the engine. [MemoryStore] keeps
// sessions in process, [RedisStore] keeps them in Redis with Lua scripts for
// the multi-key writes. The relational implementation lives in package
// sqlstore. Every implementation orders [Store.ListByOwner] by last activity
// ascending and breaks ties by insertion sequence, which the [Limiter]
// depends on when it picks eviction victims.
//
// # Timeouts
//
// [TimeoutPolicy] is a pure predicate: it never reads or writes a store.
// Callers read the clock once and pass the same instant to every check.
//
// # What this package must NOT do
//
//   - Import staffguard, lockout, or sessiontoken (no upward imports).
//   - Decide whether an account is allowed to log in.
package session
