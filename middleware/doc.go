// Package middleware adapts staffguard session validation to net/http.
//
// [RequireSession] reads the session token from a cookie (or a Bearer
// header), verifies its signature, asks the engine whether the session is
// still alive, and stores the validated [staffguard.SessionInfo] in the
// request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. Timeout and
// lockout decisions are made by Engine.CheckSession; the middleware only maps
// the outcome to a status code:
//
//   - expired, unknown, or locked session: 401 and the cookie is cleared
//   - store failure: 503, the cookie is kept
package middleware
