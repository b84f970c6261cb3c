// Package httpapi is the staff admin authentication API:
//
//	POST /auth/login                     identifier + password, sets the session cookie
//	POST /auth/logout                    ends the current session
//	GET  /auth/sessions                  lists the caller's active sessions
//	POST /auth/sessions/terminate-others ends every session but the current one
//	GET  /healthz                        store reachability
//
// Handlers delegate every decision to the staffguard engine and only map its
// errors to HTTP status codes.
package httpapi
