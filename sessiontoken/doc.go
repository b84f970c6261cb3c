// Package sessiontoken signs and verifies the cookie value that carries a
// session id between the browser and the staff admin API.
//
// A token only proves that this server issued the session id. Whether the
// session is still alive is decided by the session store on every request;
// the token's exp claim is set to the session's absolute deadline so stale
// cookies are rejected without a store round trip.
package sessiontoken
