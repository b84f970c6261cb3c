// Package lockout tracks consecutive failed logins and locks accounts.
//
// A lock is permanent until an administrator calls [Tracker.Unlock]; there
// is no timed expiry. The failure counter is incremented atomically inside
// the [Store], so concurrent wrong-password attempts can never leave an
// account below the threshold unlocked.
package lockout
