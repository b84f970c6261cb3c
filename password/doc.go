// Package password verifies staff secrets against stored hashes.
//
// [Argon2] is the default scheme. [Bcrypt] exists for accounts imported from
// systems that stored bcrypt hashes, and [Multi] picks between them by the
// hash prefix. Verification is opaque to callers: they supply plaintext and
// a stored hash and get back a boolean.
//
// This package never logs secrets or hashes and imports no other staffguard
// package.
package password
