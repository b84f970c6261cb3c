// Package flows contains the orchestration behind Engine.Login and
// Engine.CheckSession.
//
// Each flow accepts a typed dependency struct of functions and performs no
// I/O of its own. The Engine builds the structs once and keeps ownership of
// every store, counter, and logger.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import staffguard (to avoid import cycles).
package flows
