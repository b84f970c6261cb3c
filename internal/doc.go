// Package internal contains helpers private to staffguard, chiefly session
// id generation.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher and Sink implementations)
//   - flows: login and session-check orchestration driven by dependency structs
//   - config: service configuration loaded from env and .env files
//   - logging: logrus setup with optional rotating file output
//   - db: database connections and embedded schema migrations
package internal
