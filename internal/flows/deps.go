package flows

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Deps groups flow dependency sets. The engine builds this once and
// delegates request methods to the matching flow.
type Deps struct {
	Login LoginDeps
	Check CheckDeps
}

// AuditFunc emits one audit event: type, success, account, session, error, metadata.
type AuditFunc func(context.Context, string, bool, string, string, error, func() map[string]string)

// StoreErrorFunc converts a backend failure into the host's unavailable
// error, logging it on the way.
type StoreErrorFunc func(op, accountID, sessionID string, err error) error

func noopAudit(context.Context, string, bool, string, string, error, func() map[string]string) {}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.Out = discard{}
	return l
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
