package staffguard

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	internalaudit "github.com/MrEthical07/staffguard/internal/audit"
)

func collectEvents(t *testing.T, sink *ChannelSink, n int) []AuditEvent {
	t.Helper()
	out := make([]AuditEvent, 0, n)
	timeout := time.After(2 * time.Second)
	for len(out) < n {
		select {
		case ev := <-sink.Events():
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("received %d of %d audit events", len(out), n)
		}
	}
	return out
}

func TestAuditLoginSequence(t *testing.T) {
	sink := NewChannelSink(64)
	h := newHarness(t, func(b *Builder) { b.WithAuditSink(sink) })
	ctx := WithUserAgent(WithClientIP(context.Background(), "192.0.2.10"), "Firefox/128")

	res, err := h.engine.Login(ctx, "ada", correctSecret)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	events := collectEvents(t, sink, 2)
	if events[0].Kind != auditEventSessionCreated || events[1].Kind != auditEventLoginSuccess {
		t.Fatalf("unexpected events: %s, %s", events[0].Kind, events[1].Kind)
	}
	for _, ev := range events {
		if ev.AccountID != "acct-ada" || ev.SessionID != res.SessionID || ev.ClientIP != "192.0.2.10" {
			t.Fatalf("unexpected event: %+v", ev)
		}
		if ev.UserAgent != "Firefox/128" {
			t.Fatalf("user agent not carried: %+v", ev)
		}
		if ev.ID == "" || ev.Outcome != internalaudit.OutcomeOK {
			t.Fatalf("unexpected event: %+v", ev)
		}
	}
}

func TestAuditLockAndUnlock(t *testing.T) {
	sink := NewChannelSink(64)
	h := newHarness(t, func(b *Builder) { b.WithAuditSink(sink) })
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = h.engine.Login(ctx, "ada", "wrong")
	}
	if err := h.engine.UnlockAccount(ctx, "acct-ada"); err != nil {
		t.Fatalf("UnlockAccount: %v", err)
	}

	events := collectEvents(t, sink, 6)
	for i := 0; i < 4; i++ {
		if events[i].Kind != auditEventLoginFailure || events[i].Code != string(auditErrInvalidCredentials) || events[i].Outcome != internalaudit.OutcomeDenied {
			t.Fatalf("event %d: %+v", i, events[i])
		}
	}
	if events[4].Kind != auditEventAccountLocked || events[4].Code != string(auditErrAccountLocked) {
		t.Fatalf("expected account_locked, got %+v", events[4])
	}
	if events[5].Kind != auditEventAccountUnlocked {
		t.Fatalf("expected account_unlocked, got %+v", events[5])
	}
}

func TestAuditSessionExpiredCarriesReason(t *testing.T) {
	sink := NewChannelSink(64)
	h := newHarness(t, func(b *Builder) { b.WithAuditSink(sink) })
	ctx := context.Background()

	res, err := h.engine.Login(ctx, "ada", correctSecret)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	_ = collectEvents(t, sink, 2)

	h.clock.Advance(time.Hour)
	_, _ = h.engine.CheckSession(ctx, res.SessionID)

	ev := collectEvents(t, sink, 1)[0]
	if ev.Kind != auditEventSessionExpired || ev.Detail["reason"] != "idle" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestClassifyAudit(t *testing.T) {
	tests := []struct {
		success bool
		err     error
		code    string
		want    internalaudit.Outcome
	}{
		{true, nil, "", internalaudit.OutcomeOK},
		{true, &ExpiredError{}, auditErrSessionExpired, internalaudit.OutcomeOK},
		{false, ErrInvalidCredentials, auditErrInvalidCredentials, internalaudit.OutcomeDenied},
		{false, &LockedError{JustLocked: true}, auditErrAccountLocked, internalaudit.OutcomeDenied},
		{false, &ExpiredError{}, auditErrSessionExpired, internalaudit.OutcomeDenied},
		{false, fmt.Errorf("create session: %w", ErrStoreUnavailable), auditErrUnavailable, internalaudit.OutcomeError},
		{false, ErrSessionCreationFailed, auditErrSessionCreationFailed, internalaudit.OutcomeError},
		{false, errors.New("boom"), auditErrInternal, internalaudit.OutcomeError},
	}
	for _, tc := range tests {
		code, outcome := classifyAudit(tc.success, tc.err)
		if code != tc.code || outcome != tc.want {
			t.Errorf("classifyAudit(%v, %v) = %q/%s, want %q/%s", tc.success, tc.err, code, outcome, tc.code, tc.want)
		}
	}
}
