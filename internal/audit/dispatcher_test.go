package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

type blockingSink struct {
	release chan struct{}
	got     chan Event
}

func (s *blockingSink) Emit(_ context.Context, e Event) {
	<-s.release
	s.got <- e
}

func TestDisabledDispatcherIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, NoOpSink{})
	if d != nil {
		t.Fatal("expected nil dispatcher when disabled")
	}
	d.Emit(context.Background(), Event{Kind: "x"})
	d.Close()
	if d.Dropped() != 0 || d.Delivered() != 0 {
		t.Fatal("nil dispatcher should report zero counts")
	}
}

func TestDispatcherDeliversAndDrainsOnClose(t *testing.T) {
	sink := NewChannelSink(8)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)

	for i := 0; i < 3; i++ {
		d.Emit(context.Background(), Event{ID: NewEventID(), Kind: "login_success"})
	}
	d.Close()

	if d.Delivered() != 3 {
		t.Fatalf("expected 3 delivered, got %d", d.Delivered())
	}
	for i := 0; i < 3; i++ {
		select {
		case e := <-sink.Events():
			if e.Kind != "login_success" || e.ID == "" {
				t.Fatalf("unexpected event %+v", e)
			}
		default:
			t.Fatalf("event %d missing", i)
		}
	}

	d.Emit(context.Background(), Event{Kind: "after_close"})
	if d.Delivered() != 3 {
		t.Fatal("emit after close must be ignored")
	}
}

func TestDispatcherDropIfFull(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{}), got: make(chan Event, 16)}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// One event is held by the blocked sink, one fills the buffer, the rest drop.
	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), Event{Kind: "e"})
		time.Sleep(time.Millisecond)
	}
	if d.Dropped() == 0 {
		t.Fatal("expected drops with a blocked sink and full buffer")
	}
	close(sink.release)
	d.Close()
}

func TestJSONWriterSinkWritesLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), Event{ID: "1", Kind: "account_locked", AccountID: "acct-1"})
	sink.Emit(context.Background(), Event{ID: "2", Kind: "account_unlocked", AccountID: "acct-1"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var e Event
	if err := json.Unmarshal([]byte(lines[0]), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.Kind != "account_locked" || e.AccountID != "acct-1" {
		t.Fatalf("unexpected event %+v", e)
	}
}

func TestLogSinkLevels(t *testing.T) {
	log, hook := test.NewNullLogger()
	sink := LogSink{Log: log}

	sink.Emit(context.Background(), Event{Kind: "login_failure", AccountID: "acct-1", Outcome: OutcomeDenied, Code: "invalid_credentials", Detail: map[string]string{"failures": "2"}})
	sink.Emit(context.Background(), Event{Kind: "login_failure", AccountID: "acct-1", Outcome: OutcomeError, Code: "backend_unavailable"})

	entries := hook.AllEntries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != logrus.InfoLevel || entries[0].Message != "login_failure" {
		t.Fatalf("unexpected first entry: %v %q", entries[0].Level, entries[0].Message)
	}
	if entries[0].Data["failures"] != "2" || entries[0].Data["code"] != "invalid_credentials" {
		t.Fatalf("unexpected fields: %v", entries[0].Data)
	}
	if entries[1].Level != logrus.ErrorLevel {
		t.Fatalf("infrastructure errors must log at error, got %v", entries[1].Level)
	}
}

func TestTeeFansOut(t *testing.T) {
	a, b := NewChannelSink(1), NewChannelSink(1)
	Tee{a, nil, b}.Emit(context.Background(), Event{Kind: "session_created"})

	for i, s := range []*ChannelSink{a, b} {
		select {
		case e := <-s.Events():
			if e.Kind != "session_created" {
				t.Fatalf("sink %d got %+v", i, e)
			}
		default:
			t.Fatalf("sink %d received nothing", i)
		}
	}
}

func TestEmitWaitsForRoomUntilContextEnds(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{}), got: make(chan Event, 4)}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, sink)

	d.Emit(context.Background(), Event{Kind: "held"})
	time.Sleep(10 * time.Millisecond) // let the loop pick it up and block
	d.Emit(context.Background(), Event{Kind: "queued"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	d.Emit(ctx, Event{Kind: "abandoned"})
	if time.Since(start) < 15*time.Millisecond {
		t.Fatal("Emit returned before the context ended")
	}

	close(sink.release)
	d.Close()
	if d.Delivered() != 2 || d.Dropped() != 0 {
		t.Fatalf("delivered=%d dropped=%d, want 2 and 0", d.Delivered(), d.Dropped())
	}
}
