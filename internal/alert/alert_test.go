package alert

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSink records every event it receives and returns err.
type fakeSink struct {
	name  string
	err   error
	delay time.Duration
	panic bool

	mu     sync.Mutex
	events []Event
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) Send(ctx context.Context, evt Event) error {
	f.mu.Lock()
	f.events = append(f.events, evt)
	f.mu.Unlock()

	if f.panic {
		panic("sink exploded")
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func (f *fakeSink) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func TestNewViolationEvent(t *testing.T) {
	evt := NewViolationEvent("visible nose and mouth", []byte{0xff, 0xd8})

	if !strings.Contains(evt.Subject, "Mask Violation") {
		t.Errorf("expected subject to mention Mask Violation, got %q", evt.Subject)
	}
	if evt.Body != "visible nose and mouth" {
		t.Errorf("expected body to be the reason verbatim, got %q", evt.Body)
	}
	if len(evt.Image) != 2 {
		t.Errorf("expected image attachment, got %d bytes", len(evt.Image))
	}
}

func TestDispatch_AllSinksSucceed(t *testing.T) {
	email := &fakeSink{name: "email"}
	chat := &fakeSink{name: "whatsapp"}
	d := NewDispatcher([]Sink{email, chat}, time.Second, quietLogger())

	result := d.Dispatch(context.Background(), NewViolationEvent("no mask", nil))

	if email.calls() != 1 || chat.calls() != 1 {
		t.Errorf("expected one call per sink, got email=%d whatsapp=%d", email.calls(), chat.calls())
	}
	if len(result.Deliveries) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(result.Deliveries))
	}
	if result.Deliveries[0].Sink != "email" || result.Deliveries[1].Sink != "whatsapp" {
		t.Errorf("expected deliveries in sink order, got %+v", result.Deliveries)
	}
	if len(result.Failed()) != 0 {
		t.Errorf("expected no failures, got %+v", result.Failed())
	}
}

func TestDispatch_FailureIsIsolated(t *testing.T) {
	email := &fakeSink{name: "email", err: errors.New("dial tcp: connection refused")}
	chat := &fakeSink{name: "whatsapp"}
	d := NewDispatcher([]Sink{email, chat}, time.Second, quietLogger())

	result := d.Dispatch(context.Background(), NewViolationEvent("no mask", nil))

	if chat.calls() != 1 {
		t.Errorf("expected whatsapp to be attempted once, got %d", chat.calls())
	}

	failed := result.Failed()
	if len(failed) != 1 || failed[0].Sink != "email" {
		t.Fatalf("expected only email to fail, got %+v", failed)
	}
	if !strings.Contains(failed[0].Error, "connection refused") {
		t.Errorf("expected failure message to be kept, got %q", failed[0].Error)
	}
	if !result.Deliveries[1].OK() {
		t.Errorf("expected whatsapp delivery to succeed, got %v", result.Deliveries[1].Err())
	}
}

func TestDispatch_PanickingSinkDoesNotStopOthers(t *testing.T) {
	email := &fakeSink{name: "email", panic: true}
	chat := &fakeSink{name: "whatsapp"}
	d := NewDispatcher([]Sink{email, chat}, time.Second, quietLogger())

	result := d.Dispatch(context.Background(), NewViolationEvent("no mask", nil))

	if result.Deliveries[0].OK() {
		t.Error("expected panicking sink to be reported as failed")
	}
	if !result.Deliveries[1].OK() {
		t.Error("expected other sink to succeed")
	}
}

func TestDispatch_SlowSinkTimesOutAlone(t *testing.T) {
	slow := &fakeSink{name: "email", delay: 5 * time.Second}
	fast := &fakeSink{name: "whatsapp"}
	d := NewDispatcher([]Sink{slow, fast}, 50*time.Millisecond, quietLogger())

	start := time.Now()
	result := d.Dispatch(context.Background(), NewViolationEvent("no mask", nil))

	if time.Since(start) > 2*time.Second {
		t.Error("expected dispatch to be bounded by the sink timeout")
	}
	if !errors.Is(result.Deliveries[0].Err(), context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", result.Deliveries[0].Err())
	}
	if !result.Deliveries[1].OK() {
		t.Error("expected fast sink to succeed")
	}
}

func TestDispatch_CallerCancellationDoesNotAbortDelivery(t *testing.T) {
	sink := &fakeSink{name: "email", delay: 20 * time.Millisecond}
	d := NewDispatcher([]Sink{sink}, time.Second, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := d.Dispatch(ctx, NewViolationEvent("no mask", nil))

	if !result.Deliveries[0].OK() {
		t.Errorf("expected delivery to run to completion, got %v", result.Deliveries[0].Err())
	}
}

func TestDispatch_RepeatedEventsAreNotDeduplicated(t *testing.T) {
	sink := &fakeSink{name: "email"}
	d := NewDispatcher([]Sink{sink}, time.Second, quietLogger())
	evt := NewViolationEvent("no mask", nil)

	d.Dispatch(context.Background(), evt)
	d.Dispatch(context.Background(), evt)

	if sink.calls() != 2 {
		t.Errorf("expected two attempts, got %d", sink.calls())
	}
}
