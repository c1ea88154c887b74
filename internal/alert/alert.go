// Package alert delivers violation notifications over independent sinks.
package alert

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kozaktomas/mask-sentry/internal/constants"
)

// Event is one violation notification. It is built only for confirmed
// violations and never persisted.
type Event struct {
	Subject string
	Body    string
	Image   []byte // JPEG attachment
}

// NewViolationEvent builds the event sent when no mask was detected.
// The body is the classifier's reason, verbatim.
func NewViolationEvent(reason string, image []byte) Event {
	return Event{
		Subject: constants.ViolationSubject,
		Body:    reason,
		Image:   image,
	}
}

// Sink is one outbound notification channel. Each Send is a single delivery
// attempt with no deduplication against earlier attempts.
type Sink interface {
	Name() string
	Send(ctx context.Context, evt Event) error
}

// Delivery is the outcome of one sink attempt.
type Delivery struct {
	Sink     string        `json:"sink"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
	err      error
}

// Err returns the delivery failure, nil on success.
func (d Delivery) Err() error {
	return d.err
}

// OK reports whether the sink accepted the message.
func (d Delivery) OK() bool {
	return d.err == nil
}

// Result lists one Delivery per sink, in sink order.
type Result struct {
	Deliveries []Delivery `json:"deliveries"`
}

// Failed returns the deliveries that did not succeed.
func (r *Result) Failed() []Delivery {
	var failed []Delivery
	for _, d := range r.Deliveries {
		if !d.OK() {
			failed = append(failed, d)
		}
	}
	return failed
}

// Dispatcher fans an event out to every sink.
type Dispatcher struct {
	sinks   []Sink
	timeout time.Duration
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher. A non-positive timeout uses the default.
func NewDispatcher(sinks []Sink, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = constants.DefaultAlertTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{sinks: sinks, timeout: timeout, logger: logger}
}

// Dispatch attempts every sink exactly once, concurrently. Each sink runs under
// its own timeout; a failure in one never cancels or blocks another.
func (d *Dispatcher) Dispatch(ctx context.Context, evt Event) *Result {
	result := &Result{Deliveries: make([]Delivery, len(d.sinks))}

	var wg sync.WaitGroup
	for i, sink := range d.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result.Deliveries[i] = d.deliver(ctx, sink, evt)
		}()
	}
	wg.Wait()

	return result
}

func (d *Dispatcher) deliver(ctx context.Context, sink Sink, evt Event) (delivery Delivery) {
	start := time.Now()
	delivery.Sink = sink.Name()

	// Detach from the caller's cancellation: once started, a delivery runs to
	// completion or its own timeout.
	sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			delivery.err = panicError{value: r}
			delivery.Error = delivery.err.Error()
			d.logger.Error("alert sink panicked", "sink", delivery.Sink, "panic", r)
		}
		delivery.Duration = time.Since(start)
	}()

	if err := sink.Send(sinkCtx, evt); err != nil {
		delivery.err = err
		delivery.Error = err.Error()
		d.logger.Error("alert delivery failed", "sink", delivery.Sink, "error", err)
		return delivery
	}

	d.logger.Info("alert delivered", "sink", delivery.Sink)
	return delivery
}

type panicError struct {
	value any
}

func (e panicError) Error() string {
	return fmt.Sprintf("sink panicked: %v", e.value)
}
