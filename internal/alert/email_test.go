package alert

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/kozaktomas/mask-sentry/internal/config"
)

type fakeMailSender struct {
	err      error
	messages []*mail.Msg
}

func (f *fakeMailSender) DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error {
	f.messages = append(f.messages, messages...)
	return f.err
}

func testEmailConfig() config.EmailConfig {
	return config.EmailConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Sender:   "camera@example.com",
		Password: "app-password",
		Receiver: "ops@example.com",
	}
}

func newTestEmailSink(cfg config.EmailConfig, sender *fakeMailSender) *EmailSink {
	s := NewEmailSink(cfg, time.Second)
	s.newSender = func() (mailSender, error) { return sender, nil }
	return s
}

func TestEmailSink_BuildMessage(t *testing.T) {
	s := NewEmailSink(testEmailConfig(), time.Second)

	m, err := s.buildMessage(NewViolationEvent("visible nose and mouth", []byte{0xff, 0xd8, 0xff, 0xe0}))
	if err != nil {
		t.Fatalf("buildMessage failed: %v", err)
	}

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		t.Fatalf("failed to render message: %v", err)
	}
	raw := buf.String()

	for _, want := range []string{
		"ALERT: Face Mask Violation Detected!",
		"camera@example.com",
		"ops@example.com",
		"multipart/mixed",
		"text/plain",
		"visible nose and mouth",
		"violation_capture.jpg",
		"image/jpeg",
	} {
		if !strings.Contains(raw, want) {
			t.Errorf("expected rendered message to contain %q", want)
		}
	}
}

func TestEmailSink_BuildMessage_InvalidAddress(t *testing.T) {
	cfg := testEmailConfig()
	cfg.Receiver = "not an address"
	s := NewEmailSink(cfg, time.Second)

	if _, err := s.buildMessage(NewViolationEvent("x", nil)); err == nil {
		t.Error("expected error for malformed recipient")
	}
}

func TestEmailSink_Send(t *testing.T) {
	sender := &fakeMailSender{}
	s := newTestEmailSink(testEmailConfig(), sender)

	if err := s.Send(context.Background(), NewViolationEvent("no mask", []byte{1, 2, 3})); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if len(sender.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(sender.messages))
	}
	var buf bytes.Buffer
	if _, err := sender.messages[0].WriteTo(&buf); err != nil {
		t.Fatalf("failed to render message: %v", err)
	}
	if !strings.Contains(buf.String(), "ops@example.com") {
		t.Errorf("expected fixed recipient header, got:\n%s", buf.String())
	}
}

func TestEmailSink_Send_TransportError(t *testing.T) {
	sender := &fakeMailSender{err: errors.New("535 authentication failed")}
	s := newTestEmailSink(testEmailConfig(), sender)

	err := s.Send(context.Background(), NewViolationEvent("no mask", nil))

	if err == nil || !strings.Contains(err.Error(), "authentication failed") {
		t.Errorf("expected authentication error, got %v", err)
	}
}

func TestEmailSink_Name(t *testing.T) {
	if NewEmailSink(testEmailConfig(), time.Second).Name() != "email" {
		t.Error("expected sink name 'email'")
	}
}
