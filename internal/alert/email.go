package alert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/kozaktomas/mask-sentry/internal/config"
	"github.com/kozaktomas/mask-sentry/internal/constants"
)

// mailSender is satisfied by *mail.Client.
type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// EmailSink sends the alert as a multipart message with the image attached,
// over an SMTP session upgraded with STARTTLS and authenticated as the sender.
type EmailSink struct {
	cfg       config.EmailConfig
	newSender func() (mailSender, error)
}

func NewEmailSink(cfg config.EmailConfig, timeout time.Duration) *EmailSink {
	s := &EmailSink{cfg: cfg}
	s.newSender = func() (mailSender, error) {
		client, err := mail.NewClient(cfg.Host,
			mail.WithPort(cfg.Port),
			mail.WithTLSPolicy(mail.TLSMandatory),
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Sender),
			mail.WithPassword(cfg.Password),
			mail.WithTimeout(timeout),
		)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	return s
}

func (s *EmailSink) Name() string {
	return "email"
}

// buildMessage renders evt as a text/plain body plus a JPEG attachment.
func (s *EmailSink) buildMessage(evt Event) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.cfg.Sender); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := m.To(s.cfg.Receiver); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	m.Subject(evt.Subject)
	m.SetBodyString(mail.TypeTextPlain, evt.Body)

	if len(evt.Image) > 0 {
		err := m.AttachReader(constants.AttachmentName, bytes.NewReader(evt.Image),
			mail.WithFileContentType(mail.ContentType("image/jpeg")))
		if err != nil {
			return nil, fmt.Errorf("failed to attach image: %w", err)
		}
	}
	return m, nil
}

func (s *EmailSink) Send(ctx context.Context, evt Event) error {
	if s.cfg.Receiver == "" {
		return errors.New("no recipient configured")
	}

	m, err := s.buildMessage(evt)
	if err != nil {
		return err
	}

	sender, err := s.newSender()
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}

	if err := sender.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
