package alert

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/kozaktomas/mask-sentry/internal/config"
)

// messageCreator is satisfied by the Twilio REST API service.
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// WhatsAppSink relays the alert text through Twilio's WhatsApp channel.
type WhatsAppSink struct {
	cfg config.WhatsAppConfig
	api messageCreator
}

func NewWhatsAppSink(cfg config.WhatsAppConfig) *WhatsAppSink {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &WhatsAppSink{cfg: cfg, api: client.Api}
}

func (s *WhatsAppSink) Name() string {
	return "whatsapp"
}

// FormatMessage renders the chat text for a violation reason.
func FormatMessage(reason string) string {
	return "🚨 *ALERT: Face Mask Violation!* 🚨\n\n*Reason:* " + reason
}

func (s *WhatsAppSink) Send(ctx context.Context, evt Event) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom("whatsapp:" + s.cfg.Sender)
	params.SetTo("whatsapp:" + s.cfg.Recipient)
	params.SetBody(FormatMessage(evt.Body))

	// The Twilio client takes no context; bound the wait instead.
	type reply struct {
		msg *twilioApi.ApiV2010Message
		err error
	}
	done := make(chan reply, 1)
	go func() {
		msg, err := s.api.CreateMessage(params)
		done <- reply{msg: msg, err: err}
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("failed to send WhatsApp message: %w", ctx.Err())
	case r := <-done:
		if r.err != nil {
			return fmt.Errorf("failed to send WhatsApp message: %w", r.err)
		}
		return nil
	}
}
