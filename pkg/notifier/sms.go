package notifier

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

var phoneRegex = regexp.MustCompile(`^\+?[1-9]\d{6,14}$`)

// SMSSender sends short text messages.
type SMSSender interface {
	SendSMS(ctx context.Context, params SendSMSParams) error
}

// SendSMSParams represents a single outbound SMS.
type SendSMSParams struct {
	SendTo string `json:"send_to"`
	Body   string `json:"body"`
}

// Validate checks that the message is deliverable.
func (p SendSMSParams) Validate() error {
	if !phoneRegex.MatchString(p.SendTo) {
		return fmt.Errorf("%w: %q", ErrInvalidRecipient, p.SendTo)
	}
	if p.Body == "" {
		return ErrEmptyMessage
	}
	return nil
}

// SMSConfig holds Twilio credentials and the sending number.
type SMSConfig struct {
	TwilioAccountSID string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `env:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber string `env:"TWILIO_FROM_NUMBER"`
}

type twilioSender struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioSender creates a Twilio-backed SMS sender.
func NewTwilioSender(cfg SMSConfig) (SMSSender, error) {
	if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" {
		return nil, fmt.Errorf("%w: Twilio credentials are required", ErrInvalidConfig)
	}
	if !phoneRegex.MatchString(cfg.TwilioFromNumber) {
		return nil, fmt.Errorf("%w: TwilioFromNumber must be a valid phone number", ErrInvalidConfig)
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})

	return &twilioSender{client: client, from: cfg.TwilioFromNumber}, nil
}

func (t *twilioSender) SendSMS(ctx context.Context, params SendSMSParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	msgParams := &twilioApi.CreateMessageParams{}
	msgParams.SetFrom(t.from)
	msgParams.SetTo(params.SendTo)
	msgParams.SetBody(params.Body)

	if _, err := t.client.Api.CreateMessage(msgParams); err != nil {
		return errors.Join(ErrFailedToSendSMS, err)
	}
	return nil
}
