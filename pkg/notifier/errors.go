package notifier

import "errors"

var (
	ErrInvalidConfig     = errors.New("notifier: invalid config")
	ErrInvalidRecipient  = errors.New("notifier: invalid recipient")
	ErrEmptyMessage      = errors.New("notifier: empty message")
	ErrFailedToSendEmail = errors.New("notifier: failed to send email")
	ErrFailedToSendSMS   = errors.New("notifier: failed to send sms")
)
