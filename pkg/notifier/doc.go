// Package notifier delivers verification messages over the two supported
// channels: transactional email via Postmark and SMS via Twilio.
//
// Both channels are defined as single-method interfaces so the registration
// service never depends on a concrete provider. Development senders write
// messages to disk instead of calling external APIs, letting the full
// registration flow run locally without credentials.
package notifier
