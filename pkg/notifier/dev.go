package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// DevSender implements both EmailSender and SMSSender for local development
// by writing messages to a directory instead of calling external services.
type DevSender struct {
	dir string
}

// NewDevSender creates a development sender that writes messages to disk.
// The directory is created on first send.
func NewDevSender(dir string) *DevSender {
	return &DevSender{dir: dir}
}

type devMessage struct {
	Timestamp string `json:"timestamp"`
	Channel   string `json:"channel"`
	SendTo    string `json:"send_to"`
	Subject   string `json:"subject,omitempty"`
	Body      string `json:"body"`
	Tag       string `json:"tag,omitempty"`
}

func (d *DevSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}
	return d.write(devMessage{
		Timestamp: time.Now().Format(time.RFC3339),
		Channel:   "email",
		SendTo:    params.SendTo,
		Subject:   params.Subject,
		Body:      params.BodyHTML,
		Tag:       params.Tag,
	})
}

func (d *DevSender) SendSMS(ctx context.Context, params SendSMSParams) error {
	if err := params.Validate(); err != nil {
		return err
	}
	return d.write(devMessage{
		Timestamp: time.Now().Format(time.RFC3339),
		Channel:   "sms",
		SendTo:    params.SendTo,
		Body:      params.Body,
	})
}

func (d *DevSender) write(msg devMessage) error {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create message directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s_%s.json",
		time.Now().Format("2006_01_02_150405.000000"),
		msg.Channel,
		sanitizeFilename(msg.SendTo),
	)

	data, err := json.MarshalIndent(msg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := os.WriteFile(filepath.Join(d.dir, name), data, 0o644); err != nil {
		return errors.Join(errors.New("failed to write message file"), err)
	}
	return nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.+]`)

func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = unsafeFilenameChars.ReplaceAllString(s, "")
	const maxLength = 80
	if len(s) > maxLength {
		s = s[:maxLength]
	}
	if s == "" {
		s = "message"
	}
	return strings.ToLower(s)
}
