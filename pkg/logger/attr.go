package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the subsystem emitting the log under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// SessionID records a registration session identifier.
func SessionID(id string) slog.Attr {
	return slog.String("session_id", id)
}

// Step records the flow step a log line relates to.
func Step(step string) slog.Attr {
	return slog.String("step", step)
}

// Channel records a verification channel (email or phone).
func Channel(ch string) slog.Attr {
	return slog.String("channel", ch)
}

// AccountID records the identifier of a finalized account.
func AccountID(id string) slog.Attr {
	return slog.String("account_id", id)
}
