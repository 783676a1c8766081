// Package notify delivers out-of-band alerts about actions the bot took.
// Delivery is best-effort: callers log failures and move on.
package notify

import "log/slog"

// Notifier sends a plain-text message to the bot owner.
type Notifier interface {
	Send(subject, body string) error
}

// LogNotifier records notifications in the log instead of delivering them.
// Useful in development and as the default transport.
type LogNotifier struct {
	Logger *slog.Logger
}

var _ Notifier = (*LogNotifier)(nil)

func (n *LogNotifier) Send(subject, body string) error {
	n.Logger.Info("notification", "subject", subject, "body", body)
	return nil
}
