package mail

import (
	"context"
	"log/slog"
)

// Log is a Mail that only logs the envelope. With showBody set it also
// writes the text body at debug level, for local development where no SMTP
// server runs and the one-time code must be read from the console.
type Log struct {
	defaultFrom string
	showBody    bool
}

// NewLog returns a Log mailer.
func NewLog(from string, showBody bool) *Log {
	return &Log{defaultFrom: from, showBody: showBody}
}

// Send logs msg and reports success.
func (l *Log) Send(ctx context.Context, msg Message) error {
	if msg.recipients() == 0 {
		return ErrNoRecipients
	}

	from := msg.From
	if from == "" {
		from = l.defaultFrom
	}

	slog.InfoContext(ctx, "mail suppressed by log driver",
		"from", from,
		"to", msg.To,
		"subject", msg.Subject,
		"html", msg.HTMLBody != "",
	)

	if l.showBody {
		slog.DebugContext(ctx, "mail body", "to", msg.To, "text_body", msg.TextBody)
	}

	return nil
}

// Close implements io.Closer.
func (l *Log) Close() error {
	return nil
}
