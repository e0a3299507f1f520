package mailer

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// LogProvider writes messages to the logger instead of delivering them. It is
// used when no Resend key is configured.
type LogProvider struct {
	Logger *slog.Logger
}

func NewLogProvider(logger *slog.Logger) *LogProvider {
	return &LogProvider{Logger: logger}
}

func (l *LogProvider) Name() string {
	return "log"
}

func (l *LogProvider) Send(ctx context.Context, msg Message) (SendResult, error) {
	if err := ctx.Err(); err != nil {
		return SendResult{}, err
	}
	messageID := "log-" + uuid.NewString()
	l.Logger.InfoContext(ctx, "mailer: email logged (not sent)",
		"provider", "log",
		"from", msg.From,
		"to", strings.Join(msg.To, ", "),
		"subject", msg.Subject,
		"message_id", messageID,
	)
	if msg.Text != "" {
		l.Logger.DebugContext(ctx, "mailer: email text body", "message_id", messageID, "text", msg.Text)
	}
	return SendResult{ProviderMessageID: messageID}, nil
}
