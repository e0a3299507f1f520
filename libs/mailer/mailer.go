package mailer

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrNoRecipients = errors.New("mailer: message has no recipients")
	ErrNoSender     = errors.New("mailer: no sender address configured")
	ErrEmptyBody    = errors.New("mailer: message has no body")
)

// Message represents an email to send.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
	Text    string
}

// SendResult contains the response from the provider.
type SendResult struct {
	ProviderMessageID string
}

// Provider sends emails via a specific backend.
type Provider interface {
	Name() string
	Send(ctx context.Context, msg Message) (SendResult, error)
}

// Mailer validates messages and hands them to a provider.
type Mailer struct {
	provider    Provider
	fromAddress string
}

func New(provider Provider, fromAddress string) *Mailer {
	return &Mailer{
		provider:    provider,
		fromAddress: strings.TrimSpace(fromAddress),
	}
}

// Send fills in the default sender, drops blank and duplicate recipients and
// rejects messages that cannot be delivered before reaching the provider.
func (m *Mailer) Send(ctx context.Context, msg Message) (SendResult, error) {
	if err := ctx.Err(); err != nil {
		return SendResult{}, err
	}

	msg.From = strings.TrimSpace(msg.From)
	if msg.From == "" {
		msg.From = m.fromAddress
	}
	if msg.From == "" {
		return SendResult{}, ErrNoSender
	}

	msg.To = normalizeRecipients(msg.To)
	if len(msg.To) == 0 {
		return SendResult{}, ErrNoRecipients
	}
	if strings.TrimSpace(msg.HTML) == "" && strings.TrimSpace(msg.Text) == "" {
		return SendResult{}, ErrEmptyBody
	}

	return m.provider.Send(ctx, msg)
}

func (m *Mailer) ProviderName() string {
	return m.provider.Name()
}

func normalizeRecipients(to []string) []string {
	seen := make(map[string]struct{}, len(to))
	out := make([]string, 0, len(to))
	for _, address := range to {
		address = strings.TrimSpace(address)
		if address == "" {
			continue
		}
		key := strings.ToLower(address)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, address)
	}
	return out
}
