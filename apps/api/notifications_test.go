package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"reportwatch/libs/mailer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailProvider struct {
	sent []mailer.Message
	err  error
}

func (p *recordingMailProvider) Name() string { return "recording" }

func (p *recordingMailProvider) Send(_ context.Context, msg mailer.Message) (mailer.SendResult, error) {
	if p.err != nil {
		return mailer.SendResult{}, p.err
	}
	p.sent = append(p.sent, msg)
	return mailer.SendResult{ProviderMessageID: "rec-1"}, nil
}

func newNotificationApp(provider mailer.Provider, notifyEmail string) *App {
	return &App{
		cfg:    &Config{PublicBaseURL: "https://reportwatch.example", ModerationNotifyEmail: notifyEmail},
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		mailer: mailer.New(provider, "noreply@reportwatch.example"),
	}
}

func TestSendModerationNotification(t *testing.T) {
	provider := &recordingMailProvider{}
	app := newNotificationApp(provider, "mod@example.com")

	report := Report{fieldID: "r-1", fieldLocation: "Austin, TX", fieldStateFull: "Texas", fieldEmail: "private@example.com"}
	require.NoError(t, app.sendModerationNotification(context.Background(), report))

	require.Len(t, provider.sent, 1)
	msg := provider.sent[0]
	assert.Equal(t, []string{"mod@example.com"}, msg.To)
	assert.Equal(t, "noreply@reportwatch.example", msg.From)
	assert.Equal(t, moderationNotificationSubject, msg.Subject)
	assert.Contains(t, msg.Text, "r-1")
	assert.Contains(t, msg.Text, "Texas")
	assert.Contains(t, msg.Text, "https://reportwatch.example/admin")
	assert.NotContains(t, msg.Text, "private@example.com")
	assert.NotContains(t, msg.HTML, "private@example.com")
}

func TestSendModerationNotificationDisabled(t *testing.T) {
	provider := &recordingMailProvider{}
	app := newNotificationApp(provider, "")

	require.NoError(t, app.sendModerationNotification(context.Background(), Report{fieldID: "r-1"}))
	assert.Empty(t, provider.sent)
}

func TestSendModerationNotificationWrapsProviderError(t *testing.T) {
	app := newNotificationApp(&recordingMailProvider{err: errors.New("boom")}, "mod@example.com")

	err := app.sendModerationNotification(context.Background(), Report{fieldID: "r-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestBuildModerationNotificationEscapesHTML(t *testing.T) {
	_, htmlBody := buildModerationNotification(Report{fieldID: "r-1", fieldLocation: "<script>x</script>"}, "https://reportwatch.example/admin")

	assert.False(t, strings.Contains(htmlBody, "<script>"))
	assert.Contains(t, htmlBody, "&lt;script&gt;")
}
