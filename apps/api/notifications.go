package main

import (
	"context"
	"fmt"
	"html"
	"strings"

	"reportwatch/libs/mailer"
)

const moderationNotificationSubject = "New report pending review"

// sendModerationNotification tells the moderator a report entered the queue.
// The mail carries only non-identifying fields and a link to the admin page.
func (a *App) sendModerationNotification(ctx context.Context, report Report) error {
	if a.mailer == nil || a.cfg.ModerationNotifyEmail == "" {
		return nil
	}

	text, htmlBody := buildModerationNotification(report, a.cfg.PublicBaseURL+adminHomePath)
	result, err := a.mailer.Send(ctx, mailer.Message{
		To:      []string{a.cfg.ModerationNotifyEmail},
		Subject: moderationNotificationSubject,
		Text:    text,
		HTML:    htmlBody,
	})
	if err != nil {
		return fmt.Errorf("send moderation notification: %w", err)
	}
	a.log.Info("moderation notification sent", "report_id", report.ID(), "provider", a.mailer.ProviderName(), "message_id", result.ProviderMessageID)
	return nil
}

func buildModerationNotification(report Report, adminURL string) (string, string) {
	location := report.String(fieldLocation)
	if location == "" {
		location = "-"
	}
	state := stateLabel(report)

	var text strings.Builder
	fmt.Fprintf(&text, "A new report is waiting for review.\n\n")
	fmt.Fprintf(&text, "ID: %s\n", report.ID())
	fmt.Fprintf(&text, "Location: %s\n", location)
	fmt.Fprintf(&text, "State: %s\n", state)
	fmt.Fprintf(&text, "Category: %s\n", categoryLabel(report))
	fmt.Fprintf(&text, "Submitted: %s\n\n", formatTimestamp(report.String(fieldSubmittedAt)))
	fmt.Fprintf(&text, "Review it at %s\n", adminURL)

	htmlBody := fmt.Sprintf(
		"<p>A new report is waiting for review.</p><ul><li>ID: %s</li><li>Location: %s</li><li>State: %s</li><li>Category: %s</li></ul><p><a href=\"%s\">Open the moderation queue</a></p>",
		html.EscapeString(report.ID()),
		html.EscapeString(location),
		html.EscapeString(state),
		html.EscapeString(categoryLabel(report)),
		html.EscapeString(adminURL),
	)
	return text.String(), htmlBody
}
