package notify

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"feedback-hub/internal/domain"
)

// previewLimit caps the escaped message preview so a submitted notification
// always fits one Telegram message.
const previewLimit = 1500

// Format turns an event into a moderator notification. Unknown kinds report false.
func Format(ev domain.Event) (domain.Notification, bool) {
	switch ev.Kind {
	case domain.EventFeedbackSubmitted:
		return formatSubmitted(ev), true
	case domain.EventFeedbackModerated:
		return formatModerated(ev), true
	case domain.EventPendingReminder:
		return domain.Notification{
			Text: fmt.Sprintf("⏳ <b>%d</b> feedback items are waiting for moderation.", ev.PendingCount),
		}, true
	}
	return domain.Notification{}, false
}

func formatSubmitted(ev domain.Event) domain.Notification {
	var b strings.Builder
	b.WriteString("📝 <b>New feedback</b>\n")
	name := strings.TrimSpace(ev.Name)
	if name == "" {
		name = "anonymous"
	}
	b.WriteString("From: " + html.EscapeString(name) + "\n\n")
	b.WriteString(preview(strings.TrimSpace(ev.Message), previewLimit))
	b.WriteString("\n\n<code>" + html.EscapeString(ev.FeedbackID) + "</code>")

	return domain.Notification{
		Text: b.String(),
		Actions: []domain.NotificationAction{
			{Label: "✅ Approve", Data: domain.ModerationAction(domain.StatusApproved, ev.FeedbackID)},
			{Label: "🚫 Reject", Data: domain.ModerationAction(domain.StatusRejected, ev.FeedbackID)},
		},
	}
}

func formatModerated(ev domain.Event) domain.Notification {
	icon := "✅"
	if ev.Status == domain.StatusRejected {
		icon = "🚫"
	}
	return domain.Notification{
		Text: fmt.Sprintf("%s Feedback <code>%s</code> is now %s.", icon, html.EscapeString(ev.FeedbackID), html.EscapeString(string(ev.Status))),
	}
}

// preview escapes s for HTML and stops before the escaped text would pass
// limit runes. Entities are never cut.
func preview(s string, limit int) string {
	var b strings.Builder
	n := 0
	for _, r := range s {
		esc := html.EscapeString(string(r))
		size := utf8.RuneCountInString(esc)
		if n+size > limit {
			b.WriteString("…")
			break
		}
		b.WriteString(esc)
		n += size
	}
	return b.String()
}
