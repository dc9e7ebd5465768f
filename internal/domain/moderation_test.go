package domain

import (
	"errors"
	"testing"
)

func TestModerationActionRoundTrip(t *testing.T) {
	id := "3f1e2d4c-0000-4000-8000-000000000001"
	for _, status := range []FeedbackStatus{StatusApproved, StatusRejected} {
		data := ModerationAction(status, id)
		if len(data) > 64 {
			t.Fatalf("callback data exceeds Telegram limit: %d bytes", len(data))
		}
		gotStatus, gotID, err := ParseModerationAction(data)
		if err != nil || gotStatus != status || gotID != id {
			t.Fatalf("ParseModerationAction(%q) = %s %s %v", data, gotStatus, gotID, err)
		}
	}
	if ModerationAction(StatusPending, id) != "" {
		t.Fatal("pending is not a moderation action")
	}
}

func TestParseModerationActionRejectsGarbage(t *testing.T) {
	for _, data := range []string{"", "approve", "approve:", "delete:42", "digest_all"} {
		if _, _, err := ParseModerationAction(data); !errors.Is(err, ErrUnknownAction) {
			t.Fatalf("ParseModerationAction(%q) err = %v", data, err)
		}
	}
}
