package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"feedback-hub/internal/domain"
)

type fakeSender struct {
	sent   []tgbotapi.MessageConfig
	failOn int64
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, errors.New("unexpected chattable")
	}
	if msg.ChatID == f.failOn {
		return tgbotapi.Message{}, errors.New("forbidden")
	}
	f.sent = append(f.sent, msg)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func TestNotifySendsToEveryChatWithButtons(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(sender, []int64{10, 20}, zerolog.Nop())

	err := n.Notify(context.Background(), domain.Notification{
		Text: "New feedback",
		Actions: []domain.NotificationAction{
			{Label: "Approve", Data: "approve:x"},
			{Label: "Reject", Data: "reject:x"},
		},
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(sender.sent))
	}
	for _, msg := range sender.sent {
		markup, ok := msg.ReplyMarkup.(*tgbotapi.InlineKeyboardMarkup)
		if !ok || len(markup.InlineKeyboard) != 1 || len(markup.InlineKeyboard[0]) != 2 {
			t.Fatalf("expected one row with two buttons, got %#v", msg.ReplyMarkup)
		}
		if data := markup.InlineKeyboard[0][0].CallbackData; data == nil || *data != "approve:x" {
			t.Fatalf("unexpected callback data %v", data)
		}
		if msg.ParseMode != tgbotapi.ModeHTML {
			t.Fatalf("expected HTML parse mode, got %q", msg.ParseMode)
		}
	}
}

func TestNotifySplitsLongTextAndKeepsButtonsOnFirstPart(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(sender, []int64{10}, zerolog.Nop())
	text := strings.Repeat("a", 3000) + "\n" + strings.Repeat("b", 3000)

	err := n.Notify(context.Background(), domain.Notification{
		Text:    text,
		Actions: []domain.NotificationAction{{Label: "Approve", Data: "approve:x"}},
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(sender.sent))
	}
	if sender.sent[0].ReplyMarkup == nil || sender.sent[1].ReplyMarkup != nil {
		t.Fatal("buttons must be attached to the first part only")
	}
}

func TestNotifyContinuesAfterFailedChat(t *testing.T) {
	sender := &fakeSender{failOn: 10}
	n := NewNotifier(sender, []int64{10, 20}, zerolog.Nop())

	err := n.Notify(context.Background(), domain.Notification{Text: "hello"})
	if err == nil {
		t.Fatal("expected error for failed chat")
	}
	if len(sender.sent) != 1 || sender.sent[0].ChatID != 20 {
		t.Fatalf("second chat must still be notified, got %+v", sender.sent)
	}
}

func TestNotifyWithoutChats(t *testing.T) {
	if err := NewNotifier(&fakeSender{}, nil, zerolog.Nop()).Notify(context.Background(), domain.Notification{Text: "x"}); err == nil {
		t.Fatal("expected error without chats")
	}
}
