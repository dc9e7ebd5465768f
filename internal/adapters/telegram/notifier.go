package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"feedback-hub/internal/domain"
	"feedback-hub/internal/infra/metrics"
)

// Sender is the subset of *tgbotapi.BotAPI used to post messages.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier posts notifications to every moderator chat.
type Notifier struct {
	sender  Sender
	chatIDs []int64
	log     zerolog.Logger
}

var _ domain.Notifier = (*Notifier)(nil)

// NewNotifier creates a notifier for the given chats.
func NewNotifier(sender Sender, chatIDs []int64, logger zerolog.Logger) *Notifier {
	return &Notifier{sender: sender, chatIDs: chatIDs, log: logger}
}

// Notify sends n to each chat. Long texts are split; buttons go on the first
// part. A failing chat does not stop the others.
func (n *Notifier) Notify(ctx context.Context, note domain.Notification) error {
	if len(n.chatIDs) == 0 {
		return errors.New("telegram: no moderator chats configured")
	}
	parts := SplitHTML(note.Text)
	if len(parts) == 0 {
		return nil
	}
	keyboard := inlineKeyboard(note.Actions)

	var errs []error
	for _, chatID := range n.chatIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := n.sendParts(chatID, parts, keyboard); err != nil {
			n.log.Error().Err(err).Int64("chat", chatID).Msg("telegram: send to moderator failed")
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}

func (n *Notifier) sendParts(chatID int64, parts []string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	for i, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
		if i == 0 && keyboard != nil {
			msg.ReplyMarkup = keyboard
		}
		start := time.Now()
		_, err := n.sender.Send(msg)
		metrics.ObserveNetworkRequest("telegram_bot", "send_message", strconv.FormatInt(chatID, 10), start, err)
		if err != nil {
			return err
		}
	}
	return nil
}

func inlineKeyboard(actions []domain.NotificationAction) *tgbotapi.InlineKeyboardMarkup {
	if len(actions) == 0 {
		return nil
	}
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(actions))
	for _, a := range actions {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(a.Label, a.Data))
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(row)
	return &markup
}
