package bot

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"feedback-hub/internal/adapters/telegram"
	"feedback-hub/internal/domain"
	"feedback-hub/internal/infra/metrics"
)

// SecretHeader is set by Telegram when the webhook was registered with a secret token.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// API is the subset of *tgbotapi.BotAPI the handler needs.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Moderation is the part of the feedback service driven from Telegram.
type Moderation interface {
	Approve(ctx context.Context, id string) error
	Reject(ctx context.Context, id string) error
	CountPending(ctx context.Context) (int, error)
}

// Handler serves the bot webhook and lets moderators act on feedback.
type Handler struct {
	api        API
	log        zerolog.Logger
	moderation Moderation
	moderators map[int64]struct{}
	secret     string
}

// NewHandler creates the handler. Only chats listed in moderatorChatIDs may moderate.
func NewHandler(api API, log zerolog.Logger, moderation Moderation, moderatorChatIDs []int64, secret string) *Handler {
	moderators := make(map[int64]struct{}, len(moderatorChatIDs))
	for _, id := range moderatorChatIDs {
		moderators[id] = struct{}{}
	}
	return &Handler{api: api, log: log, moderation: moderation, moderators: moderators, secret: secret}
}

// ServeHTTP decodes a Telegram update and handles it.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get(SecretHeader)), []byte(h.secret)) != 1 {
		metrics.RequestsRejected.WithLabelValues("bad_webhook_secret").Inc()
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "invalid update", http.StatusBadRequest)
		return
	}
	h.HandleUpdate(r.Context(), update)
	w.WriteHeader(http.StatusOK)
}

// HandleUpdate handles an incoming update.
func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message != nil {
		h.handleMessage(ctx, upd.Message)
	} else if upd.CallbackQuery != nil {
		h.handleCallback(ctx, upd.CallbackQuery)
	}
}

func (h *Handler) isModerator(chatID int64) bool {
	_, ok := h.moderators[chatID]
	return ok
}

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID
	if !h.isModerator(chatID) {
		h.reply(chatID, fmt.Sprintf("This chat is not a moderator chat. Chat id: %d", chatID), nil)
		return
	}
	text := strings.TrimSpace(msg.Text)
	switch {
	case strings.HasPrefix(text, "/start"), strings.HasPrefix(text, "/help"):
		h.reply(chatID, helpMessage, nil)
	case strings.HasPrefix(text, "/pending"):
		n, err := h.moderation.CountPending(ctx)
		if err != nil {
			h.log.Error().Err(err).Msg("bot: count pending failed")
			h.reply(chatID, "Could not count pending feedback. Try again later.", nil)
			return
		}
		h.reply(chatID, fmt.Sprintf("Pending feedback: %d", n), nil)
	default:
		h.reply(chatID, "Unknown command. Use /help", nil)
	}
}

const helpMessage = "New feedback is posted here with Approve and Reject buttons.\n" +
	"/pending shows the size of the moderation queue."

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	answer := h.moderate(ctx, cb)

	start := time.Now()
	_, err := h.api.Request(tgbotapi.NewCallback(cb.ID, answer))
	metrics.ObserveNetworkRequest("telegram_bot", "answer_callback", callbackChat(cb), start, err)
	if err != nil {
		h.log.Error().Err(err).Msg("bot: answer callback failed")
	}
}

// moderate applies the callback action and returns the text shown to the moderator.
func (h *Handler) moderate(ctx context.Context, cb *tgbotapi.CallbackQuery) string {
	if cb.Message == nil || cb.Message.Chat == nil || !h.isModerator(cb.Message.Chat.ID) {
		return "Not allowed"
	}
	status, id, err := domain.ParseModerationAction(cb.Data)
	if err != nil {
		return "Unknown action"
	}

	switch status {
	case domain.StatusApproved:
		err = h.moderation.Approve(ctx, id)
	case domain.StatusRejected:
		err = h.moderation.Reject(ctx, id)
	}
	if err != nil {
		if errors.Is(err, domain.ErrInvalidID) {
			return "Invalid feedback id"
		}
		h.log.Error().Err(err).Str("feedback_id", id).Str("status", string(status)).Msg("bot: moderation failed")
		return "Failed, try again"
	}

	moderator := ""
	if cb.From != nil {
		moderator = cb.From.UserName
	}
	h.log.Info().Str("feedback_id", id).Str("status", string(status)).Str("moderator", moderator).Msg("bot: feedback moderated")
	h.clearButtons(cb.Message.Chat.ID, cb.Message.MessageID)
	if status == domain.StatusApproved {
		return "Approved"
	}
	return "Rejected"
}

func (h *Handler) clearButtons(chatID int64, messageID int) {
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
	})
	start := time.Now()
	_, err := h.api.Request(edit)
	metrics.ObserveNetworkRequest("telegram_bot", "edit_reply_markup", strconv.FormatInt(chatID, 10), start, err)
	if err != nil {
		h.log.Warn().Err(err).Msg("bot: could not remove buttons")
	}
}

func (h *Handler) reply(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	parts := telegram.SplitMessage(text)
	for i, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		if i == 0 && keyboard != nil {
			msg.ReplyMarkup = keyboard
		}
		start := time.Now()
		_, err := h.api.Send(msg)
		metrics.ObserveNetworkRequest("telegram_bot", "send_message", strconv.FormatInt(chatID, 10), start, err)
		if err != nil {
			h.log.Error().Err(err).Msg("bot: send message failed")
			return
		}
	}
}

func callbackChat(cb *tgbotapi.CallbackQuery) string {
	if cb.Message != nil && cb.Message.Chat != nil {
		return strconv.FormatInt(cb.Message.Chat.ID, 10)
	}
	if cb.From != nil {
		return strconv.FormatInt(cb.From.ID, 10)
	}
	return "unknown"
}
