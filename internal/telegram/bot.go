package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/mmynk/pricebook/internal/dialog"
	"github.com/mmynk/pricebook/internal/metrics"
)

// ErrMalformedUpdate is returned for updates carrying neither a usable message nor a callback query.
var ErrMalformedUpdate = errors.New("malformed update")

// Inbound is one update reduced to what the dialog needs.
type Inbound struct {
	UpdateID   int64
	UserID     string
	ChatID     int64
	CallbackID string
	Input      dialog.Input
}

// ParseUpdate converts an update into an Inbound turn. The end-user id is the
// sender's Telegram id in decimal.
func ParseUpdate(u Update) (Inbound, error) {
	switch {
	case u.CallbackQuery != nil:
		q := u.CallbackQuery
		if q.From == nil || q.Message == nil || q.Message.Chat == nil || strings.TrimSpace(q.Data) == "" {
			return Inbound{}, ErrMalformedUpdate
		}
		return Inbound{
			UpdateID:   u.UpdateID,
			UserID:     strconv.FormatInt(q.From.ID, 10),
			ChatID:     q.Message.Chat.ID,
			CallbackID: q.ID,
			Input:      dialog.Input{Action: q.Data},
		}, nil
	case u.Message != nil:
		msg := u.Message
		if msg.From == nil || msg.Chat == nil {
			return Inbound{}, ErrMalformedUpdate
		}
		return Inbound{
			UpdateID: u.UpdateID,
			UserID:   strconv.FormatInt(msg.From.ID, 10),
			ChatID:   msg.Chat.ID,
			Input:    dialog.Input{Text: msg.Text},
		}, nil
	default:
		return Inbound{}, ErrMalformedUpdate
	}
}

// TurnHandler runs one dialog turn. Implemented by *dialog.Machine.
type TurnHandler interface {
	HandleTurn(ctx context.Context, userID string, in dialog.Input) dialog.Result
}

// Sender is the outbound half of the Bot API. Implemented by *Client.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, markup any) error
	AnswerCallbackQuery(ctx context.Context, callbackID, text string) error
}

// Bot runs turns and delivers their replies to Telegram.
type Bot struct {
	sender  Sender
	turns   TurnHandler
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewBot(sender Sender, turns TurnHandler, m *metrics.Metrics, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{sender: sender, turns: turns, metrics: m, logger: logger}
}

// Handle runs the turn and sends every reply in order. It stops at the first
// send failure.
func (b *Bot) Handle(ctx context.Context, in Inbound) error {
	start := time.Now()
	res := b.turns.HandleTurn(ctx, in.UserID, in.Input)
	b.metrics.ObserveTurn("telegram", res.Outcome.String(), time.Since(start))

	if in.CallbackID != "" {
		if err := b.sender.AnswerCallbackQuery(ctx, in.CallbackID, ""); err != nil {
			b.logger.Warn("answerCallbackQuery failed", "user_id", in.UserID, "error", err)
		}
	}

	for _, r := range res.Replies {
		if err := b.sender.SendMessage(ctx, in.ChatID, r.Text, Markup(r)); err != nil {
			b.logger.Error("sendMessage failed",
				"user_id", in.UserID,
				"chat_id", in.ChatID,
				"update_id", in.UpdateID,
				"error", err,
			)
			return err
		}
	}
	return nil
}

// Markup renders the reply's buttons. Inline actions take precedence over the
// reply keyboard since a message carries one markup.
func Markup(r dialog.Reply) any {
	if len(r.Actions) > 0 {
		row := make([]InlineKeyboardButton, len(r.Actions))
		for i, a := range r.Actions {
			row[i] = InlineKeyboardButton{Text: a.Label, CallbackData: a.Data}
		}
		return InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{row}}
	}

	rows := r.Keyboard.Rows()
	if rows == nil {
		return nil
	}
	kb := make([][]KeyboardButton, len(rows))
	for i, labels := range rows {
		kb[i] = make([]KeyboardButton, len(labels))
		for j, label := range labels {
			kb[i][j] = KeyboardButton{Text: label}
		}
	}
	return ReplyKeyboardMarkup{Keyboard: kb, ResizeKeyboard: true}
}
