package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/pricebook/internal/dialog"
)

func TestParseUpdate(t *testing.T) {
	tests := []struct {
		name    string
		update  Update
		want    Inbound
		wantErr error
	}{
		{
			name: "text message",
			update: Update{UpdateID: 1, Message: &Message{
				Chat: &Chat{ID: 10}, From: &User{ID: 99}, Text: "hello",
			}},
			want: Inbound{UpdateID: 1, UserID: "99", ChatID: 10, Input: dialog.Input{Text: "hello"}},
		},
		{
			name: "callback query",
			update: Update{UpdateID: 2, CallbackQuery: &CallbackQuery{
				ID: "cb1", From: &User{ID: 99}, Message: &Message{Chat: &Chat{ID: 10}}, Data: "delete:abc",
			}},
			want: Inbound{UpdateID: 2, UserID: "99", ChatID: 10, CallbackID: "cb1", Input: dialog.Input{Action: "delete:abc"}},
		},
		{
			name:    "empty update",
			update:  Update{UpdateID: 3},
			wantErr: ErrMalformedUpdate,
		},
		{
			name:    "message without sender",
			update:  Update{UpdateID: 4, Message: &Message{Chat: &Chat{ID: 10}, Text: "x"}},
			wantErr: ErrMalformedUpdate,
		},
		{
			name:    "callback without data",
			update:  Update{UpdateID: 5, CallbackQuery: &CallbackQuery{ID: "cb", From: &User{ID: 1}, Message: &Message{Chat: &Chat{ID: 1}}}},
			wantErr: ErrMalformedUpdate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseUpdate(tt.update)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type stubTurns struct {
	result dialog.Result
	got    []dialog.Input
}

func (s *stubTurns) HandleTurn(_ context.Context, _ string, in dialog.Input) dialog.Result {
	s.got = append(s.got, in)
	return s.result
}

type sentMessage struct {
	chatID int64
	text   string
	markup any
}

type stubSender struct {
	mu       sync.Mutex
	sent     []sentMessage
	answered []string
	failSend bool
}

func (s *stubSender) SendMessage(_ context.Context, chatID int64, text string, markup any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSend {
		return errors.New("network down")
	}
	s.sent = append(s.sent, sentMessage{chatID: chatID, text: text, markup: markup})
	return nil
}

func (s *stubSender) AnswerCallbackQuery(_ context.Context, id, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answered = append(s.answered, id)
	return nil
}

func TestBotHandleSendsRepliesInOrder(t *testing.T) {
	turns := &stubTurns{result: dialog.Result{Replies: []dialog.Reply{
		{Text: "first", Keyboard: dialog.KeyboardMain},
		{Text: "second", Actions: []dialog.Action{dialog.EditAction("p1"), dialog.DeleteAction("p1")}},
		{Text: "third"},
	}}}
	sender := &stubSender{}
	bot := NewBot(sender, turns, nil, nil)

	err := bot.Handle(context.Background(), Inbound{UserID: "7", ChatID: 70, CallbackID: "cb", Input: dialog.Input{Action: "edit:p1"}})
	require.NoError(t, err)

	require.Len(t, turns.got, 1)
	assert.Equal(t, "edit:p1", turns.got[0].Action)
	assert.Equal(t, []string{"cb"}, sender.answered)

	require.Len(t, sender.sent, 3)
	assert.Equal(t, "first", sender.sent[0].text)
	kb, ok := sender.sent[0].markup.(ReplyKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, dialog.LabelAdd, kb.Keyboard[0][0].Text)

	inline, ok := sender.sent[1].markup.(InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, "edit:p1", inline.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "delete:p1", inline.InlineKeyboard[0][1].CallbackData)

	assert.Nil(t, sender.sent[2].markup)
}

func TestBotHandleReportsSendFailure(t *testing.T) {
	turns := &stubTurns{result: dialog.Result{Replies: []dialog.Reply{{Text: "x"}}}}
	bot := NewBot(&stubSender{failSend: true}, turns, nil, nil)

	err := bot.Handle(context.Background(), Inbound{UserID: "7", ChatID: 70})
	assert.Error(t, err)
}
