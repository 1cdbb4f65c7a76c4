// Package dialog implements the per-user conversation that drives every
// multi-step interaction: adding, editing, deleting and searching products,
// and sharing a group.
//
// A Machine interprets one turn at a time. Turns of the same user must be
// delivered sequentially; turns of different users may run concurrently.
package dialog

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/mmynk/pricebook/internal/identity"
	"github.com/mmynk/pricebook/internal/storage"
)

const (
	listLimit   = 20
	searchLimit = 10
	selectLimit = 10
)

const msgTryAgain = "⚠️ Something went wrong. Please try again later."

// Result is the outcome of one turn.
type Result struct {
	Replies []Reply
	State   State
	Outcome Outcome
}

// Machine is the dialog state machine.
type Machine struct {
	store    storage.Store
	resolver *identity.Resolver
	sessions *Sessions
	logger   *slog.Logger
	now      func() time.Time
}

// NewMachine wires a Machine to its collaborators. A nil logger uses slog.Default().
func NewMachine(store storage.Store, resolver *identity.Resolver, sessions *Sessions, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	if sessions == nil {
		sessions = NewSessions()
	}
	return &Machine{
		store:    store,
		resolver: resolver,
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
	}
}

// turn carries the working state of one HandleTurn call.
type turn struct {
	ctx     context.Context
	userID  string
	groupID string
	text    string
	action  string
	command Command
	session Session
	result  Result
}

func (t *turn) reply(text string, kb Keyboard, actions ...Action) {
	t.result.Replies = append(t.result.Replies, Reply{Text: text, Keyboard: kb, Actions: actions})
}

// rest returns the session to MainMenu, discarding staged data.
func (t *turn) rest() {
	t.session = Session{State: MainMenu}
}

func (t *turn) moveTo(s State) {
	t.session.State = s
}

// HandleTurn interprets one inbound turn for userID and returns the replies
// and the state the session was left in. It never returns an error: failures
// are reported to the user and on Result.Outcome. Turns of one user run one
// at a time in arrival order at the lock.
func (m *Machine) HandleTurn(ctx context.Context, userID string, in Input) (res Result) {
	release, err := m.sessions.lock(ctx, userID)
	if err != nil {
		m.logger.Warn("Turn abandoned waiting for the previous one", "user_id", userID, "error", err)
		return Result{
			Replies: []Reply{{Text: msgTryAgain, Keyboard: KeyboardMain}},
			State:   m.sessions.Get(userID).State,
			Outcome: OutcomeFailure,
		}
	}
	defer release()

	t := &turn{
		ctx:     ctx,
		userID:  userID,
		text:    strings.TrimSpace(in.Text),
		action:  strings.TrimSpace(in.Action),
		session: m.sessions.Get(userID),
	}
	from := t.session.State

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Turn panicked",
				"user_id", userID,
				"state", from.String(),
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			t.result = Result{}
			m.fail(t)
		}
		m.sessions.Put(userID, t.session)
		t.result.State = t.session.State
		res = t.result
	}()

	// The group is resolved on every turn so a join takes effect immediately
	// and every mutation is checked against the caller's current group.
	groupID, err := m.resolver.ResolveGroup(ctx, userID)
	if err != nil {
		m.logger.Error("Resolve group failed", "user_id", userID, "error", err)
		m.fail(t)
		return
	}
	t.groupID = groupID

	kind := m.classify(t)
	handler, ok := transitions[from][kind]
	if !ok {
		// Unknown stored state; start over.
		t.rest()
		handler = transitions[MainMenu][kind]
	}

	if err := handler(m, t); err != nil {
		m.logger.Error("Turn failed",
			"user_id", userID,
			"group_id", groupID,
			"state", from.String(),
			"error", err,
		)
		t.result = Result{}
		m.fail(t)
		return
	}

	m.logger.Debug("Turn handled",
		"user_id", userID,
		"from", from.String(),
		"to", t.session.State.String(),
		"outcome", t.result.Outcome.String(),
	)
	return
}

func (m *Machine) fail(t *turn) {
	t.rest()
	t.result.Outcome = OutcomeFailure
	t.reply(msgTryAgain, KeyboardMain)
}

func (m *Machine) classify(t *turn) inputKind {
	if t.action != "" {
		if cmd, ok := strings.CutPrefix(t.action, actionMenu); ok {
			t.command = Command(cmd)
			return kindMenu
		}
		return kindRecordAction
	}
	if isCancel(t.text) {
		return kindCancel
	}
	if cmd, ok := lookupCommand(t.text); ok {
		t.command = cmd
		return kindMenu
	}
	return kindText
}
