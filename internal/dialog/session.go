package dialog

import (
	"context"
	"sync"

	"github.com/mmynk/pricebook/internal/models"
)

// Session is the transient per-user dialog state. It lives only for the
// lifetime of the process.
type Session struct {
	State State

	// Draft is the product staged for confirmation.
	Draft *models.Product

	// SelectedID and SelectedName identify the record chosen for edit/delete.
	SelectedID   string
	SelectedName string

	// Candidates are the record ids offered in a disambiguation list, in display order.
	Candidates []string
}

// Sessions is an in-memory session store safe for concurrent use. It also
// hands out per-user turn locks so one user's turns never interleave,
// whichever transport they arrive on.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]Session
	turns    map[string]*turnLock
}

// turnLock is a one-slot semaphore shared by the turns of one user.
type turnLock struct {
	slot chan struct{}
	refs int
}

// NewSessions creates an empty session store.
func NewSessions() *Sessions {
	return &Sessions{
		sessions: make(map[string]Session),
		turns:    make(map[string]*turnLock),
	}
}

// lock waits until no other turn of userID is running. The returned func
// releases the lock; it must be called exactly once.
func (s *Sessions) lock(ctx context.Context, userID string) (func(), error) {
	s.mu.Lock()
	l, ok := s.turns[userID]
	if !ok {
		l = &turnLock{slot: make(chan struct{}, 1)}
		s.turns[userID] = l
	}
	l.refs++
	s.mu.Unlock()

	select {
	case l.slot <- struct{}{}:
		return func() {
			<-l.slot
			s.unref(userID, l)
		}, nil
	case <-ctx.Done():
		s.unref(userID, l)
		return nil, ctx.Err()
	}
}

func (s *Sessions) unref(userID string, l *turnLock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(s.turns, userID)
	}
}

// Get returns the user's session, or a fresh MainMenu session.
func (s *Sessions) Get(userID string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[userID]
}

// Put stores the user's session. Resting sessions are dropped to keep the map small.
func (s *Sessions) Put(userID string, sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess.State == MainMenu {
		delete(s.sessions, userID)
		return
	}
	s.sessions[userID] = sess
}

// Len returns the number of users with an active flow.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
