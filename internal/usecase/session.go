package usecase

import (
	"context"
	"errors"
	"sync"

	"AutoPublisher/internal/domain"
)

// Session is the conversation of one chat: its state and the item it owns.
// Holders of a Session must lock it for the whole step.
type Session struct {
	mu     sync.Mutex
	chatID int64
	state  State
	item   *domain.InboundItem
	banner *domain.MainpageImage
}

func (s *Session) ChatID() int64 { return s.chatID }

func (s *Session) State() State { return s.state }

// fire applies e to the session state.
func (s *Session) fire(e Event) error {
	next, err := Transition(s.state, e)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

// liveItem returns the item the news and schedule steps work on.
func (s *Session) liveItem() (*domain.InboundItem, error) {
	if s.item == nil || !s.item.Live() {
		return nil, domain.ErrItemCleared
	}
	return s.item, nil
}

// commit finishes the item without touching its source mail.
func (s *Session) commit() error {
	item := s.item
	s.item = nil
	if item == nil {
		return domain.ErrItemCleared
	}
	return item.Commit()
}

// release rolls back whatever is still live and forgets it.
func (s *Session) release(ctx context.Context, marker domain.UnreadMarker) error {
	var errs []error
	if s.item != nil && s.item.Live() {
		errs = append(errs, s.item.Rollback(ctx, marker))
	}
	if s.banner != nil && s.banner.Live() {
		errs = append(errs, s.banner.Rollback())
	}
	s.item, s.banner = nil, nil
	return errors.Join(errs...)
}

// SessionStore keeps one Session per chat.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: map[int64]*Session{}}
}

// Get returns the session of chatID, creating an idle one on first use.
func (s *SessionStore) Get(chatID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[chatID]
	if !ok {
		sess = &Session{chatID: chatID, state: StateIdle}
		s.sessions[chatID] = sess
	}
	return sess
}

// Close rolls back every live item, used on shutdown.
func (s *SessionStore) Close(ctx context.Context, marker domain.UnreadMarker) error {
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	var errs []error
	for _, sess := range sessions {
		sess.mu.Lock()
		errs = append(errs, sess.release(ctx, marker))
		sess.state = StateIdle
		sess.mu.Unlock()
	}
	return errors.Join(errs...)
}
