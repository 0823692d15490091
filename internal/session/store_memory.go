package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"playpass/pkg/sentinel"
)

// InMemoryStore keeps the initial implementation lightweight and testable.
// One mutex guards both maps so the active-session check and the create are
// a single atomic step.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	// active maps identity key -> session id while a session is open.
	active map[string]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]Session),
		active:   make(map[string]string),
	}
}

func (s *InMemoryStore) Create(_ context.Context, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.active[sess.IdentityKey]; ok {
		return sentinel.ErrConflict
	}
	s.sessions[sess.ID] = sess
	s.active[sess.IdentityKey] = sess.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}
	return Session{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindActiveByIdentity(_ context.Context, identityKey string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.active[identityKey]; ok {
		return s.sessions[id], nil
	}
	return Session{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) Close(_ context.Context, id string, endedAt time.Time, minutes int, amount int64) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, sentinel.ErrNotFound
	}
	if !sess.Active {
		return sess, sentinel.ErrInvalidState
	}
	sess.EndedAt = &endedAt
	sess.DurationMinutes = &minutes
	sess.AmountDue = &amount
	sess.Active = false
	s.sessions[id] = sess
	delete(s.active, sess.IdentityKey)
	return sess, nil
}

func (s *InMemoryStore) MarkPaid(_ context.Context, id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, sentinel.ErrNotFound
	}
	if sess.Active {
		return sess, sentinel.ErrInvalidState
	}
	if sess.Paid {
		return sess, sentinel.ErrAlreadyUsed
	}
	sess.Paid = true
	s.sessions[id] = sess
	return sess, nil
}

func (s *InMemoryStore) ListActive(_ context.Context) ([]Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Session, 0, len(s.active))
	for _, id := range s.active {
		out = append(out, s.sessions[id])
	}
	sortByStart(out)
	return out, nil
}

func (s *InMemoryStore) ListAll(_ context.Context, since time.Time) ([]Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if since.IsZero() || !sess.StartedAt.Before(since) {
			out = append(out, sess)
		}
	}
	sortByStart(out)
	return out, nil
}

func sortByStart(sessions []Session) {
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].StartedAt.Equal(sessions[j].StartedAt) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].StartedAt.Before(sessions[j].StartedAt)
	})
}
