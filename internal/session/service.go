package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"playpass/internal/identity"
	"playpass/pkg/domainerrors"
	"playpass/pkg/sentinel"
)

// Pricer computes the amount due for an elapsed stay. Satisfied by
// *pricing.Engine.
type Pricer interface {
	Price(minutes int) int64
}

// Identities resolves a scanned key to its registered record. Satisfied by
// *identity.Service.
type Identities interface {
	Lookup(ctx context.Context, key string) (identity.Record, error)
}

// Notifier learns about every committed active-flag change. Satisfied by
// *directory.Directory; callbacks run off the mutation path.
type Notifier interface {
	Broadcast(ctx context.Context)
}

// Recorder receives lifecycle events after commit. Satisfied by
// *event.Recorder.
type Recorder interface {
	SessionStarted(s Session)
	SessionClosed(s Session)
	SessionPaid(s Session)
}

// Service is the lifecycle manager. It serializes Start/End per identity key
// so at most one active session ever exists for a visitor and no close races
// a check-in, and it is the only writer of session records.
type Service struct {
	store      Store
	identities Identities
	pricer     Pricer
	notifier   Notifier
	recorder   Recorder
	clock      func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithNotifier wires the directory broadcast hook.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithRecorder wires the lifecycle event recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func NewService(store Store, identities Identities, pricer Pricer, opts ...Option) *Service {
	s := &Service{
		store:      store,
		identities: identities,
		pricer:     pricer,
		clock:      time.Now,
		locks:      make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lockIdentity serializes lifecycle operations for one identity key.
// Lock entries are never removed; the venue's identity population is small
// and bounded.
func (s *Service) lockIdentity(key string) func() {
	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Start checks a visitor in. Fails with AlreadyActive when an active session
// exists for the identity; the store's conditional create backs the same
// guarantee across processes.
func (s *Service) Start(ctx context.Context, identityKey string) (Session, error) {
	record, err := s.identities.Lookup(ctx, identityKey)
	if err != nil {
		return Session{}, err
	}

	unlock := s.lockIdentity(identityKey)
	defer unlock()

	sess := Session{
		ID:           uuid.NewString(),
		IdentityKey:  identityKey,
		ChildName:    record.DisplayName,
		GuardianName: record.GuardianName,
		StartedAt:    s.clock().UTC(),
		Active:       true,
	}
	if err := s.store.Create(ctx, sess); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return Session{}, domainerrors.New(domainerrors.CodeAlreadyActive, "an active session already exists for this visitor")
		}
		return Session{}, domainerrors.Wrap(domainerrors.CodeStoreUnavailable, "saving session", err)
	}

	s.afterCommit(ctx)
	if s.recorder != nil {
		s.recorder.SessionStarted(sess)
	}
	return sess, nil
}

// Active resolves an identity key to its in-progress session. Kiosks use it
// when a wristband is re-scanned to pull up the running stay instead of
// attempting a second check-in.
func (s *Service) Active(ctx context.Context, identityKey string) (Session, error) {
	sess, err := s.store.FindActiveByIdentity(ctx, identityKey)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Session{}, domainerrors.New(domainerrors.CodeNotFound, "no active session for this visitor")
		}
		return Session{}, domainerrors.Wrap(domainerrors.CodeStoreUnavailable, "finding active session", err)
	}
	return sess, nil
}

// End checks a visitor out. Duration is fixed from a single clock
// observation and never recomputed: a second call returns the stored values
// inside an AlreadyEnded error instead of pricing against a later now.
func (s *Service) End(ctx context.Context, sessionID string) (Receipt, error) {
	sess, err := s.findSession(ctx, sessionID)
	if err != nil {
		return Receipt{}, err
	}

	unlock := s.lockIdentity(sess.IdentityKey)
	defer unlock()

	endedAt := s.clock().UTC()
	minutes := int(endedAt.Sub(sess.StartedAt) / time.Minute)
	amount := s.pricer.Price(minutes)

	closed, err := s.store.Close(ctx, sessionID, endedAt, minutes, amount)
	if err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return storedReceipt(closed), domainerrors.New(domainerrors.CodeAlreadyEnded, "session already ended")
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return Receipt{}, domainerrors.New(domainerrors.CodeNotFound, "session not found")
		}
		return Receipt{}, domainerrors.Wrap(domainerrors.CodeStoreUnavailable, "closing session", err)
	}

	s.afterCommit(ctx)
	if s.recorder != nil {
		s.recorder.SessionClosed(closed)
	}
	return storedReceipt(closed), nil
}

// MarkPaid records the payment confirmation for a closed session. Payment
// processing itself lives outside this core; only the flag toggle is ours.
func (s *Service) MarkPaid(ctx context.Context, sessionID string) error {
	paid, err := s.store.MarkPaid(ctx, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return domainerrors.New(domainerrors.CodeNotFound, "session not found")
		case errors.Is(err, sentinel.ErrInvalidState):
			return domainerrors.New(domainerrors.CodeValidation, "session still active")
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			return domainerrors.New(domainerrors.CodeAlreadyPaid, "session already paid")
		default:
			return domainerrors.Wrap(domainerrors.CodeStoreUnavailable, "marking session paid", err)
		}
	}
	if s.recorder != nil {
		s.recorder.SessionPaid(paid)
	}
	return nil
}

// Preview estimates the charge against the current time without touching the
// record. It uses the same pricing function as End, so a preview and a close
// at the same instant agree. For an ended session it returns the stored
// values.
func (s *Service) Preview(ctx context.Context, sessionID string) (Receipt, error) {
	sess, err := s.findSession(ctx, sessionID)
	if err != nil {
		return Receipt{}, err
	}
	if !sess.Active {
		return storedReceipt(sess), nil
	}
	minutes := int(s.clock().UTC().Sub(sess.StartedAt) / time.Minute)
	return Receipt{
		SessionID:       sess.ID,
		DurationMinutes: minutes,
		Amount:          s.pricer.Price(minutes),
	}, nil
}

func (s *Service) findSession(ctx context.Context, sessionID string) (Session, error) {
	sess, err := s.store.FindByID(ctx, sessionID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Session{}, domainerrors.New(domainerrors.CodeNotFound, "session not found")
	}
	if err != nil {
		return Session{}, domainerrors.Wrap(domainerrors.CodeStoreUnavailable, "looking up session", err)
	}
	return sess, nil
}

func (s *Service) afterCommit(ctx context.Context) {
	if s.notifier != nil {
		s.notifier.Broadcast(ctx)
	}
}

func storedReceipt(sess Session) Receipt {
	r := Receipt{SessionID: sess.ID}
	if sess.DurationMinutes != nil {
		r.DurationMinutes = *sess.DurationMinutes
	}
	if sess.AmountDue != nil {
		r.Amount = *sess.AmountDue
	}
	return r
}
