package identity

import (
	"context"
	"errors"
	"time"

	"playpass/pkg/domainerrors"
	"playpass/pkg/sentinel"
)

// Service handles registration and lookup. It keeps orchestration out of
// handlers and leaves persistence behind the Store interface.
type Service struct {
	store Store
	clock func() time.Time
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

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register derives the key for the attribute tuple and persists a record the
// first time it is seen. Re-submitting identical attributes returns the
// existing record with isNew=false; it never errors on a duplicate.
func (s *Service) Register(ctx context.Context, attrs Attributes) (Record, bool, error) {
	if err := attrs.Validate(); err != nil {
		return Record{}, false, err
	}

	key := DeriveKey(attrs)

	existing, err := s.store.FindByKey(ctx, key)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, sentinel.ErrNotFound):
		return Record{}, false, domainerrors.Wrap(domainerrors.CodeStoreUnavailable, "looking up identity", err)
	}

	record := Record{
		Key:           key,
		DisplayName:   attrs.ChildName,
		GuardianName:  attrs.GuardianName,
		ContactNumber: attrs.ContactNumber,
		RegisteredAt:  s.clock().UTC(),
	}
	if err := s.store.Create(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// A concurrent registration with the same attributes won the
			// write; return what it stored.
			won, ferr := s.store.FindByKey(ctx, key)
			if ferr != nil {
				return Record{}, false, domainerrors.Wrap(domainerrors.CodeStoreUnavailable, "looking up identity", ferr)
			}
			return won, false, nil
		}
		return Record{}, false, domainerrors.Wrap(domainerrors.CodeStoreUnavailable, "saving identity", err)
	}
	return record, true, nil
}

// Lookup resolves a scanned key to its registered record.
func (s *Service) Lookup(ctx context.Context, key string) (Record, error) {
	record, err := s.store.FindByKey(ctx, key)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Record{}, domainerrors.New(domainerrors.CodeNotFound, "identity not registered")
	}
	if err != nil {
		return Record{}, domainerrors.Wrap(domainerrors.CodeStoreUnavailable, "looking up identity", err)
	}
	return record, nil
}
