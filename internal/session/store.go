package session

import (
	"context"
	"time"
)

// Store persists session records. Implementations must make the two lifecycle
// writes conditional:
//
//   - Create fails with sentinel.ErrConflict when an active session already
//     exists for the identity, and the check plus the write behave as one
//     atomic operation (racing check-ins must not both succeed).
//   - Close flips Active true->false exactly once; a second attempt fails
//     with sentinel.ErrInvalidState and leaves the stored values untouched.
//
// No partial close may ever be visible: EndedAt, DurationMinutes, AmountDue
// and Active commit together or not at all.
type Store interface {
	Create(ctx context.Context, s Session) error
	FindByID(ctx context.Context, id string) (Session, error)
	FindActiveByIdentity(ctx context.Context, identityKey string) (Session, error)

	// Close commits the checkout. endedAt, minutes and amount were computed
	// by the caller against a single observation of the clock.
	Close(ctx context.Context, id string, endedAt time.Time, minutes int, amount int64) (Session, error)

	// MarkPaid sets the payment flag on a closed session. Fails with
	// sentinel.ErrInvalidState while the session is active and
	// sentinel.ErrAlreadyUsed when already paid.
	MarkPaid(ctx context.Context, id string) (Session, error)

	ListActive(ctx context.Context) ([]Session, error)

	// ListAll returns every session started at or after since; a zero since
	// returns the full history.
	ListAll(ctx context.Context, since time.Time) ([]Session, error)
}
