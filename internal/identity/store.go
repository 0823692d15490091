package identity

import "context"

// Store persists identity records. Create must be conditional: when a record
// with the same key already exists the write is skipped and
// sentinel.ErrConflict returned, so the first registration is the only one
// that ever hits storage.
type Store interface {
	Create(ctx context.Context, record Record) error
	FindByKey(ctx context.Context, key string) (Record, error)
}
