package event

import (
	"context"
	"time"
)

// Store is the durable event archive.
type Store interface {
	Append(ctx context.Context, e Event) error
	List(ctx context.Context, since time.Time) ([]Event, error)
}
