// Package directory is the queryable, observable view over all sessions.
// The lifecycle manager is the only writer; the directory only reads the
// store and fans committed changes out to subscribers, which is what drives
// the live dashboard's "children playing" table.
package directory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"playpass/internal/session"
	"playpass/pkg/domainerrors"
)

// Stats is the aggregation the admin screen renders.
type Stats struct {
	Sessions     int   `json:"sessions"`
	ActiveNow    int   `json:"activeNow"`
	TotalMinutes int   `json:"totalMinutes"`
	Revenue      int64 `json:"revenue"`
}

// Directory holds the subscriber set and serves active/history queries.
type Directory struct {
	store  session.Store
	logger *slog.Logger

	mu   sync.Mutex
	subs map[int]func([]session.Session)
	next int
}

func New(store session.Store, logger *slog.Logger) *Directory {
	return &Directory{
		store:  store,
		logger: logger,
		subs:   make(map[int]func([]session.Session)),
	}
}

// ListActive returns the sessions currently in progress.
func (d *Directory) ListActive(ctx context.Context) ([]session.Session, error) {
	sessions, err := d.store.ListActive(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(domainerrors.CodeStoreUnavailable, "listing active sessions", err)
	}
	return sessions, nil
}

// ListAll returns the session history from since onward; a zero since means
// everything. Read-only.
func (d *Directory) ListAll(ctx context.Context, since time.Time) ([]session.Session, error) {
	sessions, err := d.store.ListAll(ctx, since)
	if err != nil {
		return nil, domainerrors.Wrap(domainerrors.CodeStoreUnavailable, "listing sessions", err)
	}
	return sessions, nil
}

// Stats aggregates the history from since onward.
func (d *Directory) Stats(ctx context.Context, since time.Time) (Stats, error) {
	sessions, err := d.ListAll(ctx, since)
	if err != nil {
		return Stats{}, err
	}
	var stats Stats
	for _, s := range sessions {
		stats.Sessions++
		if s.Active {
			stats.ActiveNow++
			continue
		}
		if s.DurationMinutes != nil {
			stats.TotalMinutes += *s.DurationMinutes
		}
		if s.AmountDue != nil {
			stats.Revenue += *s.AmountDue
		}
	}
	return stats, nil
}

// Subscribe registers cb to receive the full current active set after every
// committed active-flag change. The returned function cancels the
// subscription. Delivery is eventually consistent and runs off the mutation
// path; no ordering is guaranteed relative to the mutating call's return.
func (d *Directory) Subscribe(cb func([]session.Session)) func() {
	d.mu.Lock()
	id := d.next
	d.next++
	d.subs[id] = cb
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.subs, id)
		d.mu.Unlock()
	}
}

// Broadcast snapshots the active set and delivers it to every subscriber.
// The lifecycle manager calls this after each commit. The snapshot is taken
// once per broadcast so all subscribers see the same set.
func (d *Directory) Broadcast(ctx context.Context) {
	d.mu.Lock()
	targets := make([]func([]session.Session), 0, len(d.subs))
	for _, cb := range d.subs {
		targets = append(targets, cb)
	}
	d.mu.Unlock()

	if len(targets) == 0 {
		return
	}

	// The commit already happened; the snapshot read must not die with the
	// request context, or a check-in whose handler returns first never
	// reaches the dashboard.
	ctx = context.WithoutCancel(ctx)

	go func() {
		active, err := d.store.ListActive(ctx)
		if err != nil {
			if d.logger != nil {
				d.logger.Error("broadcast snapshot failed", "error", err)
			}
			return
		}
		for _, cb := range targets {
			cb(active)
		}
	}()
}
