package directory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playpass/internal/session"
)

func seedStore(t *testing.T) *session.InMemoryStore {
	t.Helper()
	ctx := context.Background()
	store := session.NewInMemoryStore()
	base := time.Date(2026, 2, 7, 10, 0, 0, 0, time.UTC)

	sessions := []session.Session{
		{ID: "s1", IdentityKey: "k1", ChildName: "Sofia", StartedAt: base, Active: true},
		{ID: "s2", IdentityKey: "k2", ChildName: "Mateo", StartedAt: base.Add(time.Hour), Active: true},
		{ID: "s3", IdentityKey: "k3", ChildName: "Valentina", StartedAt: base.Add(2 * time.Hour), Active: true},
	}
	for _, s := range sessions {
		require.NoError(t, store.Create(ctx, s))
	}
	// s1 closed and paid for: 45 minutes, 50000.
	_, err := store.Close(ctx, "s1", base.Add(45*time.Minute), 45, 50000)
	require.NoError(t, err)
	_, err = store.MarkPaid(ctx, "s1")
	require.NoError(t, err)
	return store
}

func TestListActiveReturnsOnlyActive(t *testing.T) {
	ctx := context.Background()
	dir := New(seedStore(t), nil)

	active, err := dir.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "s2", active[0].ID)
	assert.Equal(t, "s3", active[1].ID)
}

func TestListAllSinceFilters(t *testing.T) {
	ctx := context.Background()
	dir := New(seedStore(t), nil)

	all, err := dir.ListAll(ctx, time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	since := time.Date(2026, 2, 7, 11, 0, 0, 0, time.UTC)
	recent, err := dir.ListAll(ctx, since)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "s2", recent[0].ID)
}

func TestStatsAggregation(t *testing.T) {
	ctx := context.Background()
	dir := New(seedStore(t), nil)

	stats, err := dir.Stats(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, Stats{
		Sessions:     3,
		ActiveNow:    2,
		TotalMinutes: 45,
		Revenue:      50000,
	}, stats)
}

func TestSubscribeReceivesActiveSnapshot(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t)
	dir := New(store, nil)

	snapshots := make(chan []session.Session, 1)
	cancel := dir.Subscribe(func(active []session.Session) {
		snapshots <- active
	})
	defer cancel()

	dir.Broadcast(ctx)

	select {
	case active := <-snapshots:
		require.Len(t, active, 2)
		assert.Equal(t, "s2", active[0].ID)
		assert.Equal(t, "s3", active[1].ID)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot delivered")
	}
}

func TestUnsubscribedCallbackNotInvoked(t *testing.T) {
	ctx := context.Background()
	dir := New(seedStore(t), nil)

	delivered := make(chan []session.Session, 4)
	cancel := dir.Subscribe(func(active []session.Session) {
		delivered <- active
	})
	cancel()

	dir.Broadcast(ctx)

	select {
	case <-delivered:
		t.Fatal("cancelled subscriber received a snapshot")
	case <-time.After(100 * time.Millisecond):
	}
}

// ctxBoundStore refuses reads once the context is done, the way the Redis
// store does.
type ctxBoundStore struct {
	session.Store
}

func (s ctxBoundStore) ListActive(ctx context.Context) ([]session.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Store.ListActive(ctx)
}

func TestBroadcastOutlivesCallerContext(t *testing.T) {
	store := seedStore(t)
	dir := New(ctxBoundStore{Store: store}, nil)

	snapshots := make(chan []session.Session, 1)
	cancelSub := dir.Subscribe(func(active []session.Session) {
		snapshots <- active
	})
	defer cancelSub()

	// A kiosk request context is cancelled as soon as the handler returns;
	// the committed change must still reach the dashboard.
	reqCtx, cancel := context.WithCancel(context.Background())
	cancel()
	dir.Broadcast(reqCtx)

	select {
	case active := <-snapshots:
		assert.Len(t, active, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot delivered after caller context was cancelled")
	}
}

func TestSnapshotIncludesEveryCurrentlyActiveRecord(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t)
	dir := New(store, nil)

	snapshots := make(chan []session.Session, 4)
	cancel := dir.Subscribe(func(active []session.Session) {
		snapshots <- active
	})
	defer cancel()

	// Close another session, then broadcast: the delivered set must reflect
	// the commit (no stale removals, no missed additions).
	_, err := store.Close(ctx, "s2", time.Now().UTC(), 60, 50000)
	require.NoError(t, err)
	dir.Broadcast(ctx)

	select {
	case active := <-snapshots:
		require.Len(t, active, 1)
		assert.Equal(t, "s3", active[0].ID)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot delivered")
	}
}
