package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"playpass/pkg/sentinel"
)

var storeOpDurationMs = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "playpass_session_store_op_duration_ms",
	Help:    "Latency of Redis session store operations in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50},
}, []string{"op"})

const (
	sessionKeyPrefix  = "session:"
	activeClaimPrefix = "session:active:"
	activeIDsKey      = "session:active_ids"
	byStartKey        = "session:by_start"

	// txRetries bounds optimistic WATCH retries. The service already
	// serializes per identity in-process; this only covers races across
	// instances.
	txRetries = 3
)

// RedisStore persists sessions as JSON values with an active-claim key per
// identity. Create and close both run under WATCH: two racing check-ins for
// the same identity cannot both succeed, the active flag flips exactly once,
// and the claim, record, and indexes commit in a single EXEC so a crash can
// never strand a claim without its session.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func observe(op string, start time.Time) {
	storeOpDurationMs.WithLabelValues(op).Observe(float64(time.Since(start).Microseconds()) / 1000.0)
}

func (s *RedisStore) Create(ctx context.Context, sess Session) error {
	defer observe("create", time.Now())

	claimKey := activeClaimPrefix + sess.IdentityKey
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", sess.ID, err)
	}

	txn := func(tx *redis.Tx) error {
		_, err := tx.Get(ctx, claimKey).Result()
		if err == nil {
			return sentinel.ErrConflict
		}
		if !errors.Is(err, redis.Nil) {
			return fmt.Errorf("check active claim for %s: %w", sess.IdentityKey, err)
		}

		// Claim, record, and indexes land in one EXEC. The watched claim
		// key aborts the transaction when a racing check-in takes it first;
		// the retry then observes the claim and reports the conflict.
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, claimKey, sess.ID, 0)
			pipe.Set(ctx, sessionKeyPrefix+sess.ID, payload, 0)
			pipe.SAdd(ctx, activeIDsKey, sess.ID)
			pipe.ZAdd(ctx, byStartKey, redis.Z{Score: float64(sess.StartedAt.UnixMilli()), Member: sess.ID})
			return nil
		})
		return err
	}

	return s.watch(ctx, txn, claimKey)
}

func (s *RedisStore) FindByID(ctx context.Context, id string) (Session, error) {
	defer observe("find", time.Now())
	return s.getSession(ctx, id)
}

func (s *RedisStore) FindActiveByIdentity(ctx context.Context, identityKey string) (Session, error) {
	defer observe("find_active", time.Now())

	id, err := s.client.Get(ctx, activeClaimPrefix+identityKey).Result()
	if errors.Is(err, redis.Nil) {
		return Session{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("find active session for %s: %w", identityKey, err)
	}
	return s.getSession(ctx, id)
}

func (s *RedisStore) Close(ctx context.Context, id string, endedAt time.Time, minutes int, amount int64) (Session, error) {
	defer observe("close", time.Now())

	var result Session
	key := sessionKeyPrefix + id

	txn := func(tx *redis.Tx) error {
		sess, err := s.decodeSession(tx.Get(ctx, key))
		if err != nil {
			return err
		}
		if !sess.Active {
			result = sess
			return sentinel.ErrInvalidState
		}

		sess.EndedAt = &endedAt
		sess.DurationMinutes = &minutes
		sess.AmountDue = &amount
		sess.Active = false

		payload, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("marshal session %s: %w", id, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			pipe.Del(ctx, activeClaimPrefix+sess.IdentityKey)
			pipe.SRem(ctx, activeIDsKey, id)
			return nil
		})
		if err != nil {
			return err
		}
		result = sess
		return nil
	}

	if err := s.watch(ctx, txn, key); err != nil {
		return result, err
	}
	return result, nil
}

func (s *RedisStore) MarkPaid(ctx context.Context, id string) (Session, error) {
	defer observe("mark_paid", time.Now())

	var result Session
	key := sessionKeyPrefix + id

	txn := func(tx *redis.Tx) error {
		sess, err := s.decodeSession(tx.Get(ctx, key))
		if err != nil {
			return err
		}
		if sess.Active {
			result = sess
			return sentinel.ErrInvalidState
		}
		if sess.Paid {
			result = sess
			return sentinel.ErrAlreadyUsed
		}

		sess.Paid = true
		payload, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("marshal session %s: %w", id, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		if err != nil {
			return err
		}
		result = sess
		return nil
	}

	if err := s.watch(ctx, txn, key); err != nil {
		return result, err
	}
	return result, nil
}

func (s *RedisStore) ListActive(ctx context.Context) ([]Session, error) {
	defer observe("list_active", time.Now())

	ids, err := s.client.SMembers(ctx, activeIDsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list active session ids: %w", err)
	}
	sessions, err := s.getSessions(ctx, ids)
	if err != nil {
		return nil, err
	}
	sortByStart(sessions)
	return sessions, nil
}

func (s *RedisStore) ListAll(ctx context.Context, since time.Time) ([]Session, error) {
	defer observe("list_all", time.Now())

	min := "-inf"
	if !since.IsZero() {
		min = fmt.Sprintf("%d", since.UnixMilli())
	}
	ids, err := s.client.ZRangeByScore(ctx, byStartKey, &redis.ZRangeBy{Min: min, Max: "+inf"}).Result()
	if err != nil {
		return nil, fmt.Errorf("list session ids: %w", err)
	}
	sessions, err := s.getSessions(ctx, ids)
	if err != nil {
		return nil, err
	}
	sortByStart(sessions)
	return sessions, nil
}

func (s *RedisStore) watch(ctx context.Context, txn func(*redis.Tx) error, key string) error {
	var err error
	for attempt := 0; attempt < txRetries; attempt++ {
		err = s.client.Watch(ctx, txn, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("session transaction on %s: %w", key, sentinel.ErrUnavailable)
}

func (s *RedisStore) getSession(ctx context.Context, id string) (Session, error) {
	return s.decodeSession(s.client.Get(ctx, sessionKeyPrefix+id))
}

func (s *RedisStore) decodeSession(cmd *redis.StringCmd) (Session, error) {
	payload, err := cmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	return sess, nil
}

func (s *RedisStore) getSessions(ctx context.Context, ids []string) ([]Session, error) {
	if len(ids) == 0 {
		return []Session{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = sessionKeyPrefix + id
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch sessions: %w", err)
	}
	sessions := make([]Session, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue // id indexed but record missing; skip rather than fail the listing
		}
		var sess Session
		if err := json.Unmarshal([]byte(raw), &sess); err != nil {
			return nil, fmt.Errorf("decode session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}
