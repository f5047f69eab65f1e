package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps drafts as JSON strings with a sliding TTL.  Updates use
// WATCH/MULTI so that two requests racing on one draft never lose events.
type RedisStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisStore returns a store using rdb.  A non-positive ttl falls back to
// DefaultTTL.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl, prefix: "layout:session:"}
}

func (r *RedisStore) key(id string) string { return r.prefix + id }

func (r *RedisStore) Create(ctx context.Context, s *Session) error {
	s.Version = 1
	bs, err := json.Marshal(s)
	if err != nil {
		return err
	}
	ok, err := r.rdb.SetNX(ctx, r.key(s.ID), bs, r.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("layout session %s already exists", s.ID)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	return r.load(ctx, r.rdb, id)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *RedisStore) load(ctx context.Context, g getter, id string) (*Session, error) {
	bs, err := g.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(bs, &s); err != nil {
		return nil, fmt.Errorf("decode layout session %s: %w", id, err)
	}
	return &s, nil
}

func (r *RedisStore) Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	key := r.key(id)
	var out *Session
	txf := func(tx *redis.Tx) error {
		s, err := r.load(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}
		s.Version++
		s.UpdatedAt = time.Now().UTC()
		bs, err := json.Marshal(s)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, bs, r.ttl)
			return nil
		})
		if err == nil {
			out = s
		}
		return err
	}
	for i := 0; i < maxRetries; i++ {
		err := r.rdb.Watch(ctx, txf, key)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return nil, err
		}
	}
	return nil, ErrConflict
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, r.key(id)).Err()
}
