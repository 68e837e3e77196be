package redisstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/veritas/core/session"
)

const keyPrefix = "veritas:session:"

// Open connects to the redis server at url (redis://[:password@]host:port/db) and pings it.
func Open(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parsing redis url")
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err = rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "redis ping")
	}
	return rdb, nil
}

// Store keeps each namespace in one hash. With a TTL, idle hashes expire on their own.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func (st *Store) For(namespace string) session.Storage {
	return &storage{st: st, key: keyPrefix + namespace}
}

func (st *Store) Close() error {
	return st.rdb.Close()
}

type storage struct {
	st  *Store
	key string
}

func (s *storage) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.st.rdb.HGet(ctx, s.key, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "reading %s", key)
	}
	return value, true, nil
}

// Replace writes the items in a MULTI/EXEC block.
func (s *storage) Replace(ctx context.Context, items map[string]string) error {
	if len(items) == 0 {
		return nil
	}
	values := make(map[string]interface{}, len(items))
	for k, v := range items {
		values[k] = v
	}
	_, err := s.st.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.key, values)
		if s.st.ttl > 0 {
			pipe.Expire(ctx, s.key, s.st.ttl)
		}
		return nil
	})
	return errors.Wrap(err, "writing session")
}

func (s *storage) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return errors.Wrap(s.st.rdb.HDel(ctx, s.key, keys...).Err(), "removing keys")
}
