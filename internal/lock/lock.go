// Package lock serializes work per key (one key per catalog item).
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// Locker acquires a mutually exclusive section for a key. The returned
// function releases it and is safe to call once.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// Keyed is an in-process Locker holding one mutex per key.
type Keyed struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyed creates an empty in-process locker.
func NewKeyed() *Keyed {
	return &Keyed{locks: map[string]*sync.Mutex{}}
}

func (k *Keyed) Lock(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	k.mu.Lock()
	m := k.locks[key]
	if m == nil {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	var once sync.Once
	return func() { once.Do(m.Unlock) }, nil
}

// Redis is a Locker backed by redislock, for several processes sharing one
// PostgreSQL ledger.
type Redis struct {
	client *redislock.Client
	prefix string
	ttl    time.Duration
	retry  redislock.RetryStrategy
}

// NewRedis creates a Redis-backed locker. Locks expire after ttl if the
// holder dies.
func NewRedis(rdb *redis.Client, prefix string, ttl time.Duration) *Redis {
	return &Redis{
		client: redislock.New(rdb),
		prefix: prefix,
		ttl:    ttl,
		retry:  redislock.LinearBackoff(50 * time.Millisecond),
	}
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	name := fmt.Sprintf("%s:%s", r.prefix, key)
	l, err := r.client.Obtain(ctx, name, r.ttl, &redislock.Options{RetryStrategy: r.retry})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("could not acquire lock %s", name)
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", name, err)
	}
	var once sync.Once
	return func() {
		once.Do(func() { _ = l.Release(context.Background()) })
	}, nil
}
