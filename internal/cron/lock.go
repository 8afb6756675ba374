package cron

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/canyonbook-backend/pkg/instance"
	redisclient "github.com/angelmondragon/canyonbook-backend/pkg/redis"
	"github.com/google/uuid"
)

const defaultLockTTL = 10 * time.Minute

// Lock keeps a cycle from running on two cron workers at once.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// RedisLock is a lease in redis. The owner token is fixed per lock value, so a
// stale Release from another replica never drops a lease it does not hold.
type RedisLock struct {
	store redisclient.Locker
	name  string
	ttl   time.Duration
	token string

	mu   sync.Mutex
	held bool
}

func NewRedisLock(store redisclient.Locker, name string, ttl time.Duration) (*RedisLock, error) {
	switch {
	case store == nil:
		return nil, errors.New("redis client required for lock")
	case name == "":
		return nil, errors.New("lock name is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{
		store: store,
		name:  name,
		ttl:   ttl,
		token: instance.GetID() + "/" + uuid.NewString(),
	}, nil
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return true, nil
	}
	won, err := l.store.AcquireLock(ctx, l.name, l.token, l.ttl)
	if err != nil {
		return false, fmt.Errorf("cron lock %q: %w", l.name, err)
	}
	l.held = won
	return won, nil
}

// Release is a no-op when the lease was never won.
func (l *RedisLock) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.held {
		return nil
	}
	if err := l.store.ReleaseLock(ctx, l.name, l.token); err != nil {
		return fmt.Errorf("cron lock %q release: %w", l.name, err)
	}
	l.held = false
	return nil
}
