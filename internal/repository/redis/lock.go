package redis

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

var ErrLockHeld = errors.New("lock already held")

// Locks hands out short-lived advisory locks. The sale-note conversion
// takes one per invoice so its non-transactional step chain cannot run
// twice concurrently.
type Locks struct {
	client *redislock.Client
}

func NewLocks(rdb *redis.Client) *Locks {
	return &Locks{client: redislock.New(rdb)}
}

type Lock struct {
	lock *redislock.Lock
}

func (l *Locks) Obtain(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	lk, err := l.client.Obtain(ctx, key, ttl, nil)
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, ErrLockHeld
		}
		return nil, err
	}

	return &Lock{lock: lk}, nil
}

func (l *Lock) Release(ctx context.Context) error {
	err := l.lock.Release(ctx)
	if err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
		return err
	}
	return nil
}
