// Package tanklock serializes reconciliation per tank.
package tanklock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
)

var ErrNotObtained = errors.New("tank_lock_not_obtained")

// Locker hands out an exclusive hold on one tank.
type Locker interface {
	Lock(ctx context.Context, tankID snowflake.ID) (release func(), err error)
}

// Local is an in-process keyed lock. Waiting honours ctx cancellation.
type Local struct {
	mu    sync.Mutex
	locks map[snowflake.ID]*entry
}

type entry struct {
	sem  chan struct{}
	refs int
}

func NewLocal() *Local {
	return &Local{locks: make(map[snowflake.ID]*entry)}
}

func (l *Local) Lock(ctx context.Context, tankID snowflake.ID) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	e, ok := l.locks[tankID]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		l.locks[tankID] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		l.unref(tankID, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			l.unref(tankID, e)
		})
	}, nil
}

func (l *Local) unref(tankID snowflake.ID, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, tankID)
	}
}

// Redis holds tank locks in redis so several replicas serialize on the
// same tank.
type Redis struct {
	client *redislock.Client
	ttl    time.Duration
	retry  redislock.RetryStrategy
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Redis{
		client: redislock.New(client),
		ttl:    ttl,
		retry:  redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), int(ttl/(100*time.Millisecond))),
	}
}

func (r *Redis) Lock(ctx context.Context, tankID snowflake.ID) (func(), error) {
	lock, err := r.client.Obtain(ctx, Key(tankID), r.ttl, &redislock.Options{RetryStrategy: r.retry})
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, ErrNotObtained
		}
		return nil, fmt.Errorf("obtain tank lock: %w", err)
	}
	return func() {
		_ = lock.Release(context.WithoutCancel(ctx))
	}, nil
}

// Key is the redis key guarding a tank.
func Key(tankID snowflake.ID) string {
	return fmt.Sprintf("lock:tank:%s", tankID.String())
}
