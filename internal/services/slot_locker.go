package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SlotLocker serializes batch commits for one user. Lock blocks until the
// lock is held or ctx is done, and returns the function that releases it.
type SlotLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// LocalSlotLocker is a per-key mutex for single-instance deployments
type LocalSlotLocker struct {
	mu    sync.Mutex
	slots map[string]*localSlot
}

type localSlot struct {
	ch   chan struct{}
	refs int
}

// NewLocalSlotLocker creates an in-process locker
func NewLocalSlotLocker() *LocalSlotLocker {
	return &LocalSlotLocker{slots: make(map[string]*localSlot)}
}

// Lock implements SlotLocker
func (l *LocalSlotLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = &localSlot{ch: make(chan struct{}, 1)}
		l.slots[key] = slot
	}
	slot.refs++
	l.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, slot, false)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(key, slot, true) })
	}, nil
}

func (l *LocalSlotLocker) release(key string, slot *localSlot, held bool) {
	if held {
		<-slot.ch
	}
	l.mu.Lock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, key)
	}
	l.mu.Unlock()
}

// RedisSlotLocker is a SlotLocker shared by every instance pointed at the same Redis
type RedisSlotLocker struct {
	redis      *RedisService
	ttl        time.Duration
	retryDelay time.Duration
}

// NewRedisSlotLocker creates a distributed locker. ttl bounds how long a crashed
// holder can block the slot.
func NewRedisSlotLocker(redis *RedisService, ttl time.Duration) *RedisSlotLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisSlotLocker{redis: redis, ttl: ttl, retryDelay: 50 * time.Millisecond}
}

// Lock implements SlotLocker
func (l *RedisSlotLocker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := "strive:quest-lock:" + key
	token := uuid.New().String()

	for {
		acquired, err := l.redis.AcquireLock(ctx, lockKey, token, l.ttl)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire quest lock: %w", err)
		}
		if acquired {
			break
		}
		select {
		case <-time.After(l.retryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if _, err := l.redis.ReleaseLock(releaseCtx, lockKey, token); err != nil {
				log.Printf("⚠️  [QUEST] Failed to release lock %s: %v", lockKey, err)
			}
		})
	}, nil
}
