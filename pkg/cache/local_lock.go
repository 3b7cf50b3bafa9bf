package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LocalLocker is an in-process keyed mutex with the same contract as the Redis
// lock. It is used when Redis is disabled, which limits serialisation to a
// single instance.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*localSlot
}

type localSlot struct {
	token string
	ch    chan struct{}
	refs  int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*localSlot)}
}

func (l *LocalLocker) Lock(ctx context.Context, key string, expiration time.Duration) (*DistributedLock, error) {
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
		l.release(key, slot)
		return nil, fmt.Errorf("%w: %s: %v", ErrLockNotAcquired, key, ctx.Err())
	}

	token := uuid.NewString()
	l.mu.Lock()
	slot.token = token
	l.mu.Unlock()

	return &DistributedLock{
		Key:        key,
		Value:      token,
		Expiration: expiration,
		CreatedAt:  time.Now(),
	}, nil
}

func (l *LocalLocker) Unlock(_ context.Context, lock *DistributedLock) error {
	if lock == nil {
		return nil
	}

	l.mu.Lock()
	slot, ok := l.slots[lock.Key]
	if !ok || slot.token != lock.Value {
		l.mu.Unlock()
		return ErrLockNotHeld
	}
	slot.token = ""
	l.mu.Unlock()

	<-slot.ch
	l.release(lock.Key, slot)
	return nil
}

func (l *LocalLocker) release(key string, slot *localSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, key)
	}
}
