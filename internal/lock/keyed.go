// Package lock provides a mutex partitioned by key.
package lock

import (
	"context"
	"sync"
)

// Keyed hands out one exclusive slot per key. Holders of different keys
// never wait on each other. Slots are dropped once nobody holds or waits
// for them, so the map only grows with the number of keys in use.
type Keyed[K comparable] struct {
	mu    sync.Mutex
	slots map[K]*slot
}

type slot struct {
	sem  chan struct{}
	refs int
}

func NewKeyed[K comparable]() *Keyed[K] {
	return &Keyed[K]{slots: make(map[K]*slot)}
}

// Lock blocks until key is free or ctx is done. The returned func releases
// the key and is safe to call more than once.
func (k *Keyed[K]) Lock(ctx context.Context, key K) (func(), error) {
	s := k.acquire(key)

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		k.release(key, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.sem
			k.release(key, s)
		})
	}, nil
}

// Len returns the number of keys currently held or waited on.
func (k *Keyed[K]) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.slots)
}

func (k *Keyed[K]) acquire(key K) *slot {
	k.mu.Lock()
	defer k.mu.Unlock()

	s, ok := k.slots[key]
	if !ok {
		s = &slot{sem: make(chan struct{}, 1)}
		k.slots[key] = s
	}
	s.refs++
	return s
}

func (k *Keyed[K]) release(key K, s *slot) {
	k.mu.Lock()
	defer k.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(k.slots, key)
	}
}
