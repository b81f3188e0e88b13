// Package lock provides a keyed mutex used to serialize concurrent writes
// per user within a single process.
package lock

import "sync"

// Keyed serializes work per key. Locks are created lazily and never dropped;
// the key space here is bounded by the active user set.
type Keyed struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyed returns an empty keyed mutex.
func NewKeyed() *Keyed {
	return &Keyed{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key, creating it on first use.
func (k *Keyed) Lock(key string) {
	k.get(key).Lock()
}

// Unlock releases the mutex for key.
func (k *Keyed) Unlock(key string) {
	k.get(key).Unlock()
}

func (k *Keyed) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}
