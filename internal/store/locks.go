package store

import (
	"sync"

	"github.com/google/uuid"
)

// KeyedMutex serializes mutations per account id. Every engine operation that
// reads an account, mutates it and writes it back holds the account's lock
// for the duration, so concurrent calls against the same account cannot lose
// updates.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewKeyedMutex builds an empty lock registry. A single registry is shared by
// all engines touching the same store.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// Lock acquires the mutex for the given account id and returns an unlock
// function. Locks are never evicted; the registry grows with the number of
// distinct accounts mutated during the process lifetime.
func (k *KeyedMutex) Lock(id uuid.UUID) func() {
	k.mu.Lock()
	m, ok := k.locks[id]
	if !ok {
		m = &sync.Mutex{}
		k.locks[id] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
