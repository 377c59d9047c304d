package services

import (
	"sync"

	"github.com/google/uuid"
)

// keyLock serializes scan processing per subject so two near-simultaneous
// scans of the same QR cannot both pass the open-record checks. Entries are
// refcounted and removed once the last holder releases.
type keyLock struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyLock() *keyLock {
	return &keyLock{
		locks: make(map[uuid.UUID]*lockEntry),
	}
}

// Lock acquires the lock for key and returns its release function
func (k *keyLock) Lock(key uuid.UUID) func() {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &lockEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
