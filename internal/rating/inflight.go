package rating

import (
	"sync"

	"github.com/google/uuid"
)

// inFlight tracks queue entries with an outstanding rate.
type inFlight struct {
	mu    sync.Mutex
	locks map[uuid.UUID]struct{}
}

func newInFlight() *inFlight {
	return &inFlight{locks: make(map[uuid.UUID]struct{})}
}

// TryAcquire returns false if id is already held.
func (f *inFlight) TryAcquire(id uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, held := f.locks[id]; held {
		return false
	}
	f.locks[id] = struct{}{}
	return true
}

func (f *inFlight) Release(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.locks, id)
}
