package rating

import (
	"sync"

	"github.com/google/uuid"

	"github.com/baing/baing/internal/media"
)

// Entry is one queued item. ID is assigned at enqueue and is the only
// identity used to remove it; two entries may hold equal items.
type Entry struct {
	ID   uuid.UUID
	Item media.Item
}

// Queue holds items awaiting a rating, in arrival order.
type Queue struct {
	mu      sync.Mutex
	entries []Entry
}

func NewQueue() *Queue {
	return &Queue{}
}

// Push appends items and returns their entry IDs.
func (q *Queue) Push(items ...media.Item) []uuid.UUID {
	q.mu.Lock()
	defer q.mu.Unlock()

	ids := make([]uuid.UUID, len(items))
	for i, it := range items {
		ids[i] = uuid.New()
		q.entries = append(q.entries, Entry{ID: ids[i], Item: it.Clone()})
	}
	return ids
}

// Get returns the entry with id.
func (q *Queue) Get(id uuid.UUID) (Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, e := range q.entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Remove splices the entry with id out of the queue.
func (q *Queue) Remove(id uuid.UUID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, e := range q.entries {
		if e.ID == id {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Entries returns a snapshot of the queue.
func (q *Queue) Entries() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Entry(nil), q.entries...)
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
