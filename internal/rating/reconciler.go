package rating

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/baing/baing/internal/collections"
)

var (
	ErrRateInFlight = errors.New("a rating for this entry is already in progress")
	ErrNotQueued    = errors.New("entry is not in the queue")
)

// PreconditionError means the user does not have exactly one collection
// for the action's label.
type PreconditionError struct {
	Label string
	Found int
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("expected exactly one %q collection, found %d", e.Label, e.Found)
}

// CollectionPatcher sends a whole collection document to the server.
type CollectionPatcher interface {
	ReplaceCollection(ctx context.Context, col collections.UserCollection) (*collections.UserCollection, error)
}

// Reconciler writes ratings from a queue into the user's special
// collections. It keeps a local copy of the collections and replaces the
// server's document wholesale on every rate; concurrent writers from other
// devices are not detected and the last write wins.
type Reconciler struct {
	patcher CollectionPatcher
	queue   *Queue
	pending *inFlight
	logger  zerolog.Logger

	writeMu sync.Mutex
	mu      sync.RWMutex
	cols    []collections.UserCollection
}

func NewReconciler(patcher CollectionPatcher, queue *Queue, cols []collections.UserCollection, logger zerolog.Logger) *Reconciler {
	r := &Reconciler{
		patcher: patcher,
		queue:   queue,
		pending: newInFlight(),
		logger:  logger.With().Str("component", "rating").Logger(),
	}
	r.SetCollections(cols)
	return r
}

// SetCollections replaces the local copy, e.g. after a fresh fetch.
func (r *Reconciler) SetCollections(cols []collections.UserCollection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cols = cloneAll(cols)
}

// Collections returns a copy of the local collections.
func (r *Reconciler) Collections() []collections.UserCollection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneAll(r.cols)
}

// Rate appends the queued entry to the collection matching action and
// removes the entry from the queue once the server accepts the write. On
// any error the queue and local collections are unchanged.
func (r *Reconciler) Rate(ctx context.Context, entryID uuid.UUID, action Action) (*collections.UserCollection, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	if !r.pending.TryAcquire(entryID) {
		return nil, ErrRateInFlight
	}
	defer r.pending.Release(entryID)

	entry, ok := r.queue.Get(entryID)
	if !ok {
		return nil, ErrNotQueued
	}

	// Writes are serialized so two entries rated into the same collection
	// do not overwrite each other.
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	target, err := r.target(action.Label())
	if err != nil {
		return nil, err
	}

	doc := target.Clone()
	doc.Collection.Entries = append(doc.Collection.Entries, entry.Item.Clone())

	updated, err := r.patcher.ReplaceCollection(ctx, doc)
	if err != nil {
		r.logger.Warn().Err(err).Str("action", string(action)).Str("title", entry.Item.Title()).Msg("Rating not saved")
		return nil, fmt.Errorf("save %s collection: %w", action.Label(), err)
	}

	r.store(*updated)
	r.queue.Remove(entryID)

	r.logger.Debug().
		Str("action", string(action)).
		Str("title", entry.Item.Title()).
		Int("entries", len(updated.Collection.Entries)).
		Msg("Rating saved")

	return updated, nil
}

func (r *Reconciler) target(label string) (collections.UserCollection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := collections.WithSpecial(r.cols, label)
	if len(matches) != 1 {
		return collections.UserCollection{}, &PreconditionError{Label: label, Found: len(matches)}
	}
	return matches[0], nil
}

func (r *Reconciler) store(col collections.UserCollection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.cols {
		if r.cols[i].ID == col.ID {
			r.cols[i] = col.Clone()
			return
		}
	}
	r.cols = append(r.cols, col.Clone())
}

func cloneAll(cols []collections.UserCollection) []collections.UserCollection {
	out := make([]collections.UserCollection, len(cols))
	for i, c := range cols {
		out[i] = c.Clone()
	}
	return out
}
