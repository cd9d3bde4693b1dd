// Package collections stores users' media collections, including the
// reserved liked, disliked and skipped lists that feed discovery.
package collections

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/baing/baing/internal/database/sqlc"
	"github.com/baing/baing/internal/media"
)

var (
	ErrCollectionNotFound = errors.New("collection not found")
	ErrInvalidName        = errors.New("collection name is required")
	ErrLockedRename       = errors.New("locked collections cannot be renamed")
	ErrSpecialChange      = errors.New("special label cannot be changed")
	ErrIDMismatch         = errors.New("collection id does not match path")
	ErrSpecialMissing     = errors.New("special collection missing")
	ErrUnknownSpecial     = errors.New("unknown special label")
)

// EventCollectionUpdated is pushed to the owner after a replace.
const EventCollectionUpdated = "collection:updated"

// Broadcaster pushes events to one user's connected clients.
type Broadcaster interface {
	SendToUser(userID int64, msgType string, payload any)
}

// Service owns collection persistence. Writes are whole-document replaces
// with last-writer-wins semantics; there is no version check.
type Service struct {
	queries     *sqlc.Queries
	broadcaster Broadcaster
	logger      zerolog.Logger
}

func NewService(queries *sqlc.Queries, logger zerolog.Logger) *Service {
	return &Service{
		queries: queries,
		logger:  logger.With().Str("component", "collections").Logger(),
	}
}

// SetBroadcaster sets the push channel for collection events.
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// List returns every collection owned by the user.
func (s *Service) List(ctx context.Context, ownerID int64) ([]UserCollection, error) {
	rows, err := s.queries.ListCollectionsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return s.toCollections(rows)
}

// ListSpecial returns only the reserved collections.
func (s *Service) ListSpecial(ctx context.Context, ownerID int64) ([]UserCollection, error) {
	rows, err := s.queries.ListSpecialCollections(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list special collections: %w", err)
	}
	return s.toCollections(rows)
}

// Special returns the user's single collection carrying label. A missing
// or duplicated special collection yields ErrSpecialMissing.
func (s *Service) Special(ctx context.Context, ownerID int64, label string) (*UserCollection, error) {
	if _, ok := specialNames[label]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSpecial, label)
	}
	cols, err := s.ListSpecial(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	matches := WithSpecial(cols, label)
	if len(matches) != 1 {
		return nil, fmt.Errorf("%w: %s (found %d)", ErrSpecialMissing, label, len(matches))
	}
	return &matches[0], nil
}

// Get returns one collection owned by the user.
func (s *Service) Get(ctx context.Context, ownerID int64, id uuid.UUID) (*UserCollection, error) {
	row, err := s.queries.GetCollection(ctx, sqlc.GetCollectionParams{ID: id.String(), OwnerID: ownerID})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCollectionNotFound
		}
		return nil, fmt.Errorf("get collection: %w", err)
	}
	return toCollection(row)
}

// Create adds an ordinary (non-special, unlocked) collection.
func (s *Service) Create(ctx context.Context, ownerID int64, input CreateInput) (*UserCollection, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	return s.insert(ctx, ownerID, name, false, nil, input.Tags, input.Sharing)
}

// EnsureSpecial creates whichever reserved collections the user lacks.
// It is idempotent and runs at registration.
func (s *Service) EnsureSpecial(ctx context.Context, ownerID int64) error {
	existing, err := s.ListSpecial(ctx, ownerID)
	if err != nil {
		return err
	}

	for _, label := range SpecialLabels() {
		if len(WithSpecial(existing, label)) > 0 {
			continue
		}
		l := label
		if _, err := s.insert(ctx, ownerID, specialNames[label], true, &l, nil, nil); err != nil {
			return fmt.Errorf("create %s collection: %w", label, err)
		}
		s.logger.Debug().Int64("ownerId", ownerID).Str("special", label).Msg("Created special collection")
	}
	return nil
}

func (s *Service) insert(ctx context.Context, ownerID int64, name string, locked bool, special *string, tags []string, sharing *string) (*UserCollection, error) {
	tagsJSON, err := marshalTags(tags)
	if err != nil {
		return nil, err
	}

	row, err := s.queries.CreateCollection(ctx, sqlc.CreateCollectionParams{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		Name:    name,
		Active:  true,
		Sharing: nullString(sharing),
		Entries: "[]",
		Locked:  locked,
		Tags:    tagsJSON,
		Special: nullString(special),
	})
	if err != nil {
		return nil, fmt.Errorf("insert collection: %w", err)
	}
	return toCollection(row)
}

// Replace overwrites the stored collection with doc. The special label and
// lock flag are server-owned: a doc that tries to change the label is
// rejected, and a locked collection keeps its name.
func (s *Service) Replace(ctx context.Context, ownerID int64, id uuid.UUID, doc UserCollection) (*UserCollection, error) {
	if doc.ID != uuid.Nil && doc.ID != id {
		return nil, ErrIDMismatch
	}

	current, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if !sameSpecial(current.Special, doc.Special) {
		return nil, ErrSpecialChange
	}

	name := strings.TrimSpace(doc.Name)
	if name == "" {
		name = current.Name
	}
	if current.Locked && name != current.Name {
		return nil, ErrLockedRename
	}

	entries := doc.Collection.Entries
	if entries == nil {
		entries = []media.Item{}
	}
	entriesJSON, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("encode entries: %w", err)
	}
	tagsJSON, err := marshalTags(doc.Tags)
	if err != nil {
		return nil, err
	}

	row, err := s.queries.ReplaceCollection(ctx, sqlc.ReplaceCollectionParams{
		Name:    name,
		Active:  doc.Active,
		Sharing: nullString(doc.Sharing),
		Entries: string(entriesJSON),
		Tags:    tagsJSON,
		ID:      id.String(),
		OwnerID: ownerID,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCollectionNotFound
		}
		return nil, fmt.Errorf("replace collection: %w", err)
	}

	updated, err := toCollection(row)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("ownerId", ownerID).
		Str("collectionId", id.String()).
		Int("entries", len(updated.Collection.Entries)).
		Msg("Collection replaced")

	if s.broadcaster != nil {
		s.broadcaster.SendToUser(ownerID, EventCollectionUpdated, updated)
	}
	return updated, nil
}

func (s *Service) toCollections(rows []*sqlc.Collection) ([]UserCollection, error) {
	out := make([]UserCollection, 0, len(rows))
	for _, row := range rows {
		c, err := toCollection(row)
		if err != nil {
			// Special collections feed rating history and are never skipped.
			if row.Special.Valid {
				return nil, fmt.Errorf("special collection %s: %w", row.Special.String, err)
			}
			s.logger.Warn().Err(err).Str("collectionId", row.ID).Msg("Skipping unreadable collection")
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func toCollection(row *sqlc.Collection) (*UserCollection, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, fmt.Errorf("parse collection id: %w", err)
	}

	var entries []media.Item
	if err := json.Unmarshal([]byte(row.Entries), &entries); err != nil {
		return nil, fmt.Errorf("decode entries of %s: %w", row.ID, err)
	}
	if entries == nil {
		entries = []media.Item{}
	}

	var tags []string
	if row.Tags != "" {
		if err := json.Unmarshal([]byte(row.Tags), &tags); err != nil {
			return nil, fmt.Errorf("decode tags of %s: %w", row.ID, err)
		}
	}
	if tags == nil {
		tags = []string{}
	}

	created, updated := row.CreatedAt, row.UpdatedAt
	return &UserCollection{
		ID:         id,
		OwnerID:    row.OwnerID,
		Name:       row.Name,
		CreatedAt:  timePtr(created),
		UpdatedAt:  timePtr(updated),
		Active:     row.Active,
		Sharing:    stringPtr(row.Sharing),
		Collection: MediaCollection{Entries: entries},
		Locked:     row.Locked,
		Tags:       tags,
		Special:    stringPtr(row.Special),
	}, nil
}

func marshalTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

func sameSpecial(current, requested *string) bool {
	// Omitting the label in a replace keeps it.
	if requested == nil {
		return true
	}
	return current != nil && *current == *requested
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
