package collections

import (
	"time"

	"github.com/google/uuid"

	"github.com/baing/baing/internal/media"
)

// Reserved special-collection labels. Each exists exactly once per user.
const (
	SpecialLiked    = "liked"
	SpecialDisliked = "disliked"
	SpecialSkipped  = "skipped"
)

// SpecialLabels returns the reserved labels in presentation order.
func SpecialLabels() []string {
	return []string{SpecialLiked, SpecialDisliked, SpecialSkipped}
}

var specialNames = map[string]string{
	SpecialLiked:    "Liked",
	SpecialDisliked: "Disliked",
	SpecialSkipped:  "Skipped",
}

// MediaCollection holds the ordered entries of a collection.
type MediaCollection struct {
	Entries []media.Item `json:"entries"`
}

// UserCollection is one named, owned list of media items.
type UserCollection struct {
	ID         uuid.UUID       `json:"id"`
	OwnerID    int64           `json:"owner_id"`
	Name       string          `json:"name"`
	CreatedAt  *time.Time      `json:"created_at,omitempty"`
	UpdatedAt  *time.Time      `json:"updated_at,omitempty"`
	Active     bool            `json:"active"`
	Sharing    *string         `json:"sharing"`
	Collection MediaCollection `json:"collection"`
	Locked     bool            `json:"locked"`
	Tags       []string        `json:"tags"`
	Special    *string         `json:"special"`
}

// IsSpecial reports whether the collection carries the given reserved label.
func (c UserCollection) IsSpecial(label string) bool {
	return c.Special != nil && *c.Special == label
}

// Clone returns a deep copy.
func (c UserCollection) Clone() UserCollection {
	out := c
	out.Tags = append([]string(nil), c.Tags...)
	out.Collection.Entries = make([]media.Item, len(c.Collection.Entries))
	for i, e := range c.Collection.Entries {
		out.Collection.Entries[i] = e.Clone()
	}
	if c.Sharing != nil {
		s := *c.Sharing
		out.Sharing = &s
	}
	if c.Special != nil {
		s := *c.Special
		out.Special = &s
	}
	return out
}

// WithSpecial returns the collections carrying label, in input order.
func WithSpecial(cols []UserCollection, label string) []UserCollection {
	var out []UserCollection
	for _, c := range cols {
		if c.IsSpecial(label) {
			out = append(out, c)
		}
	}
	return out
}

// CreateInput describes a new ordinary collection.
type CreateInput struct {
	Name    string   `json:"name"`
	Tags    []string `json:"tags"`
	Sharing *string  `json:"sharing"`
}

// ListResponse is the data payload of GET /collections.
type ListResponse struct {
	Collections []UserCollection `json:"collections"`
}
