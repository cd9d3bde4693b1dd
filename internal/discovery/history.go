package discovery

import (
	"strings"

	"github.com/baing/baing/internal/collections"
	"github.com/baing/baing/internal/media"
)

// History maps each reserved label to the flattened titles of one kind that
// the user rated with it. A missing label reads as "".
type History map[string]string

func (h History) Liked() string    { return h[collections.SpecialLiked] }
func (h History) Disliked() string { return h[collections.SpecialDisliked] }
func (h History) Skipped() string  { return h[collections.SpecialSkipped] }

// ExtractHistory renders the rated items of kind from the user's special
// collections. Titles are joined with ", " inside a collection and with " "
// across collections of the same label.
func ExtractHistory(cols []collections.UserCollection, kind media.Kind) History {
	h := make(History, len(collections.SpecialLabels()))
	for _, label := range collections.SpecialLabels() {
		var groups []string
		for _, col := range collections.WithSpecial(cols, label) {
			entries := media.FilterKind(col.Collection.Entries, kind)
			if len(entries) == 0 {
				continue
			}
			titles := make([]string, len(entries))
			for i, e := range entries {
				titles[i] = e.Display()
			}
			groups = append(groups, strings.Join(titles, ", "))
		}
		h[label] = strings.Join(groups, " ")
	}
	return h
}

// ratedTitles returns the lowercased titles of kind already present in any
// special collection.
func ratedTitles(cols []collections.UserCollection, kind media.Kind) map[string]struct{} {
	seen := make(map[string]struct{})
	for _, col := range cols {
		if col.Special == nil {
			continue
		}
		for _, e := range media.FilterKind(col.Collection.Entries, kind) {
			seen[titleKey(e)] = struct{}{}
		}
	}
	return seen
}

func titleKey(it media.Item) string {
	return strings.ToLower(strings.TrimSpace(it.Title()))
}
