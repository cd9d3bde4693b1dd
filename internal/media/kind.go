// Package media defines the closed set of media kinds and the items that
// users collect, rate, and receive as recommendations.
package media

import (
	"errors"
	"fmt"
)

// Kind is the discriminant of a media item. The set is closed.
type Kind string

const (
	KindMovie         Kind = "Movie"
	KindTvShow        Kind = "TvShow"
	KindOnlineContent Kind = "OnlineContent"
	KindYTChannel     Kind = "YTChannel"
)

// ErrUnknownKind is returned when a kind name or route slug is not recognized.
var ErrUnknownKind = errors.New("unknown media kind")

var kindSlugs = map[Kind]string{
	KindMovie:         "movies",
	KindTvShow:        "tv-shows",
	KindOnlineContent: "online-content",
	KindYTChannel:     "yt-channels",
}

// Kinds returns every kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindMovie, KindTvShow, KindYTChannel, KindOnlineContent}
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	_, ok := kindSlugs[k]
	return ok
}

// Slug returns the URL path segment used for the kind.
func (k Kind) Slug() string {
	return kindSlugs[k]
}

func (k Kind) String() string {
	return string(k)
}

// ParseKind parses a kind tag such as "Movie".
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// KindFromSlug maps a URL path segment such as "tv-shows" to its kind.
func KindFromSlug(slug string) (Kind, error) {
	for k, s := range kindSlugs {
		if s == slug {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, slug)
}
