package media

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// DiscoveryMeta records why a title was recommended. It is present on every
// freshly discovered item and optional on stored ones.
type DiscoveryMeta struct {
	Query     string `json:"query"`
	Reason    string `json:"reason"`
	Streamers string `json:"streamers"`
}

// Media is implemented by exactly the four item variants in this package.
type Media interface {
	Kind() Kind
	Title() string
	// Display renders the item the way rating history presents it to the model.
	Display() string
	Meta() *DiscoveryMeta
	SetMeta(*DiscoveryMeta)
	HasDetails() bool
	clone() Media
}

// Movie is a feature film.
type Movie struct {
	Name    string         `json:"name"`
	Year    int            `json:"year"`
	Details *MovieDetails  `json:"details,omitempty"`
	Baing   *DiscoveryMeta `json:"baing_meta,omitempty"`
}

// TvShow is a television series.
type TvShow struct {
	Name         string         `json:"name"`
	FirstAirDate string         `json:"first_air_date"`
	Language     string         `json:"language"`
	Details      *TvShowDetails `json:"details,omitempty"`
	Baing        *DiscoveryMeta `json:"baing_meta,omitempty"`
}

// YTChannel is a YouTube channel.
type YTChannel struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	ChannelID   string         `json:"channel_id"`
	Language    string         `json:"language"`
	Details     *PageDetails   `json:"details,omitempty"`
	Baing       *DiscoveryMeta `json:"baing_meta,omitempty"`
}

// OnlineContent is any other web-hosted content: blogs, podcasts, newsletters.
type OnlineContent struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	URL         string         `json:"url"`
	Language    string         `json:"language"`
	BgImage     string         `json:"bgimage,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Details     *PageDetails   `json:"details,omitempty"`
	Baing       *DiscoveryMeta `json:"baing_meta,omitempty"`
}

func (m *Movie) Kind() Kind                  { return KindMovie }
func (m *Movie) Title() string               { return m.Name }
func (m *Movie) Display() string             { return fmt.Sprintf("%s (%d)", m.Name, m.Year) }
func (m *Movie) Meta() *DiscoveryMeta        { return m.Baing }
func (m *Movie) SetMeta(meta *DiscoveryMeta) { m.Baing = meta }
func (m *Movie) HasDetails() bool            { return m.Details != nil }

func (m *Movie) clone() Media {
	c := *m
	if m.Details != nil {
		d := *m.Details
		d.GenreIDs = append([]int(nil), m.Details.GenreIDs...)
		c.Details = &d
	}
	c.Baing = cloneMeta(m.Baing)
	return &c
}

func (s *TvShow) Kind() Kind                  { return KindTvShow }
func (s *TvShow) Title() string               { return s.Name }
func (s *TvShow) Meta() *DiscoveryMeta        { return s.Baing }
func (s *TvShow) SetMeta(meta *DiscoveryMeta) { s.Baing = meta }
func (s *TvShow) HasDetails() bool            { return s.Details != nil }

func (s *TvShow) Display() string {
	return fmt.Sprintf("%s [%s] (%s)", s.Name, s.Language, s.FirstAirDate)
}

func (s *TvShow) clone() Media {
	c := *s
	if s.Details != nil {
		d := *s.Details
		d.GenreIDs = append([]int(nil), s.Details.GenreIDs...)
		d.OriginCountry = append([]string(nil), s.Details.OriginCountry...)
		c.Details = &d
	}
	c.Baing = cloneMeta(s.Baing)
	return &c
}

func (y *YTChannel) Kind() Kind                  { return KindYTChannel }
func (y *YTChannel) Title() string               { return y.Name }
func (y *YTChannel) Display() string             { return fmt.Sprintf("%s [%s]", y.Name, y.Language) }
func (y *YTChannel) Meta() *DiscoveryMeta        { return y.Baing }
func (y *YTChannel) SetMeta(meta *DiscoveryMeta) { y.Baing = meta }
func (y *YTChannel) HasDetails() bool            { return y.Details != nil }

func (y *YTChannel) clone() Media {
	c := *y
	c.Details = clonePage(y.Details)
	c.Baing = cloneMeta(y.Baing)
	return &c
}

func (o *OnlineContent) Kind() Kind                  { return KindOnlineContent }
func (o *OnlineContent) Title() string               { return o.Name }
func (o *OnlineContent) Display() string             { return fmt.Sprintf("%s <%s>", o.Name, o.URL) }
func (o *OnlineContent) Meta() *DiscoveryMeta        { return o.Baing }
func (o *OnlineContent) SetMeta(meta *DiscoveryMeta) { o.Baing = meta }
func (o *OnlineContent) HasDetails() bool            { return o.Details != nil }

func (o *OnlineContent) clone() Media {
	c := *o
	c.Tags = append([]string(nil), o.Tags...)
	c.Details = clonePage(o.Details)
	c.Baing = cloneMeta(o.Baing)
	return &c
}

func cloneMeta(m *DiscoveryMeta) *DiscoveryMeta {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}

func clonePage(p *PageDetails) *PageDetails {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// Item is a media value of any kind. On the wire it is externally tagged:
// {"Movie": {"name": "Heat", "year": 1995}}.
type Item struct {
	Media
}

var (
	ErrEmptyItem     = errors.New("media item has no value")
	ErrMalformedItem = errors.New("media item must be an object with exactly one kind key")
)

// NewItem wraps a variant.
func NewItem(m Media) Item {
	return Item{Media: m}
}

// Clone returns a deep copy so enrichment and rating never alias caller data.
func (i Item) Clone() Item {
	if i.Media == nil {
		return i
	}
	return Item{Media: i.Media.clone()}
}

// IsKind reports whether the item's tag equals k.
func (i Item) IsKind(k Kind) bool {
	return i.Media != nil && i.Media.Kind() == k
}

func (i Item) MarshalJSON() ([]byte, error) {
	if i.Media == nil {
		return nil, ErrEmptyItem
	}
	return json.Marshal(map[Kind]Media{i.Media.Kind(): i.Media})
}

func (i *Item) UnmarshalJSON(data []byte) error {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedItem, err)
	}
	if len(tagged) != 1 {
		return ErrMalformedItem
	}

	for tag, raw := range tagged {
		kind, err := ParseKind(tag)
		if err != nil {
			return err
		}
		m := newVariant(kind)
		if err := decodeStrict(raw, m); err != nil {
			return fmt.Errorf("decode %s: %w", kind, err)
		}
		i.Media = m
	}
	return nil
}

func newVariant(k Kind) Media {
	switch k {
	case KindMovie:
		return &Movie{}
	case KindTvShow:
		return &TvShow{}
	case KindYTChannel:
		return &YTChannel{}
	case KindOnlineContent:
		return &OnlineContent{}
	}
	panic(fmt.Sprintf("media: unhandled kind %q", k))
}

func decodeStrict(raw []byte, v any) error {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return ErrEmptyItem
	}
	return json.Unmarshal(raw, v)
}

// FilterKind returns the items whose tag equals k, preserving order.
func FilterKind(items []Item, k Kind) []Item {
	var out []Item
	for _, it := range items {
		if it.IsKind(k) {
			out = append(out, it)
		}
	}
	return out
}
