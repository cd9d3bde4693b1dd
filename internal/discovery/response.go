package discovery

import (
	"errors"
	"fmt"

	"github.com/baing/baing/internal/llm"
	"github.com/baing/baing/internal/media"
)

// ContractVersion identifies the shape of the recommendation payloads.
// Additions are optional fields; a breaking change bumps the version.
const ContractVersion = 2

// MovieCandidate is one recommended film as the model returns it.
type MovieCandidate struct {
	Name  string               `json:"name" validate:"required" jsonschema:"description=Title of the film"`
	Year  int                  `json:"year" validate:"required" jsonschema:"description=Year of theatrical release"`
	Baing *media.DiscoveryMeta `json:"baing_meta,omitempty"`
}

// TvShowCandidate is one recommended series.
type TvShowCandidate struct {
	Name         string               `json:"name" validate:"required" jsonschema:"description=Title of the series"`
	FirstAirDate string               `json:"first_air_date" validate:"required" jsonschema:"description=Date the first episode aired"`
	Language     string               `json:"language" validate:"required" jsonschema:"description=Original language as an ISO 639-1 code"`
	Baing        *media.DiscoveryMeta `json:"baing_meta,omitempty"`
}

// YTChannelCandidate is one recommended YouTube channel.
type YTChannelCandidate struct {
	Name        string               `json:"name" validate:"required" jsonschema:"description=Channel name"`
	ChannelID   string               `json:"channel_id" validate:"required" jsonschema:"description=YouTube channel id starting with UC"`
	Description string               `json:"description" validate:"required" jsonschema:"description=One sentence about the channel"`
	Language    string               `json:"language" validate:"required"`
	Baing       *media.DiscoveryMeta `json:"baing_meta,omitempty"`
}

// OnlineContentCandidate is one recommended website, podcast or newsletter.
type OnlineContentCandidate struct {
	Name        string               `json:"name" validate:"required"`
	URL         string               `json:"url" validate:"required" jsonschema:"description=Canonical address of the content"`
	Description string               `json:"description" validate:"required"`
	Language    string               `json:"language" validate:"required"`
	BgImage     string               `json:"bgimage,omitempty" jsonschema:"description=Optional background image URL"`
	Tags        []string             `json:"tags,omitempty"`
	Baing       *media.DiscoveryMeta `json:"baing_meta,omitempty"`
}

// MovieList is the movies payload.
type MovieList struct {
	Movies []MovieCandidate `json:"movies" validate:"required,dive"`
}

// TvShowList is the tv_shows payload.
type TvShowList struct {
	TvShows []TvShowCandidate `json:"tv_shows" validate:"required,dive"`
}

// YTChannelList is the yt_channels payload.
type YTChannelList struct {
	YTChannels []YTChannelCandidate `json:"yt_channels" validate:"required,dive"`
}

// OnlineContentList is the online_content payload.
type OnlineContentList struct {
	OnlineContent []OnlineContentCandidate `json:"online_content" validate:"required,dive"`
}

func (l MovieList) items() []media.Item {
	out := make([]media.Item, len(l.Movies))
	for i, c := range l.Movies {
		out[i] = media.NewItem(&media.Movie{Name: c.Name, Year: c.Year, Baing: c.Baing})
	}
	return out
}

func (l TvShowList) items() []media.Item {
	out := make([]media.Item, len(l.TvShows))
	for i, c := range l.TvShows {
		out[i] = media.NewItem(&media.TvShow{
			Name:         c.Name,
			FirstAirDate: c.FirstAirDate,
			Language:     c.Language,
			Baing:        c.Baing,
		})
	}
	return out
}

func (l YTChannelList) items() []media.Item {
	out := make([]media.Item, len(l.YTChannels))
	for i, c := range l.YTChannels {
		out[i] = media.NewItem(&media.YTChannel{
			Name:        c.Name,
			ChannelID:   c.ChannelID,
			Description: c.Description,
			Language:    c.Language,
			Baing:       c.Baing,
		})
	}
	return out
}

func (l OnlineContentList) items() []media.Item {
	out := make([]media.Item, len(l.OnlineContent))
	for i, c := range l.OnlineContent {
		out[i] = media.NewItem(&media.OnlineContent{
			Name:        c.Name,
			URL:         c.URL,
			Description: c.Description,
			Language:    c.Language,
			BgImage:     c.BgImage,
			Tags:        c.Tags,
			Baing:       c.Baing,
		})
	}
	return out
}

type candidateList interface {
	items() []media.Item
}

// contract binds a kind to its payload field, prompt wording and schema.
type contract struct {
	kind   media.Kind
	field  string
	noun   string
	fields string
	schema llm.Schema
	decode func(*llm.Completion) ([]media.Item, error)
}

func newContract[L candidateList](kind media.Kind, field, noun, fields string) contract {
	return contract{
		kind:   kind,
		field:  field,
		noun:   noun,
		fields: fields,
		schema: llm.MustSchemaFor[L]("recommend_"+field, fmt.Sprintf("Return recommended %s in the %q array.", noun, field)),
		decode: func(c *llm.Completion) ([]media.Item, error) {
			list, err := Normalize[L](c)
			if err != nil {
				var rf *ResponseFormatError
				if errors.As(err, &rf) {
					rf.Kind = kind
				}
				return nil, err
			}
			return list.items(), nil
		},
	}
}

var contracts = map[media.Kind]contract{
	media.KindMovie: newContract[MovieList](media.KindMovie,
		"movies", "movies", `"name" (string), "year" (integer)`),
	media.KindTvShow: newContract[TvShowList](media.KindTvShow,
		"tv_shows", "TV shows", `"name" (string), "first_air_date" (string, YYYY-MM-DD), "language" (string, ISO 639-1)`),
	media.KindYTChannel: newContract[YTChannelList](media.KindYTChannel,
		"yt_channels", "YouTube channels", `"name" (string), "channel_id" (string), "description" (string), "language" (string, ISO 639-1)`),
	media.KindOnlineContent: newContract[OnlineContentList](media.KindOnlineContent,
		"online_content", "pieces of online content", `"name" (string), "url" (string), "description" (string), "language" (string, ISO 639-1), optional "bgimage" (string), optional "tags" (array of strings)`),
}

func contractFor(kind media.Kind) contract {
	c, ok := contracts[kind]
	if !ok {
		panic(fmt.Sprintf("discovery: no contract for kind %q", kind))
	}
	return c
}

// PayloadField returns the JSON array name used for kind in responses.
func PayloadField(kind media.Kind) string {
	return contractFor(kind).field
}

// SchemaFor returns the schema sent to structured providers for kind.
func SchemaFor(kind media.Kind) llm.Schema {
	return contractFor(kind).schema
}
