package media

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplay(t *testing.T) {
	tests := []struct {
		name string
		item Media
		want string
	}{
		{"movie", &Movie{Name: "Inception", Year: 2010}, "Inception (2010)"},
		{"tv", &TvShow{Name: "Dark", Language: "de", FirstAirDate: "2017-12-01"}, "Dark [de] (2017-12-01)"},
		{"channel", &YTChannel{Name: "Veritasium", Language: "en"}, "Veritasium [en]"},
		{"online", &OnlineContent{Name: "Stratechery", URL: "https://stratechery.com"}, "Stratechery <https://stratechery.com>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.Display(); got != tt.want {
				t.Errorf("Display() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestItemJSONIsExternallyTagged(t *testing.T) {
	item := NewItem(&Movie{Name: "Heat", Year: 1995, Baing: &DiscoveryMeta{Query: "crime", Reason: "classic"}})

	data, err := json.Marshal(item)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Movie":{"name":"Heat","year":1995,"baing_meta":{"query":"crime","reason":"classic","streamers":""}}}`, string(data))

	var back Item
	require.NoError(t, json.Unmarshal(data, &back))
	require.True(t, back.IsKind(KindMovie))
	assert.Equal(t, "Heat (1995)", back.Display())
	assert.Equal(t, "classic", back.Meta().Reason)
}

func TestItemUnmarshalRejectsBadShapes(t *testing.T) {
	bad := []string{
		`{}`,
		`{"Movie":{"name":"a","year":1},"TvShow":{"name":"b"}}`,
		`{"Podcast":{"name":"a"}}`,
		`{"Movie":null}`,
		`[1,2]`,
	}
	for _, in := range bad {
		var it Item
		if err := json.Unmarshal([]byte(in), &it); err == nil {
			t.Errorf("Unmarshal(%s) succeeded, want error", in)
		}
	}
}

func TestStoredItemWithoutMetaDecodes(t *testing.T) {
	var it Item
	require.NoError(t, json.Unmarshal([]byte(`{"TvShow":{"name":"Dark","first_air_date":"2017-12-01","language":"de"}}`), &it))
	assert.Nil(t, it.Meta())
	assert.False(t, it.HasDetails())
}

func TestFilterKindIsExactTagMatch(t *testing.T) {
	items := []Item{
		NewItem(&Movie{Name: "A", Year: 2000}),
		NewItem(&TvShow{Name: "A", FirstAirDate: "2000", Language: "en"}),
		NewItem(&Movie{Name: "B", Year: 2001}),
		NewItem(&YTChannel{Name: "A"}),
	}

	movies := FilterKind(items, KindMovie)
	require.Len(t, movies, 2)
	assert.Equal(t, "A", movies[0].Title())
	assert.Equal(t, "B", movies[1].Title())
	assert.Len(t, FilterKind(items, KindOnlineContent), 0)
}

func TestCloneDoesNotAlias(t *testing.T) {
	orig := NewItem(&OnlineContent{Name: "Blog", Tags: []string{"a"}, Baing: &DiscoveryMeta{Reason: "r"}})
	c := orig.Clone()

	c.Media.(*OnlineContent).Tags[0] = "changed"
	c.Meta().Reason = "changed"

	oc := orig.Media.(*OnlineContent)
	assert.Equal(t, "a", oc.Tags[0])
	assert.Equal(t, "r", oc.Baing.Reason)
}

func TestKindSlugs(t *testing.T) {
	for _, k := range Kinds() {
		got, err := KindFromSlug(k.Slug())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := KindFromSlug("podcasts")
	assert.ErrorIs(t, err, ErrUnknownKind)
}
