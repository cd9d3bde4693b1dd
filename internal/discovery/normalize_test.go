package discovery

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baing/baing/internal/llm"
	"github.com/baing/baing/internal/media"
)

const bareMovies = `{"movies":[{"name":"Heat","year":1995,"baing_meta":{"reason":"Tense.","query":""}}]}`

func TestStripDecoration(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"bare", bareMovies},
		{"json fence", "```json\n" + bareMovies + "\n```"},
		{"plain fence", "```\n" + bareMovies + "\n```"},
		{"upper fence", "```JSON\n" + bareMovies + "\n```"},
		{"inline fence", "```json" + bareMovies + "```"},
		{"prose", "Here are some picks:\n" + bareMovies + "\nEnjoy!"},
		{"prose and fence", "Sure!\n```json\n" + bareMovies + "\n```\nLet me know."},
		{"brace in leading prose", "Here are picks {as asked}:\n" + bareMovies},
		{"empty object in prose", "Nothing {} to add.\n" + bareMovies + "\nBye {}"},
		{"brace in trailing prose", bareMovies + "\n(see {notes})"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, bareMovies, StripDecoration(tt.in))
		})
	}
}

func TestStripDecorationFenceInsideString(t *testing.T) {
	payload := `{"movies":[{"name":"Heat","year":1995,"baing_meta":{"reason":"Quote: ` + "```" + `go run` + "```" + ` {x}","query":""}}]}`

	assert.Equal(t, payload, StripDecoration("```json\n"+payload+"\n```"))
	assert.Equal(t, payload, StripDecoration(payload))

	list, err := Normalize[MovieList](&llm.Completion{Text: "```json\n" + payload + "\n```"})
	require.NoError(t, err)
	require.Len(t, list.Movies, 1)
	assert.Contains(t, list.Movies[0].Baing.Reason, "```go run```")
}

func TestStripDecorationWithoutObject(t *testing.T) {
	assert.Equal(t, "not json", StripDecoration("```json\nnot json\n```"))
	assert.Equal(t, `{"movies": [`, StripDecoration(`{"movies": [`))
}

func TestNormalizeBraceInProse(t *testing.T) {
	list, err := Normalize[MovieList](&llm.Completion{Text: "Here are picks {as asked}:\n" + bareMovies})
	require.NoError(t, err)
	require.Len(t, list.Movies, 1)
	assert.Equal(t, "Heat", list.Movies[0].Name)
}

func TestNormalizeFencedEqualsBare(t *testing.T) {
	bare, err := Normalize[MovieList](&llm.Completion{Text: bareMovies})
	require.NoError(t, err)
	fenced, err := Normalize[MovieList](&llm.Completion{Text: "```json\n" + bareMovies + "\n```"})
	require.NoError(t, err)
	assert.Equal(t, bare, fenced)
	require.Len(t, bare.Movies, 1)
	assert.Equal(t, 1995, bare.Movies[0].Year)
}

func TestNormalizeStructured(t *testing.T) {
	c := &llm.Completion{Structured: json.RawMessage(bareMovies)}
	list, err := Normalize[MovieList](c)
	require.NoError(t, err)
	assert.Equal(t, "Heat", list.Movies[0].Name)
}

func TestNormalizeFencedTvShowsFromPrimary(t *testing.T) {
	c := &llm.Completion{
		Provider: "anthropic",
		Text:     "```json\n{\"tv_shows\":[{\"name\":\"X\",\"first_air_date\":\"2020-01-01\",\"language\":\"en\"}]}\n```",
	}
	items, err := contractFor(media.KindTvShow).decode(c)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "X", items[0].Title())
	assert.True(t, items[0].IsKind(media.KindTvShow))
}

func TestNormalizeIgnoresUnknownFields(t *testing.T) {
	c := &llm.Completion{Text: `{"movies":[{"name":"Heat","year":1995,"rating":9.1}],"note":"x"}`}
	list, err := Normalize[MovieList](c)
	require.NoError(t, err)
	assert.Len(t, list.Movies, 1)
}

func TestNormalizeErrors(t *testing.T) {
	tests := []struct {
		name    string
		c       *llm.Completion
		wantErr error
	}{
		{"nil completion", nil, llm.ErrEmptyCompletion},
		{"empty text", &llm.Completion{Text: "  "}, llm.ErrEmptyCompletion},
		{"not json", &llm.Completion{Text: "I cannot help with that."}, ErrUndecodable},
		{"wrong type", &llm.Completion{Text: `{"movies":[{"name":"Heat","year":"1995"}]}`}, ErrUndecodable},
		{"missing array", &llm.Completion{Text: `{"films":[]}`}, ErrContractViolation},
		{"missing field", &llm.Completion{Text: `{"movies":[{"name":"Heat"}]}`}, ErrContractViolation},
		{"structured missing field", &llm.Completion{Structured: json.RawMessage(`{"movies":[{"year":1995}]}`)}, ErrContractViolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize[MovieList](tt.c)
			var rf *ResponseFormatError
			require.ErrorAs(t, err, &rf)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDecodeTagsKindOnFormatError(t *testing.T) {
	_, err := contractFor(media.KindYTChannel).decode(&llm.Completion{Text: `{"yt_channels":[{"name":"GMM"}]}`})
	var rf *ResponseFormatError
	require.ErrorAs(t, err, &rf)
	assert.Equal(t, media.KindYTChannel, rf.Kind)
	assert.Contains(t, rf.Raw, "GMM")
}

func TestSchemasRequireCoreFields(t *testing.T) {
	var doc struct {
		Required   []string                   `json:"required"`
		Properties map[string]json.RawMessage `json:"properties"`
	}
	schema := SchemaFor(media.KindOnlineContent)
	assert.Equal(t, "recommend_online_content", schema.Name)
	require.NoError(t, json.Unmarshal(schema.Document, &doc))
	assert.Equal(t, []string{"online_content"}, doc.Required)
}
