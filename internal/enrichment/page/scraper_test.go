package page

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baing/baing/internal/config"
)

const channelPage = `<!doctype html><html><head>
<title>Fallback Title</title>
<meta property="og:title" content="Good Mythical Morning">
<meta property="og:description" content="Rhett and Link host a daily talk show.">
<meta property="og:image" content="/img/gmm.jpg">
<meta property="og:site_name" content="YouTube">
</head><body></body></html>`

func TestFetchOpenGraph(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		assert.Equal(t, "/channel/UC4PooiX37Pld1T8J5SYT-SQ", r.URL.Path)
		_, _ = w.Write([]byte(channelPage))
	}))
	defer server.Close()

	s := NewScraper(config.ScraperConfig{UserAgent: "baing-test", YouTubeBaseURL: server.URL}, zerolog.Nop())
	d, err := s.Fetch(context.Background(), s.ChannelURL("UC4PooiX37Pld1T8J5SYT-SQ"))
	require.NoError(t, err)

	assert.Equal(t, "baing-test", gotUA)
	assert.Equal(t, "Good Mythical Morning", d.Title)
	assert.Equal(t, "Rhett and Link host a daily talk show.", d.Description)
	assert.Equal(t, server.URL+"/img/gmm.jpg", d.ImageURL)
	assert.Equal(t, "YouTube", d.SiteName)
	assert.Equal(t, server.URL+"/channel/UC4PooiX37Pld1T8J5SYT-SQ", d.URL)
}

func TestFetchFallbacks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title> Radiolab </title><meta name="description" content="Science stories."></head></html>`))
	}))
	defer server.Close()

	d, err := NewScraper(config.ScraperConfig{}, zerolog.Nop()).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Radiolab", d.Title)
	assert.Equal(t, "Science stories.", d.Description)
	assert.Empty(t, d.ImageURL)
}

func TestFetchErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`<html><body>nothing here</body></html>`))
	}))
	defer server.Close()

	s := NewScraper(config.ScraperConfig{}, zerolog.Nop())
	ctx := context.Background()

	_, err := s.Fetch(ctx, "ftp://example.com")
	assert.True(t, errors.Is(err, ErrInvalidURL))
	_, err = s.Fetch(ctx, server.URL+"/missing")
	assert.True(t, errors.Is(err, ErrFetchFailed))
	_, err = s.Fetch(ctx, server.URL+"/empty")
	assert.True(t, errors.Is(err, ErrNoMetadata))
}
