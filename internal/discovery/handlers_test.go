package discovery

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baing/baing/internal/api/envelope"
	"github.com/baing/baing/internal/auth"
	"github.com/baing/baing/internal/llm"
	"github.com/baing/baing/internal/llm/mock"
	"github.com/baing/baing/internal/testutil"
)

type staticValidator struct{ userID int64 }

func (v staticValidator) ValidateToken(string) (*auth.Claims, error) {
	return &auth.Claims{UserID: v.userID}, nil
}

type apiResponse struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func setupHandlers(t *testing.T, provider *mock.Provider) *echo.Echo {
	t.Helper()
	svc := newTestService(t, staticLister{}, provider)

	e := echo.New()
	e.HTTPErrorHandler = envelope.ErrorHandler(testutil.NopLogger())
	g := e.Group("/api", auth.Middleware(staticValidator{userID: 1}))
	NewHandlers(svc).RegisterRoutes(g)
	return e
}

func get(t *testing.T, e *echo.Echo, path string) (int, apiResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer t")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec.Code, resp
}

func TestRandomSingleKind(t *testing.T) {
	e := setupHandlers(t, mock.New())

	code, resp := get(t, e, "/api/discovery/tv-shows/rand/2?query=mystery")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", resp.Status)

	var data struct {
		TvShows []struct {
			Name  string `json:"name"`
			Baing struct {
				Query string `json:"query"`
			} `json:"baing_meta"`
		} `json:"tv_shows"`
		Version int `json:"version"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, ContractVersion, data.Version)
	require.Len(t, data.TvShows, 2)
	assert.Equal(t, "The Wire", data.TvShows[0].Name)
	assert.Equal(t, "mystery", data.TvShows[0].Baing.Query)
}

func TestRandomKeepsEmptyStreamers(t *testing.T) {
	e := setupHandlers(t, mock.New())

	code, resp := get(t, e, "/api/discovery/movies/rand/1")
	require.Equal(t, http.StatusOK, code)

	var data struct {
		Movies []struct {
			Baing map[string]json.RawMessage `json:"baing_meta"`
		} `json:"movies"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.Len(t, data.Movies, 1)
	require.Contains(t, data.Movies[0].Baing, "streamers")
	assert.Equal(t, `""`, string(data.Movies[0].Baing["streamers"]))
}

func TestRandomAllKinds(t *testing.T) {
	provider := mock.New()
	provider.SetError("recommend_movies", errors.New("down"))
	e := setupHandlers(t, provider)

	code, resp := get(t, e, "/api/discovery/all/rand/4?kinds=movies,yt-channels")
	require.Equal(t, http.StatusOK, code)

	var data struct {
		Items    []map[string]json.RawMessage `json:"items"`
		Warnings []PartialBatchWarning        `json:"warnings"`
		Version  int                          `json:"version"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.Len(t, data.Items, 2)
	for _, it := range data.Items {
		assert.Contains(t, it, "YTChannel")
	}
	require.Len(t, data.Warnings, 1)
	assert.Equal(t, "Movie", string(data.Warnings[0].Kind))
}

func TestRandomErrors(t *testing.T) {
	empty := mock.NewEmpty(llm.ModeText)
	empty.SetResponse("recommend_movies", "no json here")

	tests := []struct {
		name     string
		provider *mock.Provider
		path     string
		wantCode int
	}{
		{"bad count", mock.New(), "/api/discovery/movies/rand/abc", http.StatusBadRequest},
		{"zero count", mock.New(), "/api/discovery/movies/rand/0", http.StatusBadRequest},
		{"unknown kind", mock.New(), "/api/discovery/podcasts/rand/3", http.StatusBadRequest},
		{"unknown kind in all", mock.New(), "/api/discovery/all/rand/3?kinds=movies,books", http.StatusBadRequest},
		{"provider failure", mock.NewEmpty(llm.ModeStructured), "/api/discovery/movies/rand/3", http.StatusBadGateway},
		{"malformed response", empty, "/api/discovery/movies/rand/3", http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := get(t, setupHandlers(t, tt.provider), tt.path)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, "error", resp.Status)
			assert.NotEmpty(t, resp.Message)
		})
	}
}
