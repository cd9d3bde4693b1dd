package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/baing/baing/internal/config"
)

func newTestClient(server *httptest.Server) *Client {
	cfg := config.TMDBConfig{
		APIKey:         "test-api-key",
		BaseURL:        server.URL,
		ImageBaseURL:   "https://image.tmdb.org/t/p",
		TimeoutSeconds: 5,
	}
	return NewClient(cfg, zerolog.Nop())
}

func TestClient_IsConfigured(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
		want   bool
	}{
		{"with key", "abc123", true},
		{"without key", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(config.TMDBConfig{APIKey: tt.apiKey}, zerolog.Nop())
			if got := client.IsConfigured(); got != tt.want {
				t.Errorf("IsConfigured() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClient_SearchMovie(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/movie" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("query") != "Heat" {
			t.Errorf("unexpected query: %s", q.Get("query"))
		}
		if q.Get("primary_release_year") != "1995" {
			t.Errorf("unexpected year: %s", q.Get("primary_release_year"))
		}
		if q.Get("api_key") != "test-api-key" {
			t.Errorf("unexpected api key: %s", q.Get("api_key"))
		}

		poster := "/heat.jpg"
		_ = json.NewEncoder(w).Encode(SearchMoviesResponse{Results: []MovieResult{
			{ID: 1, Title: "Heat Wave", ReleaseDate: "1995-01-01"},
			{ID: 949, Title: "Heat", ReleaseDate: "1995-12-15", PosterPath: &poster, VoteAverage: 7.9},
		}})
	}))
	defer server.Close()

	details, err := newTestClient(server).SearchMovie(context.Background(), "Heat", 1995)
	if err != nil {
		t.Fatalf("SearchMovie() error = %v", err)
	}
	if details.ID != 949 {
		t.Errorf("ID = %d, want 949", details.ID)
	}
	if details.PosterPath != "https://image.tmdb.org/t/p/original/heat.jpg" {
		t.Errorf("PosterPath = %q", details.PosterPath)
	}
}

func TestClient_SearchTV(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/tv" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("first_air_date_year"); got != "2017" {
			t.Errorf("unexpected year: %s", got)
		}
		_ = json.NewEncoder(w).Encode(SearchTVResponse{Results: []TVResult{
			{ID: 70523, Name: "Dark", FirstAirDate: "2017-12-01", OriginCountry: []string{"DE"}},
		}})
	}))
	defer server.Close()

	details, err := newTestClient(server).SearchTV(context.Background(), "Dark", 2017)
	if err != nil {
		t.Fatalf("SearchTV() error = %v", err)
	}
	if details.Name != "Dark" || details.ID != 70523 {
		t.Errorf("unexpected details: %+v", details)
	}
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"no results", http.StatusOK, `{"results":[]}`, ErrNotFound},
		{"unauthorized", http.StatusUnauthorized, `{"status_message":"Invalid API key"}`, ErrAPIError},
		{"rate limited", http.StatusTooManyRequests, `{}`, ErrRateLimited},
		{"server error", http.StatusInternalServerError, `{}`, ErrAPIError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(server).SearchMovie(context.Background(), "Heat", 0)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestClient_WithAPIKey(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("api_key")
		_, _ = w.Write([]byte(`{"images":{"base_url":"x"}}`))
	}))
	defer server.Close()

	base := newTestClient(server)
	if base.WithAPIKey("") != base {
		t.Error("WithAPIKey(\"\") should return the same client")
	}
	if err := base.WithAPIKey("user-key").Test(context.Background()); err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	if gotKey != "user-key" {
		t.Errorf("api_key = %q, want user-key", gotKey)
	}
}

func TestClient_MissingKey(t *testing.T) {
	client := NewClient(config.TMDBConfig{}, zerolog.Nop())
	if _, err := client.SearchMovie(context.Background(), "Heat", 0); !errors.Is(err, ErrAPIKeyMissing) {
		t.Errorf("error = %v, want ErrAPIKeyMissing", err)
	}
}
