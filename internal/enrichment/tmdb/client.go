// Package tmdb looks up catalog records for movies and TV shows.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/baing/baing/internal/config"
	"github.com/baing/baing/internal/media"
)

var (
	ErrAPIKeyMissing = errors.New("TMDB API key is not configured")
	ErrNotFound      = errors.New("no TMDB match")
	ErrAPIError      = errors.New("TMDB API error")
	ErrRateLimited   = errors.New("TMDB API rate limited")
)

// Client is a TMDB API client.
type Client struct {
	httpClient *http.Client
	config     config.TMDBConfig
	logger     zerolog.Logger
}

// NewClient creates a new TMDB client.
func NewClient(cfg config.TMDBConfig, logger zerolog.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		config:     cfg,
		logger:     logger.With().Str("component", "tmdb").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "tmdb"
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// WithAPIKey returns a client sharing this one's transport that
// authenticates with key. An empty key returns c.
func (c *Client) WithAPIKey(key string) *Client {
	if key == "" || key == c.config.APIKey {
		return c
	}
	clone := *c
	clone.config.APIKey = key
	return &clone
}

// Test verifies connectivity to the TMDB API by making a configuration request.
func (c *Client) Test(ctx context.Context) error {
	if !c.IsConfigured() {
		return ErrAPIKeyMissing
	}

	var result struct {
		Images struct {
			BaseURL string `json:"base_url"`
		} `json:"images"`
	}
	return c.doRequest(ctx, "/configuration", url.Values{}, &result)
}

// SearchMovie returns the best match for a title released in year. A zero
// year searches all years.
func (c *Client) SearchMovie(ctx context.Context, title string, year int) (*media.MovieDetails, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	params := url.Values{}
	params.Set("query", title)
	params.Set("include_adult", "false")
	if year > 0 {
		params.Set("primary_release_year", fmt.Sprintf("%d", year))
	}

	var response SearchMoviesResponse
	if err := c.doRequest(ctx, "/search/movie", params, &response); err != nil {
		return nil, err
	}
	if len(response.Results) == 0 {
		return nil, fmt.Errorf("%w: movie %q (%d)", ErrNotFound, title, year)
	}

	best := response.Results[0]
	for _, r := range response.Results {
		if strings.EqualFold(r.Title, title) || strings.EqualFold(r.OriginalTitle, title) {
			best = r
			break
		}
	}

	c.logger.Debug().
		Str("query", title).
		Int("year", year).
		Int("results", len(response.Results)).
		Int64("id", best.ID).
		Msg("Movie search completed")

	return c.toMovieDetails(best), nil
}

// SearchTV returns the best match for a series that first aired in year.
func (c *Client) SearchTV(ctx context.Context, name string, year int) (*media.TvShowDetails, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	params := url.Values{}
	params.Set("query", name)
	params.Set("include_adult", "false")
	if year > 0 {
		params.Set("first_air_date_year", fmt.Sprintf("%d", year))
	}

	var response SearchTVResponse
	if err := c.doRequest(ctx, "/search/tv", params, &response); err != nil {
		return nil, err
	}
	if len(response.Results) == 0 {
		return nil, fmt.Errorf("%w: series %q (%d)", ErrNotFound, name, year)
	}

	best := response.Results[0]
	for _, r := range response.Results {
		if strings.EqualFold(r.Name, name) || strings.EqualFold(r.OriginalName, name) {
			best = r
			break
		}
	}

	c.logger.Debug().
		Str("query", name).
		Int("year", year).
		Int("results", len(response.Results)).
		Int64("id", best.ID).
		Msg("Series search completed")

	return c.toTvShowDetails(best), nil
}

func (c *Client) doRequest(ctx context.Context, path string, params url.Values, result any) error {
	params.Set("api_key", c.config.APIKey)
	if c.config.Language != "" {
		params.Set("language", c.config.Language)
	}
	endpoint := strings.TrimRight(c.config.BaseURL, "/") + path
	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("url", endpoint).Msg("HTTP request failed")
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			c.logger.Error().
				Int("status", resp.StatusCode).
				Str("message", errResp.StatusMessage).
				Msg("TMDB API error")
		}

		switch resp.StatusCode {
		case http.StatusNotFound:
			return ErrNotFound
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: invalid API key", ErrAPIError)
		case http.StatusTooManyRequests:
			return ErrRateLimited
		default:
			return fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) toMovieDetails(r MovieResult) *media.MovieDetails {
	return &media.MovieDetails{
		ID:               r.ID,
		Title:            r.Title,
		OriginalTitle:    r.OriginalTitle,
		OriginalLanguage: r.OriginalLanguage,
		Overview:         r.Overview,
		ReleaseDate:      r.ReleaseDate,
		PosterPath:       c.imageURL(r.PosterPath),
		BackdropPath:     c.imageURL(r.BackdropPath),
		GenreIDs:         r.GenreIDs,
		Popularity:       r.Popularity,
		VoteAverage:      r.VoteAverage,
		VoteCount:        r.VoteCount,
		Adult:            r.Adult,
	}
}

func (c *Client) toTvShowDetails(r TVResult) *media.TvShowDetails {
	return &media.TvShowDetails{
		ID:               r.ID,
		Name:             r.Name,
		OriginalName:     r.OriginalName,
		OriginalLanguage: r.OriginalLanguage,
		Overview:         r.Overview,
		FirstAirDate:     r.FirstAirDate,
		OriginCountry:    r.OriginCountry,
		PosterPath:       c.imageURL(r.PosterPath),
		BackdropPath:     c.imageURL(r.BackdropPath),
		GenreIDs:         r.GenreIDs,
		Popularity:       r.Popularity,
		VoteAverage:      r.VoteAverage,
		VoteCount:        r.VoteCount,
	}
}

// imageURL expands a TMDB image path to a full URL at original size.
func (c *Client) imageURL(path *string) string {
	if path == nil || *path == "" {
		return ""
	}
	if c.config.ImageBaseURL == "" {
		return *path
	}
	return strings.TrimRight(c.config.ImageBaseURL, "/") + "/original" + *path
}
