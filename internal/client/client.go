// Package client is a typed client for the bAIng HTTP API.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/baing/baing/internal/collections"
	"github.com/baing/baing/internal/media"
)

var (
	ErrNotAuthenticated = errors.New("not logged in")
	ErrUnexpectedStatus = errors.New("unexpected response status")
)

// APIError is an error envelope returned by the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// Warning is a kind that failed inside a mixed discovery request.
type Warning struct {
	Kind    media.Kind `json:"kind"`
	Message string     `json:"message"`
}

// Discovery is the result of a mixed-kind discovery request.
type Discovery struct {
	Items    []media.Item `json:"items"`
	Warnings []Warning    `json:"warnings"`
	Version  int          `json:"version"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	logger     zerolog.Logger
}

func New(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With().Str("component", "api-client").Logger(),
	}
}

// SetToken uses an existing session token.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) Token() string {
	return c.token
}

// Login starts a session and keeps its token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var session struct {
		Token string `json:"token"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &session); err != nil {
		return err
	}
	c.token = session.Token
	return nil
}

// Collections returns all of the user's collections.
func (c *Client) Collections(ctx context.Context) ([]collections.UserCollection, error) {
	var resp collections.ListResponse
	if err := c.do(ctx, http.MethodGet, "/api/collections", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Collections, nil
}

// ReplaceCollection sends col as the new full document for its id.
func (c *Client) ReplaceCollection(ctx context.Context, col collections.UserCollection) (*collections.UserCollection, error) {
	var updated collections.UserCollection
	if err := c.do(ctx, http.MethodPatch, "/api/collection/"+col.ID.String(), col, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Discover asks for count recommendations spread over kinds.
func (c *Client) Discover(ctx context.Context, kinds []media.Kind, count int, query string) (*Discovery, error) {
	params := url.Values{}
	if query != "" {
		params.Set("query", query)
	}
	if len(kinds) > 0 {
		slugs := make([]string, len(kinds))
		for i, k := range kinds {
			slugs[i] = k.Slug()
		}
		params.Set("kinds", strings.Join(slugs, ","))
	}

	path := "/api/discovery/all/rand/" + strconv.Itoa(count)
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var result Discovery
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Enrich returns items with catalog details attached where available.
func (c *Client) Enrich(ctx context.Context, items []media.Item) ([]media.Item, error) {
	var batch struct {
		Items []media.Item `json:"items"`
	}
	batch.Items = items
	if err := c.do(ctx, http.MethodPost, "/api/enrichment", batch, &batch); err != nil {
		return nil, err
	}
	return batch.Items, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 300 {
			return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s", ErrNotAuthenticated, env.Message)
	}
	if resp.StatusCode >= 300 || env.Status != "success" {
		c.logger.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("API error")
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}

	if result == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, result); err != nil {
		return fmt.Errorf("failed to decode data: %w", err)
	}
	return nil
}
