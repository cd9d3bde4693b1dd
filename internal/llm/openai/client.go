// Package openai implements the free-text provider. Function calling is not
// used; the reply is plain text that the discovery normalizer repairs and
// parses.
package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/baing/baing/internal/config"
	"github.com/baing/baing/internal/llm"
)

// Name is the provider identifier used in configuration.
const Name = config.ProviderOpenAI

// Client talks to the Chat Completions API.
type Client struct {
	httpClient *http.Client
	config     config.ProviderConfig
	logger     zerolog.Logger
}

// New creates a client. A missing API key is a configuration error.
func New(cfg config.ProviderConfig, httpClient *http.Client, logger zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &llm.ConfigError{Provider: Name, Setting: "OPENAI_API_KEY", Err: llm.ErrAPIKeyMissing}
	}
	if cfg.Model == "" {
		return nil, &llm.ConfigError{Provider: Name, Setting: "model", Err: errors.New("model is not configured")}
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout()}
	}

	return &Client{
		httpClient: httpClient,
		config:     cfg,
		logger:     logger.With().Str("component", "openai").Logger(),
	}, nil
}

func (c *Client) Name() string   { return Name }
func (c *Client) Mode() llm.Mode { return llm.ModeText }
func (c *Client) Model() string  { return c.config.Model }

// Test lists models to verify the key.
func (c *Client) Test(ctx context.Context) error {
	var result modelsResponse
	return c.doRequest(ctx, http.MethodGet, "/v1/models", nil, &result)
}

// Complete sends the directives as system and user messages. The schema is
// not transmitted; the user directive already spells out the contract.
func (c *Client) Complete(ctx context.Context, in llm.Instruction, _ llm.Schema) (*llm.Completion, error) {
	req := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: in.System},
			{Role: "user", Content: in.User},
		},
		MaxTokens: c.config.MaxTokens,
	}
	if c.config.Temperature > 0 {
		t := c.config.Temperature
		req.Temperature = &t
	}

	var resp chatResponse
	if err := c.doRequest(ctx, http.MethodPost, "/v1/chat/completions", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, &llm.ProviderError{Provider: Name, Err: llm.ErrEmptyCompletion}
	}

	choice := resp.Choices[0]
	c.logger.Debug().
		Str("model", resp.Model).
		Str("finishReason", choice.FinishReason).
		Int("promptTokens", resp.Usage.PromptTokens).
		Int("completionTokens", resp.Usage.CompletionTokens).
		Msg("Completion received")

	return &llm.Completion{
		Provider:   Name,
		Model:      resp.Model,
		Text:       choice.Message.Content,
		StopReason: choice.FinishReason,
		Usage:      llm.Usage{InputTokens: resp.Usage.PromptTokens, OutputTokens: resp.Usage.CompletionTokens},
	}, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.config.BaseURL, "/")+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("path", path).Msg("HTTP request failed")
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", llm.ErrProviderTimedOut, err)
		}
		return &llm.ProviderError{Provider: Name, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		message := http.StatusText(resp.StatusCode)
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error.Message != "" {
			message = errResp.Error.Message
		}
		c.logger.Error().Int("status", resp.StatusCode).Str("message", message).Msg("OpenAI API error")

		var cause error
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			cause = fmt.Errorf("%w: %s", llm.ErrUnauthorized, message)
		case http.StatusTooManyRequests:
			cause = fmt.Errorf("%w: %s", llm.ErrRateLimited, message)
		default:
			cause = fmt.Errorf("%w: %s", llm.ErrAPIError, message)
		}
		return &llm.ProviderError{Provider: Name, StatusCode: resp.StatusCode, Err: cause}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return &llm.ProviderError{Provider: Name, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
