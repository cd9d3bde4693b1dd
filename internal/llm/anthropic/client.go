// Package anthropic implements the structured-output provider. The model is
// forced to call a single tool whose input schema is the response contract,
// so the tool input arrives already shaped.
package anthropic

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

const (
	// Name is the provider identifier used in configuration.
	Name = config.ProviderAnthropic

	apiVersion       = "2023-06-01"
	defaultMaxTokens = 4096
)

// Client talks to the Anthropic Messages API.
type Client struct {
	httpClient *http.Client
	config     config.ProviderConfig
	logger     zerolog.Logger
}

// New creates a client. A missing API key is a configuration error.
func New(cfg config.ProviderConfig, httpClient *http.Client, logger zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &llm.ConfigError{Provider: Name, Setting: "ANTHROPIC_API_KEY", Err: llm.ErrAPIKeyMissing}
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
		logger:     logger.With().Str("component", "anthropic").Logger(),
	}, nil
}

func (c *Client) Name() string   { return Name }
func (c *Client) Mode() llm.Mode { return llm.ModeStructured }
func (c *Client) Model() string  { return c.config.Model }

// Test lists models to verify the key without spending tokens.
func (c *Client) Test(ctx context.Context) error {
	var result modelsResponse
	return c.doRequest(ctx, http.MethodGet, "/v1/models?limit=1", nil, &result)
}

// Complete forces a call to the schema tool and returns its input.
func (c *Client) Complete(ctx context.Context, in llm.Instruction, schema llm.Schema) (*llm.Completion, error) {
	maxTokens := c.config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	req := messagesRequest{
		Model:     c.config.Model,
		MaxTokens: maxTokens,
		System:    in.System,
		Messages:  []message{{Role: "user", Content: in.User}},
		Tools: []tool{{
			Name:        schema.Name,
			Description: schema.Description,
			InputSchema: schema.Document,
		}},
		ToolChoice: &toolChoice{Type: "tool", Name: schema.Name},
	}
	if c.config.Temperature > 0 {
		t := c.config.Temperature
		req.Temperature = &t
	}

	var resp messagesResponse
	if err := c.doRequest(ctx, http.MethodPost, "/v1/messages", req, &resp); err != nil {
		return nil, err
	}

	completion := &llm.Completion{
		Provider:   Name,
		Model:      resp.Model,
		StopReason: resp.StopReason,
		Usage:      llm.Usage{InputTokens: resp.Usage.InputTokens, OutputTokens: resp.Usage.OutputTokens},
	}

	var text strings.Builder
	for _, block := range resp.Content {
		switch block.Type {
		case "tool_use":
			if block.Name == schema.Name && len(block.Input) > 0 {
				completion.Structured = block.Input
			}
		case "text":
			text.WriteString(block.Text)
		}
	}

	// Without a tool call the prose goes to the normalizer.
	if !completion.IsStructured() {
		completion.Text = text.String()
	}
	if !completion.IsStructured() && strings.TrimSpace(completion.Text) == "" {
		return nil, &llm.ProviderError{Provider: Name, Err: llm.ErrEmptyCompletion}
	}

	c.logger.Debug().
		Str("model", resp.Model).
		Str("stopReason", resp.StopReason).
		Int("inputTokens", resp.Usage.InputTokens).
		Int("outputTokens", resp.Usage.OutputTokens).
		Bool("structured", completion.IsStructured()).
		Msg("Completion received")

	return completion, nil
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
	req.Header.Set("x-api-key", c.config.APIKey)
	req.Header.Set("anthropic-version", apiVersion)

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
		c.logger.Error().Int("status", resp.StatusCode).Str("message", message).Msg("Anthropic API error")

		return &llm.ProviderError{Provider: Name, StatusCode: resp.StatusCode, Err: statusError(resp.StatusCode, message)}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return &llm.ProviderError{Provider: Name, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

func statusError(status int, message string) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", llm.ErrUnauthorized, message)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", llm.ErrRateLimited, message)
	default:
		return fmt.Errorf("%w: %s", llm.ErrAPIError, message)
	}
}
