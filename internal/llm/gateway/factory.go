package gateway

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/baing/baing/internal/config"
	"github.com/baing/baing/internal/llm"
	"github.com/baing/baing/internal/llm/anthropic"
	"github.com/baing/baing/internal/llm/mock"
	"github.com/baing/baing/internal/llm/openai"
)

// NewProvider builds the provider selected by cfg.Provider. Missing
// credentials surface here as *llm.ConfigError, before any request is sent.
func NewProvider(cfg config.DiscoveryConfig, httpClient *http.Client, logger zerolog.Logger) (llm.Provider, error) {
	switch cfg.Provider {
	case anthropic.Name:
		c, err := anthropic.New(cfg.Anthropic, httpClient, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	case openai.Name:
		c, err := openai.New(cfg.OpenAI, httpClient, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	case mock.Name:
		return mock.New(), nil
	case "":
		return nil, &llm.ConfigError{Setting: "discovery.provider", Err: errors.New("no provider selected")}
	default:
		return nil, &llm.ConfigError{Provider: cfg.Provider, Setting: "discovery.provider", Err: llm.ErrUnknownProvider}
	}
}
