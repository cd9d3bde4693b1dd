package llm

import (
	"errors"
	"fmt"
)

var (
	ErrAPIKeyMissing    = errors.New("API key not configured")
	ErrUnknownProvider  = errors.New("unknown provider")
	ErrUnauthorized     = errors.New("provider rejected credentials")
	ErrRateLimited      = errors.New("provider rate limit exceeded")
	ErrAPIError         = errors.New("provider API error")
	ErrEmptyCompletion  = errors.New("provider returned no content")
	ErrCircuitOpen      = errors.New("provider temporarily disabled after repeated failures")
	ErrProviderTimedOut = errors.New("provider request timed out")
)

// ConfigError is a fatal misconfiguration detected before any network call.
type ConfigError struct {
	Provider string
	Setting  string
	Err      error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error for provider %q (%s): %v", e.Provider, e.Setting, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ProviderError wraps any transport or upstream failure of a provider call.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider %s failed with status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("provider %s failed: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsProviderError reports whether err is or wraps a ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
