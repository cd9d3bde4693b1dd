package startup

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/baing/baing/internal/llm"
	"github.com/baing/baing/internal/testutil"
)

func fastRetry() RetryConfig {
	return RetryConfig{InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, MaxAttempts: 3, Multiplier: 2}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"dial", errors.New("dial tcp 127.0.0.1:443: connection refused"), true},
		{"rate limited", &llm.ProviderError{Provider: "openai", StatusCode: 429, Err: llm.ErrRateLimited}, true},
		{"upstream 503", &llm.ProviderError{Provider: "anthropic", StatusCode: 503, Err: llm.ErrAPIError}, true},
		{"bad request", &llm.ProviderError{Provider: "anthropic", StatusCode: 400, Err: llm.ErrAPIError}, false},
		{"unauthorized", &llm.ProviderError{Provider: "anthropic", StatusCode: 401, Err: llm.ErrUnauthorized}, false},
		{"config", &llm.ConfigError{Provider: "openai", Setting: "api_key", Err: llm.ErrAPIKeyMissing}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWithRetry_Recovers(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), "probe", fastRetry(), func(context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("dial tcp: i/o timeout")
		}
		return nil
	}, testutil.NopLogger())

	if err != nil {
		t.Fatalf("WithRetry() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithRetry_StopsOnPermanentError(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), "probe", fastRetry(), func(context.Context) error {
		calls++
		return llm.ErrUnauthorized
	}, testutil.NopLogger())

	if !errors.Is(err, llm.ErrUnauthorized) {
		t.Errorf("WithRetry() error = %v, want ErrUnauthorized", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWithRetry_GivesUp(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), "probe", fastRetry(), func(context.Context) error {
		calls++
		return errors.New("connection reset by peer")
	}, testutil.NopLogger())

	if err == nil {
		t.Fatal("WithRetry() succeeded, want error")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}
