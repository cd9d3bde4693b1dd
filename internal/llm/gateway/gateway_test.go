package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baing/baing/internal/config"
	"github.com/baing/baing/internal/llm"
	"github.com/baing/baing/internal/llm/mock"
)

func TestNewProviderSelection(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.DiscoveryConfig
		wantName string
		wantErr  error
	}{
		{
			name:     "anthropic",
			cfg:      config.DiscoveryConfig{Provider: "anthropic", Anthropic: config.ProviderConfig{APIKey: "k", Model: "m"}},
			wantName: "anthropic",
		},
		{
			name:     "openai",
			cfg:      config.DiscoveryConfig{Provider: "openai", OpenAI: config.ProviderConfig{APIKey: "k", Model: "m"}},
			wantName: "openai",
		},
		{name: "mock", cfg: config.DiscoveryConfig{Provider: "mock"}, wantName: "mock"},
		{
			name:    "anthropic without key",
			cfg:     config.DiscoveryConfig{Provider: "anthropic", Anthropic: config.ProviderConfig{Model: "m"}, OpenAI: config.ProviderConfig{APIKey: "k", Model: "m"}},
			wantErr: llm.ErrAPIKeyMissing,
		},
		{name: "unknown", cfg: config.DiscoveryConfig{Provider: "gemini"}, wantErr: llm.ErrUnknownProvider},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.cfg, nil, zerolog.Nop())
			if tt.wantErr != nil {
				var ce *llm.ConfigError
				require.ErrorAs(t, err, &ce)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name())
		})
	}
}

func TestCompleteWrapsErrors(t *testing.T) {
	p := mock.NewEmpty(llm.ModeText)
	p.SetResponse("ok", `{"movies":[]}`)
	g := New(p, config.BreakerConfig{ConsecutiveFailures: 100}, zerolog.Nop())

	c, err := g.Complete(context.Background(), llm.Instruction{}, llm.Schema{Name: "ok"})
	require.NoError(t, err)
	assert.Equal(t, `{"movies":[]}`, c.Text)

	_, err = g.Complete(context.Background(), llm.Instruction{}, llm.Schema{Name: "missing"})
	assert.True(t, llm.IsProviderError(err))
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	p := mock.NewEmpty(llm.ModeStructured)
	p.SetError("s", errors.New("upstream 500"))
	g := New(p, config.BreakerConfig{ConsecutiveFailures: 2, OpenSeconds: 60}, zerolog.Nop())

	for i := 0; i < 2; i++ {
		_, err := g.Complete(context.Background(), llm.Instruction{}, llm.Schema{Name: "s"})
		require.Error(t, err)
	}

	_, err := g.Complete(context.Background(), llm.Instruction{}, llm.Schema{Name: "s"})
	assert.ErrorIs(t, err, llm.ErrCircuitOpen)
	assert.True(t, llm.IsProviderError(err))
	assert.Len(t, p.Calls(), 2, "open breaker must not reach the provider")
}

func TestGatewayTest(t *testing.T) {
	p := mock.NewEmpty(llm.ModeStructured)
	g := New(p, config.BreakerConfig{}, zerolog.Nop())
	assert.NoError(t, g.Test(context.Background()))

	p.SetTestError(errors.New("down"))
	assert.True(t, llm.IsProviderError(g.Test(context.Background())))
}
