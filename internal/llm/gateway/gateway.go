// Package gateway fronts the configured LLM provider with a circuit breaker,
// error normalization, logging and metrics.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/baing/baing/internal/config"
	"github.com/baing/baing/internal/llm"
	"github.com/baing/baing/internal/logger"
	"github.com/baing/baing/internal/metrics"
)

const rawLogLimit = 2048

// Gateway dispatches completions to exactly one provider.
type Gateway struct {
	provider llm.Provider
	breaker  *gobreaker.CircuitBreaker[*llm.Completion]
	logger   zerolog.Logger
}

// New wraps provider. The breaker opens after cfg.ConsecutiveFailures
// consecutive failures and probes again after cfg.OpenSeconds.
func New(provider llm.Provider, cfg config.BreakerConfig, log zerolog.Logger) *Gateway {
	log = log.With().Str("component", "llm-gateway").Str("provider", provider.Name()).Logger()
	name := "llm-" + provider.Name()

	threshold := uint32(5)
	if cfg.ConsecutiveFailures > 0 {
		threshold = uint32(cfg.ConsecutiveFailures)
	}
	openFor := time.Duration(cfg.OpenSeconds) * time.Second
	if openFor <= 0 {
		openFor = time.Minute
	}

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	breaker := gobreaker.NewCircuitBreaker[*llm.Completion](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Caller cancellations say nothing about provider health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &Gateway{provider: provider, breaker: breaker, logger: log}
}

// ProviderName returns the active provider's name.
func (g *Gateway) ProviderName() string {
	return g.provider.Name()
}

// Mode returns the active provider's completion mode.
func (g *Gateway) Mode() llm.Mode {
	return g.provider.Mode()
}

// Complete sends one instruction. Every failure is returned as *llm.ProviderError.
func (g *Gateway) Complete(ctx context.Context, in llm.Instruction, schema llm.Schema) (*llm.Completion, error) {
	start := time.Now()
	completion, err := g.breaker.Execute(func() (*llm.Completion, error) {
		return g.provider.Complete(ctx, in, schema)
	})
	elapsed := time.Since(start)

	if err != nil {
		err = g.wrap(err)
		metrics.ProviderRequestDuration.WithLabelValues(g.provider.Name(), "error").Observe(elapsed.Seconds())
		g.logger.Error().Err(err).Str("schema", schema.Name).Dur("elapsed", elapsed).Msg("Completion failed")
		return nil, err
	}

	metrics.ProviderRequestDuration.WithLabelValues(g.provider.Name(), "success").Observe(elapsed.Seconds())
	metrics.ProviderTokens.WithLabelValues(g.provider.Name(), "input").Add(float64(completion.Usage.InputTokens))
	metrics.ProviderTokens.WithLabelValues(g.provider.Name(), "output").Add(float64(completion.Usage.OutputTokens))

	g.logger.Debug().
		Str("schema", schema.Name).
		Dur("elapsed", elapsed).
		Bool("structured", completion.IsStructured()).
		Str("raw", logger.Truncate(completion.Raw(), rawLogLimit)).
		Msg("Completion succeeded")

	return completion, nil
}

// Test checks provider connectivity and records the result.
func (g *Gateway) Test(ctx context.Context) error {
	err := g.provider.Test(ctx)
	up := 1.0
	if err != nil {
		up = 0
		err = g.wrap(err)
	}
	metrics.ProviderUp.WithLabelValues(g.provider.Name()).Set(up)
	return err
}

func (g *Gateway) wrap(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &llm.ProviderError{Provider: g.provider.Name(), Err: fmt.Errorf("%w: %w", llm.ErrCircuitOpen, err)}
	}
	if llm.IsProviderError(err) {
		return err
	}
	return &llm.ProviderError{Provider: g.provider.Name(), Err: err}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
