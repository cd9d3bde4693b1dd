package tasks

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/baing/baing/internal/scheduler"
)

const ProviderHealthTaskID = "llm-provider-health"

// ProviderTester checks the configured recommendation provider.
type ProviderTester interface {
	ProviderName() string
	Test(ctx context.Context) error
}

// RegisterProviderHealthTask probes the LLM provider on a schedule so the
// provider_up gauge stays current between discovery requests.
func RegisterProviderHealthTask(sched *scheduler.Scheduler, cron string, provider ProviderTester, logger zerolog.Logger) error {
	log := logger.With().Str("task", ProviderHealthTaskID).Logger()
	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          ProviderHealthTaskID,
		Name:        "LLM Provider Health",
		Description: "Checks that the recommendation provider is reachable",
		Cron:        cron,
		Timeout:     30 * time.Second,
		Func: func(ctx context.Context) error {
			if err := provider.Test(ctx); err != nil {
				log.Warn().Err(err).Str("provider", provider.ProviderName()).Msg("Provider health check failed")
				return err
			}
			return nil
		},
	})
}
