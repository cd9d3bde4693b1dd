package tasks

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/baing/baing/internal/scheduler"
)

const HousekeepingTaskID = "housekeeping"

// limiterIdle is how long a per-user limiter may sit unused before it is
// dropped.
const limiterIdle = time.Hour

type Sweeper interface {
	Sweep() int
}

type UserPruner interface {
	Prune(idle time.Duration) int
}

type LoginPruner interface {
	Prune() int
}

// Housekeeping releases memory held by caches and rate limiters.
type Housekeeping struct {
	Cache  Sweeper
	Users  UserPruner
	Logins LoginPruner
	logger zerolog.Logger
}

func NewHousekeeping(cache Sweeper, users UserPruner, logins LoginPruner, logger zerolog.Logger) *Housekeeping {
	return &Housekeeping{
		Cache:  cache,
		Users:  users,
		Logins: logins,
		logger: logger.With().Str("task", HousekeepingTaskID).Logger(),
	}
}

// Run sweeps every configured target. Nil targets are skipped.
func (h *Housekeeping) Run(ctx context.Context) error {
	var expired, users, logins int
	if h.Cache != nil {
		expired = h.Cache.Sweep()
	}
	if h.Users != nil {
		users = h.Users.Prune(limiterIdle)
	}
	if h.Logins != nil {
		logins = h.Logins.Prune()
	}

	h.logger.Debug().
		Int("cacheExpired", expired).
		Int("userLimiters", users).
		Int("loginRecords", logins).
		Msg("Housekeeping finished")
	return ctx.Err()
}

func (h *Housekeeping) Register(sched *scheduler.Scheduler, cron string) error {
	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          HousekeepingTaskID,
		Name:        "Housekeeping",
		Description: "Evicts expired cache entries and idle rate limiters",
		Cron:        cron,
		Timeout:     time.Minute,
		Func:        h.Run,
	})
}
