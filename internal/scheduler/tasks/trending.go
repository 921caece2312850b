package tasks

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/moviedeck/moviedeck/internal/config"
	"github.com/moviedeck/moviedeck/internal/scheduler"
)

const TrendingRefreshTaskID = "trending-refresh"

// TrendingRefresher reloads the trending list.
type TrendingRefresher interface {
	FetchTrending(ctx context.Context) error
}

// TrendingRefreshTask keeps the trending list current between visits.
type TrendingRefreshTask struct {
	movies TrendingRefresher
	logger zerolog.Logger
}

// NewTrendingRefreshTask creates a new trending refresh task.
func NewTrendingRefreshTask(movies TrendingRefresher, logger zerolog.Logger) *TrendingRefreshTask {
	return &TrendingRefreshTask{
		movies: movies,
		logger: logger.With().Str("task", TrendingRefreshTaskID).Logger(),
	}
}

// Run refreshes the trending list.
func (t *TrendingRefreshTask) Run(ctx context.Context) error {
	t.logger.Debug().Msg("Refreshing trending movies")
	return t.movies.FetchTrending(ctx)
}

// RegisterTrendingRefreshTask registers the trending refresh with the
// scheduler. An empty cron expression disables it.
func RegisterTrendingRefreshTask(
	sched *scheduler.Scheduler,
	movies TrendingRefresher,
	cfg *config.SchedulerConfig,
	logger zerolog.Logger,
) error {
	if cfg.TrendingRefreshCron == "" {
		return nil
	}

	task := NewTrendingRefreshTask(movies, logger)
	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          TrendingRefreshTaskID,
		Name:        "Trending Refresh",
		Description: "Reloads the weekly trending movies from the catalog",
		Cron:        cfg.TrendingRefreshCron,
		RunOnStart:  true,
		Func:        task.Run,
	})
}
