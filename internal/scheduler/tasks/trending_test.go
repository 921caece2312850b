package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moviedeck/moviedeck/internal/config"
	"github.com/moviedeck/moviedeck/internal/scheduler"
)

type fakeRefresher struct {
	calls int
	err   error
}

func (f *fakeRefresher) FetchTrending(context.Context) error {
	f.calls++
	return f.err
}

func TestTrendingRefreshTask_Run(t *testing.T) {
	r := &fakeRefresher{}
	task := NewTrendingRefreshTask(r, zerolog.Nop())

	require.NoError(t, task.Run(context.Background()))
	assert.Equal(t, 1, r.calls)

	r.err = errors.New("catalog down")
	assert.Error(t, task.Run(context.Background()))
}

func TestRegisterTrendingRefreshTask(t *testing.T) {
	sched, err := scheduler.New(zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sched.Stop() })

	cfg := &config.SchedulerConfig{TrendingRefreshCron: "0 */6 * * *"}
	require.NoError(t, RegisterTrendingRefreshTask(sched, &fakeRefresher{}, cfg, zerolog.Nop()))

	info, err := sched.GetTask(TrendingRefreshTaskID)
	require.NoError(t, err)
	assert.Equal(t, "0 */6 * * *", info.Cron)
}

func TestRegisterTrendingRefreshTask_Disabled(t *testing.T) {
	sched, err := scheduler.New(zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sched.Stop() })

	require.NoError(t, RegisterTrendingRefreshTask(sched, &fakeRefresher{}, &config.SchedulerConfig{}, zerolog.Nop()))
	assert.Empty(t, sched.ListTasks())
}
