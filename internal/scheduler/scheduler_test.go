package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New(zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func TestRegisterTask(t *testing.T) {
	s := newTestScheduler(t)
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.RegisterTask(TaskConfig{ID: "b", Name: "B", Cron: "0 * * * *", Func: noop}))
	require.NoError(t, s.RegisterTask(TaskConfig{ID: "a", Name: "A", Cron: "0 0 * * *", Func: noop}))

	err := s.RegisterTask(TaskConfig{ID: "a", Name: "A", Cron: "0 0 * * *", Func: noop})
	assert.True(t, errors.Is(err, ErrTaskAlreadyExists))

	err = s.RegisterTask(TaskConfig{ID: "bad", Name: "Bad", Cron: "not a cron", Func: noop})
	assert.Error(t, err)

	tasks := s.ListTasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "a", tasks[0].ID)
	assert.Equal(t, "b", tasks[1].ID)
}

func TestRunNow(t *testing.T) {
	s := newTestScheduler(t)
	s.Start()

	var runs atomic.Int32
	require.NoError(t, s.RegisterTask(TaskConfig{
		ID:   "refresh",
		Name: "Refresh",
		Cron: "0 0 1 1 *",
		Func: func(context.Context) error {
			runs.Add(1)
			return errors.New("catalog down")
		},
	}))

	require.NoError(t, s.RunNow("refresh"))
	require.Eventually(t, func() bool {
		info, err := s.GetTask("refresh")
		return err == nil && info.LastRun != nil && !info.Running
	}, 2*time.Second, 10*time.Millisecond)

	info, err := s.GetTask("refresh")
	require.NoError(t, err)
	assert.Equal(t, "catalog down", info.LastError)
	assert.NotNil(t, info.NextRun)
	assert.EqualValues(t, 1, runs.Load())

	assert.True(t, errors.Is(s.RunNow("missing"), ErrTaskNotFound))
	_, err = s.GetTask("missing")
	assert.True(t, errors.Is(err, ErrTaskNotFound))
}

func TestRunNow_RejectsWhileRunning(t *testing.T) {
	s := newTestScheduler(t)

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, s.RegisterTask(TaskConfig{
		ID:   "slow",
		Name: "Slow",
		Cron: "0 0 1 1 *",
		Func: func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		},
	}))

	require.NoError(t, s.RunNow("slow"))
	<-started
	assert.True(t, errors.Is(s.RunNow("slow"), ErrTaskRunning))
	close(release)
}

func TestStart_RunsOnStartTasks(t *testing.T) {
	s := newTestScheduler(t)

	ran := make(chan struct{}, 1)
	require.NoError(t, s.RegisterTask(TaskConfig{
		ID:         "startup",
		Name:       "Startup",
		Cron:       "0 0 1 1 *",
		RunOnStart: true,
		Func: func(context.Context) error {
			ran <- struct{}{}
			return nil
		},
	}))

	s.Start()
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("RunOnStart task did not run")
	}
}

func TestStop_CancelsTaskContext(t *testing.T) {
	s, err := New(zerolog.Nop())
	require.NoError(t, err)

	started := make(chan struct{})
	require.NoError(t, s.RegisterTask(TaskConfig{
		ID:   "long",
		Name: "Long",
		Cron: "0 0 1 1 *",
		Func: func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		},
	}))
	s.Start()
	require.NoError(t, s.RunNow("long"))
	<-started

	done := make(chan struct{})
	go func() {
		_ = s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}
