package cron

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bnema/zerowrap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/dockyard/internal/domain"
)

func TestNextRunPresets(t *testing.T) {
	now := time.Date(2026, 2, 7, 12, 34, 20, 0, time.UTC) // a Saturday

	tests := []struct {
		preset   domain.SchedulePreset
		expected time.Time
	}{
		{domain.ScheduleHourly, time.Date(2026, 2, 7, 13, 0, 0, 0, time.UTC)},
		{domain.ScheduleDaily, time.Date(2026, 2, 8, 2, 0, 0, 0, time.UTC)},
		{domain.ScheduleWeekly, time.Date(2026, 2, 8, 3, 0, 0, 0, time.UTC)},
		{domain.ScheduleMonthly, time.Date(2026, 3, 1, 4, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(string(tt.preset), func(t *testing.T) {
			next, err := nextRun(now, domain.CronSchedule{Preset: tt.preset})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, next)
		})
	}
}

func TestNextRunSameDayBeforeBoundary(t *testing.T) {
	now := time.Date(2026, 2, 8, 1, 0, 0, 0, time.UTC) // Sunday

	daily, err := nextRun(now, domain.CronSchedule{Preset: domain.ScheduleDaily})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 8, 2, 0, 0, 0, time.UTC), daily)

	weekly, err := nextRun(now, domain.CronSchedule{Preset: domain.ScheduleWeekly})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 8, 3, 0, 0, 0, time.UTC), weekly)

	_, err = nextRun(now, domain.CronSchedule{Preset: "fortnightly"})
	assert.Error(t, err)
}

func TestParsePreset(t *testing.T) {
	preset, err := ParsePreset(" Daily ")
	require.NoError(t, err)
	assert.Equal(t, domain.ScheduleDaily, preset)

	_, err = ParsePreset("every-5m")
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestSchedulerAddListAndRunNow(t *testing.T) {
	s := NewScheduler(zerowrap.Default())
	now := time.Date(2026, 2, 7, 12, 0, 0, 0, time.UTC)
	s.nowFn = func() time.Time { return now }

	runs := 0
	err := s.Add("sync-daily", "catalogue sync", domain.CronSchedule{Preset: domain.ScheduleDaily}, func(context.Context) error {
		runs++
		return nil
	})
	require.NoError(t, err)

	err = s.Add("sync-daily", "duplicate", domain.CronSchedule{Preset: domain.ScheduleDaily}, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	require.NoError(t, s.RunNow(context.Background(), "sync-daily"))
	assert.Equal(t, 1, runs)

	entries := s.List()
	require.Len(t, entries, 1)
	assert.Equal(t, "catalogue sync", entries[0].Name)
	assert.Equal(t, now, entries[0].LastRun)
	assert.Equal(t, time.Date(2026, 2, 8, 2, 0, 0, 0, time.UTC), entries[0].NextRun)

	assert.ErrorIs(t, s.RunNow(context.Background(), "missing"), ErrJobNotFound)
}

func TestSchedulerMaxJobs(t *testing.T) {
	s := NewScheduler(zerowrap.Default(), WithMaxJobs(1))
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.Add("a", "a", domain.CronSchedule{Preset: domain.ScheduleHourly}, noop))
	assert.Error(t, s.Add("b", "b", domain.CronSchedule{Preset: domain.ScheduleHourly}, noop))
}

func TestSchedulerRejectsConcurrentRunAndRemove(t *testing.T) {
	s := NewScheduler(zerowrap.Default())

	started := make(chan struct{})
	release := make(chan struct{})
	err := s.Add("sync-hourly", "hourly sync", domain.CronSchedule{Preset: domain.ScheduleHourly}, func(context.Context) error {
		close(started)
		<-release
		return nil
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		firstErr = s.RunNow(context.Background(), "sync-hourly")
	}()

	<-started
	assert.ErrorIs(t, s.RunNow(context.Background(), "sync-hourly"), ErrJobRunning)
	assert.ErrorIs(t, s.Remove("sync-hourly"), ErrJobRunning)

	close(release)
	wg.Wait()
	require.NoError(t, firstErr)
	require.NoError(t, s.Remove("sync-hourly"))
	assert.Empty(t, s.List())
}

func TestSchedulerRecoversFromPanics(t *testing.T) {
	s := NewScheduler(zerowrap.Default())
	err := s.Add("panic-job", "panic job", domain.CronSchedule{Preset: domain.ScheduleHourly}, func(context.Context) error {
		panic("boom")
	})
	require.NoError(t, err)

	err = s.RunNow(context.Background(), "panic-job")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")

	entries := s.List()
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Running)
	assert.False(t, entries[0].LastRun.IsZero())
}

func TestSchedulerNextRunFromFinishTime(t *testing.T) {
	s := NewScheduler(zerowrap.Default())
	var mu sync.Mutex
	current := time.Date(2026, 2, 7, 12, 59, 0, 0, time.UTC)
	s.nowFn = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}

	err := s.Add("sync-hourly", "hourly sync", domain.CronSchedule{Preset: domain.ScheduleHourly}, func(context.Context) error {
		mu.Lock()
		current = time.Date(2026, 2, 7, 13, 1, 0, 0, time.UTC)
		mu.Unlock()
		return errors.New("registry unreachable")
	})
	require.NoError(t, err)

	assert.Error(t, s.RunNow(context.Background(), "sync-hourly"))

	entries := s.List()
	require.Len(t, entries, 1)
	assert.Equal(t, time.Date(2026, 2, 7, 14, 0, 0, 0, time.UTC), entries[0].NextRun)
}

func TestSchedulerRunsDueJobs(t *testing.T) {
	s := NewScheduler(zerowrap.Default(), WithTick(5*time.Millisecond))

	var runs atomic.Int32
	err := s.Add("sync", "sync", domain.CronSchedule{Preset: domain.ScheduleHourly}, func(context.Context) error {
		runs.Add(1)
		return nil
	})
	require.NoError(t, err)

	s.mu.Lock()
	s.entries["sync"].nextRun = time.Now().Add(-time.Minute)
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	require.Eventually(t, func() bool { return runs.Load() >= 1 }, time.Second, 5*time.Millisecond)
	s.Stop()

	assert.Equal(t, int32(1), runs.Load(), "next run moved an hour ahead")
}

func TestSchedulerStartNoOpWhenStoppedOrCanceled(t *testing.T) {
	for _, name := range []string{"stopped", "canceled"} {
		t.Run(name, func(t *testing.T) {
			s := NewScheduler(zerowrap.Default(), WithTick(time.Millisecond))

			var runs atomic.Int32
			require.NoError(t, s.Add("job", "job", domain.CronSchedule{Preset: domain.ScheduleDaily}, func(context.Context) error {
				runs.Add(1)
				return nil
			}))
			s.mu.Lock()
			s.entries["job"].nextRun = time.Now().Add(-time.Minute)
			s.mu.Unlock()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if name == "stopped" {
				s.Stop()
			} else {
				cancel()
			}

			s.Start(ctx)
			time.Sleep(20 * time.Millisecond)

			assert.Zero(t, runs.Load())
			assert.False(t, s.started.Load())
		})
	}
}
