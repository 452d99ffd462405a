package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDailySpec(t *testing.T) {
	spec, err := buildDailySpec("09:05")
	require.NoError(t, err)
	assert.Equal(t, "0 5 9 * * *", spec)

	spec, err = buildDailySpec(" 23:59 ")
	require.NoError(t, err)
	assert.Equal(t, "0 59 23 * * *", spec)

	for _, bad := range []string{"", "9", "24:00", "12:60", "ab:cd", "1:2:3"} {
		_, err := buildDailySpec(bad)
		assert.Error(t, err, bad)
	}
}

func TestSchedulerRegistersJobs(t *testing.T) {
	s := NewSchedulerService(time.UTC, time.Second)
	noop := func(context.Context) error { return nil }

	_, err := s.ScheduleDaily("digest", "09:00", noop)
	require.NoError(t, err)
	_, err = s.ScheduleInterval("report", 6*time.Hour, noop)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	_, err = s.ScheduleDaily("broken", "25:00", noop)
	assert.Error(t, err)
	_, err = s.ScheduleInterval("broken", 0, noop)
	assert.Error(t, err)
	assert.Equal(t, 2, s.Len())

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}

func TestSchedulerRunsIntervalJob(t *testing.T) {
	s := NewSchedulerService(time.UTC, time.Second)
	ran := make(chan struct{}, 1)
	_, err := s.ScheduleInterval("tick", time.Second, func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		if hasDeadline {
			select {
			case ran <- struct{}{}:
			default:
			}
		}
		return nil
	})
	require.NoError(t, err)

	s.Start()
	defer func() { _ = s.Stop(context.Background()) }()

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("interval job did not run")
	}
}
