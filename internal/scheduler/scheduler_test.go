package scheduler_test

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/traffic-weather-etl/internal/scheduler"
)

type countingRunner struct {
	calls atomic.Int32
	ran   chan struct{}
	err   error
}

func newCountingRunner(err error) *countingRunner {
	return &countingRunner{ran: make(chan struct{}, 16), err: err}
}

func (r *countingRunner) Run(_ context.Context) error {
	r.calls.Add(1)
	r.ran <- struct{}{}
	return r.err
}

func waitForRun(t *testing.T, r *countingRunner) {
	t.Helper()
	select {
	case <-r.ran:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for scheduled run")
	}
}

func TestScheduler_RunsImmediately(t *testing.T) {
	runner := newCountingRunner(nil)
	s := scheduler.New(runner, time.Hour, slog.Default())

	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Stop)

	waitForRun(t, runner)
	assert.Equal(t, int32(1), runner.calls.Load())
}

func TestScheduler_FailedRunKeepsSchedule(t *testing.T) {
	runner := newCountingRunner(errors.New("upstream down"))
	s := scheduler.New(runner, 100*time.Millisecond, slog.Default())

	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Stop)

	waitForRun(t, runner)
	waitForRun(t, runner)
	assert.GreaterOrEqual(t, runner.calls.Load(), int32(2))
}

func TestScheduler_CancelledContextSkipsRuns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := newCountingRunner(nil)
	s := scheduler.New(runner, 50*time.Millisecond, slog.Default())
	require.NoError(t, s.Start(ctx))
	t.Cleanup(s.Stop)

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), runner.calls.Load())
}

func TestScheduler_RejectsNonPositiveInterval(t *testing.T) {
	s := scheduler.New(newCountingRunner(nil), 0, slog.Default())
	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refresh interval must be positive")
}
