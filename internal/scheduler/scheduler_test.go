package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/evcraddock/rental-arb/internal/property"
)

type fakeRescorer struct {
	calls atomic.Int32
	err   error
}

func (f *fakeRescorer) RescoreAll(ctx context.Context) (property.RescoreSummary, error) {
	f.calls.Add(1)
	return property.RescoreSummary{Total: 3, Scored: 2, Failed: 1}, f.err
}

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	undo := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(undo)
	return logs
}

func TestAddInvalidSpec(t *testing.T) {
	s := New()
	err := s.Add("bad", "not a schedule", func(context.Context) error { return nil })
	assert.Error(t, err)
}

func TestAddEmptySpecDisables(t *testing.T) {
	logs := observe(t)
	s := New()

	require.NoError(t, s.AddRescore("", &fakeRescorer{}))
	assert.Empty(t, s.cron.Entries())
	assert.Equal(t, 1, logs.FilterMessage("job disabled").Len())
}

func TestAddRescoreRuns(t *testing.T) {
	logs := observe(t)
	s := New()
	r := &fakeRescorer{}

	require.NoError(t, s.AddRescore("@every 1s", r))
	require.Len(t, s.cron.Entries(), 1)

	s.Start()
	assert.Eventually(t, func() bool { return r.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	entries := logs.FilterMessage("rescore finished").All()
	require.NotEmpty(t, entries)
	assert.EqualValues(t, 2, entries[0].ContextMap()["scored"])
}

func TestRunLogsFailure(t *testing.T) {
	logs := observe(t)
	s := New()

	s.run("rescore", func(context.Context) error { return errors.New("db locked") })

	entries := logs.FilterMessage("scheduled job failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "rescore", entries[0].ContextMap()["job"])
}

func TestStopCancelsRunningJob(t *testing.T) {
	s := New()
	started := make(chan struct{})
	finished := make(chan error, 1)

	go s.run("slow", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		finished <- ctx.Err()
		return ctx.Err()
	})

	<-started
	require.NoError(t, s.Stop(context.Background()))
	assert.ErrorIs(t, <-finished, context.Canceled)
}
