// Package scheduler runs periodic maintenance jobs such as rescoring every
// listing.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/evcraddock/rental-arb/internal/property"
)

// jobTimeout bounds a single run of any job.
const jobTimeout = 30 * time.Minute

// Rescorer recomputes lead scores for every listing.
type Rescorer interface {
	RescoreAll(ctx context.Context) (property.RescoreSummary, error)
}

// Scheduler wraps a cron runner. Overlapping runs of the same job are
// skipped.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a stopped scheduler.
func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger{}),
			cron.SkipIfStillRunning(cronLogger{}),
		)),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers fn under a cron spec (standard five fields or a
// descriptor such as @daily). An empty spec disables the job.
func (s *Scheduler) Add(name, spec string, fn func(ctx context.Context) error) error {
	if spec == "" {
		zap.L().Info("job disabled", zap.String("job", name))
		return nil
	}

	_, err := s.cron.AddFunc(spec, func() { s.run(name, fn) })
	if err != nil {
		return eris.Wrapf(err, "scheduling %s with %q", name, spec)
	}

	zap.L().Info("job scheduled", zap.String("job", name), zap.String("schedule", spec))
	return nil
}

// AddRescore schedules RescoreAll and logs each run's summary.
func (s *Scheduler) AddRescore(spec string, r Rescorer) error {
	return s.Add("rescore", spec, func(ctx context.Context) error {
		summary, err := r.RescoreAll(ctx)
		zap.L().Info("rescore finished",
			zap.Int("total", summary.Total),
			zap.Int("scored", summary.Scored),
			zap.Int("failed", summary.Failed),
		)
		return err
	})
}

// Start runs the scheduler in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling, cancels running jobs and waits for them to return
// or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return eris.Wrap(ctx.Err(), "waiting for scheduled jobs")
	}
}

func (s *Scheduler) run(name string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()

	start := time.Now()
	if err := fn(ctx); err != nil {
		zap.L().Error("scheduled job failed",
			zap.String("job", name),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return
	}

	zap.L().Debug("scheduled job completed", zap.String("job", name), zap.Duration("duration", time.Since(start)))
}

// cronLogger adapts the global zap logger to cron.Logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	zap.L().Sugar().Debugw(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	zap.L().Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
