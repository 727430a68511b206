package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"eventhub/logger"
	"eventhub/utils"
)

// Reconciler recomputes derived counters and reports how many records it
// corrected.
type Reconciler interface {
	Reconcile(ctx context.Context) (int, error)
}

// Scheduler runs the background maintenance jobs. A run that is still going
// when its next tick fires is skipped.
type Scheduler struct {
	cron *cron.Cron
	log  *slog.Logger
}

func NewScheduler(log *slog.Logger) *Scheduler {
	if log == nil {
		log = logger.Discard()
	}
	log = log.With(slog.String("component", "jobs"))
	cl := cronLogger{log}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log: log,
	}
}

// AddReconcile schedules r on spec (standard cron syntax or "@every 1h").
// An empty spec disables the job. Cached event responses are purged after
// a run that corrected anything.
func (s *Scheduler) AddReconcile(spec string, r Reconciler, inv *utils.CacheInvalidator, timeout time.Duration) error {
	if spec == "" {
		s.log.Info("reconcile job disabled")
		return nil
	}
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		RunReconcile(ctx, r, inv, s.log)
	})
	if err != nil {
		return fmt.Errorf("schedule reconcile %q: %w", spec, err)
	}
	s.log.Info("reconcile job scheduled", slog.String("schedule", spec))
	return nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop prevents new runs and waits for running ones, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("jobs still running at shutdown")
	}
}

// RunReconcile is one reconcile pass. It returns the number of corrected
// events, or -1 when the pass failed.
func RunReconcile(ctx context.Context, r Reconciler, inv *utils.CacheInvalidator, log *slog.Logger) int {
	const op = "jobs.RunReconcile"
	log = log.With(slog.String("op", op))

	start := time.Now()
	n, err := r.Reconcile(ctx)
	if n > 0 {
		inv.PurgeAllEvents(ctx)
	}
	if err != nil {
		log.Error("reconcile failed", slog.Int("fixed", n), logger.Err(err))
		return -1
	}
	log.Info("reconcile finished", slog.Int("fixed", n), slog.Duration("took", time.Since(start)))
	return n
}

// cronLogger routes cron's own messages into slog.
type cronLogger struct{ log *slog.Logger }

func (l cronLogger) Info(msg string, kv ...any) {
	l.log.Debug("cron: "+msg, kv...)
}

func (l cronLogger) Error(err error, msg string, kv ...any) {
	l.log.Error("cron: "+msg, append(kv, logger.Err(err))...)
}
