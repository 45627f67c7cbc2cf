package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jobquest/jobquest/internal/cache"
	"github.com/jobquest/jobquest/internal/metrics"
	"github.com/robfig/cron/v3"
)

const (
	reconcileLockName = "reconcile-applicant-counts"
	reconcileTimeout  = 5 * time.Minute
)

// CountReconciler recomputes stored applicant counters.
type CountReconciler interface {
	ReconcileApplicantCounts(ctx context.Context) (int64, error)
}

// Locker hands out named distributed locks. The returned function releases
// the lock; cache.ErrLockHeld means another replica holds it.
type Locker interface {
	AcquireLock(ctx context.Context, name string, ttl time.Duration) (func(context.Context) error, error)
}

// Reconciler periodically repairs number_of_applicants from the applications
// actually stored.
type Reconciler struct {
	store   CountReconciler
	locker  Locker
	metrics metrics.Recorder
	logger  *slog.Logger
	cron    *cron.Cron
}

// NewReconciler creates a new Reconciler.
func NewReconciler(store CountReconciler, locker Locker, recorder metrics.Recorder, logger *slog.Logger) *Reconciler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		store:   store,
		locker:  locker,
		metrics: recorder,
		logger:  logger.With("component", "reconciler"),
	}
}

// RunOnce runs a single pass and returns the number of repaired jobs.
// It returns 0 without touching the store when another replica holds the lock.
func (r *Reconciler) RunOnce(ctx context.Context) (int64, error) {
	release, err := r.locker.AcquireLock(ctx, reconcileLockName, reconcileTimeout)
	if errors.Is(err, cache.ErrLockHeld) {
		r.logger.Debug("reconcile skipped, lock held elsewhere")
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			r.logger.Warn("failed to release reconcile lock", "error", err)
		}
	}()

	fixed, err := r.store.ReconcileApplicantCounts(ctx)
	if err != nil {
		return 0, err
	}

	r.metrics.AddApplicantCountsRepaired(fixed)
	return fixed, nil
}

// Start schedules RunOnce with a standard cron spec or descriptor such as
// "@every 1h". Overlapping runs are skipped.
func (r *Reconciler) Start(schedule string) error {
	logger := cron.PrintfLogger(slog.NewLogLogger(r.logger.Handler(), slog.LevelWarn))
	c := cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))

	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
		defer cancel()

		start := time.Now()
		fixed, err := r.RunOnce(ctx)
		if err != nil {
			r.logger.Error("reconcile failed", "error", err)
			return
		}
		r.logger.Info("reconcile complete",
			"repaired", fixed,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
	if err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", schedule, err)
	}

	r.cron = c
	c.Start()
	r.logger.Info("reconciler scheduled", "schedule", schedule)
	return nil
}

// Stop stops scheduling and waits for a running pass to finish or ctx to end.
func (r *Reconciler) Stop(ctx context.Context) error {
	if r.cron == nil {
		return nil
	}
	select {
	case <-r.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
