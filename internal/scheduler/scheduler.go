package scheduler

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mMando123/gym-management/internal/clock"
	"github.com/mMando123/gym-management/internal/logger"
	"github.com/mMando123/gym-management/internal/metrics"
	"github.com/mMando123/gym-management/internal/subscription"
)

const (
	leaseKey = "scheduler:lease"

	JobExpire       = "expire_overdue"
	JobAutoUnfreeze = "auto_unfreeze"
	JobCloseStale   = "close_stale_attendance"
	JobBirthday     = "birthday_points"
)

// SweepResult reports one sweep execution.
type SweepResult struct {
	Job       string `json:"job"`
	Processed int    `json:"processed"`
	Err       error  `json:"-"`
}

// The sweeps only need the batch operations, not the full repositories.
type SubscriptionSweeper interface {
	ExpireOverdue(ctx context.Context, today time.Time) (int, error)
	AutoUnfreezeDue(ctx context.Context, today time.Time) (int, error)
}

type AttendanceSweeper interface {
	AutoCloseStale(ctx context.Context, openedBefore, now time.Time) (int, error)
}

type BirthdayGranter interface {
	GrantBirthdayPoints(ctx context.Context, today time.Time, points int64) (int, error)
}

// Scheduler periodically reconciles subscription and attendance state.
// All jobs are idempotent batch updates, so an extra run is harmless;
// the Redis lease only avoids wasted duplicate work across instances.
type Scheduler struct {
	subs     SubscriptionSweeper
	atts     AttendanceSweeper
	birthday BirthdayGranter
	redis    *redis.Client
	clk      clock.Clock

	interval       time.Duration
	staleAfter     time.Duration
	birthdayPoints int64
}

func New(
	subs SubscriptionSweeper,
	atts AttendanceSweeper,
	birthday BirthdayGranter,
	redisClient *redis.Client,
	clk clock.Clock,
	interval, staleAfter time.Duration,
	birthdayPoints int64,
) *Scheduler {
	return &Scheduler{
		subs:           subs,
		atts:           atts,
		birthday:       birthday,
		redis:          redisClient,
		clk:            clk,
		interval:       interval,
		staleAfter:     staleAfter,
		birthdayPoints: birthdayPoints,
	}
}

// Start blocks until the context is cancelled, sweeping every interval.
func (s *Scheduler) Start(ctx context.Context) {
	logger.Infof("Scheduler started, sweeping every %s", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Scheduler stopped")
			return
		case <-ticker.C:
			if !s.acquireLease(ctx) {
				logger.Debug("Sweep lease held elsewhere, skipping round")
				continue
			}
			s.RunAll(ctx)
		}
	}
}

// acquireLease grabs the sweep lease for one interval. If Redis is
// unreachable the sweep runs anyway: on a single node that is correct,
// and with several nodes the jobs are idempotent.
func (s *Scheduler) acquireLease(ctx context.Context) bool {
	if s.redis == nil {
		return true
	}

	ok, err := s.redis.SetNX(ctx, leaseKey, "1", s.interval).Result()
	if err != nil {
		logger.WithError(err).Error("Sweep lease unavailable, running unlocked")
		return true
	}
	return ok
}

// RunAll executes every sweep job. A failing job is logged and does
// not stop the others.
func (s *Scheduler) RunAll(ctx context.Context) []SweepResult {
	results := []SweepResult{
		s.run(ctx, JobExpire, s.expireOverdue),
		s.run(ctx, JobAutoUnfreeze, s.autoUnfreeze),
		s.run(ctx, JobCloseStale, s.closeStale),
		s.run(ctx, JobBirthday, s.grantBirthdays),
	}
	return results
}

// Run executes a single job by name. Used by the admin trigger
// endpoint.
func (s *Scheduler) Run(ctx context.Context, job string) (SweepResult, bool) {
	switch job {
	case JobExpire:
		return s.run(ctx, job, s.expireOverdue), true
	case JobAutoUnfreeze:
		return s.run(ctx, job, s.autoUnfreeze), true
	case JobCloseStale:
		return s.run(ctx, job, s.closeStale), true
	case JobBirthday:
		return s.run(ctx, job, s.grantBirthdays), true
	}
	return SweepResult{}, false
}

func (s *Scheduler) run(ctx context.Context, job string, fn func(ctx context.Context) (int, error)) SweepResult {
	n, err := fn(ctx)
	if err != nil {
		metrics.RecordSweepRun(job, "error")
		logger.WithError(err).Error("Sweep failed", "job", job, "processed", n)
		return SweepResult{Job: job, Processed: n, Err: err}
	}

	metrics.RecordSweepRun(job, "ok")
	metrics.RecordSweepProcessed(job, n)
	if n > 0 {
		logger.Infof("Sweep %s processed %d items", job, n)
	}
	return SweepResult{Job: job, Processed: n}
}

func (s *Scheduler) expireOverdue(ctx context.Context) (int, error) {
	n, err := s.subs.ExpireOverdue(ctx, s.clk.Today())
	if n > 0 {
		for i := 0; i < n; i++ {
			metrics.RecordSubscriptionTransition(string(subscription.StatusExpired))
		}
	}
	return n, err
}

func (s *Scheduler) autoUnfreeze(ctx context.Context) (int, error) {
	n, err := s.subs.AutoUnfreezeDue(ctx, s.clk.Today())
	if n > 0 {
		for i := 0; i < n; i++ {
			metrics.RecordSubscriptionTransition(string(subscription.StatusActive))
		}
	}
	return n, err
}

func (s *Scheduler) closeStale(ctx context.Context) (int, error) {
	now := s.clk.Now()
	return s.atts.AutoCloseStale(ctx, now.Add(-s.staleAfter), now)
}

func (s *Scheduler) grantBirthdays(ctx context.Context) (int, error) {
	return s.birthday.GrantBirthdayPoints(ctx, s.clk.Today(), s.birthdayPoints)
}
