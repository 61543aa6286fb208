package cron

import (
	"context"
	"time"

	leaveService "github.com/cmlabs-hris/leave-approval-go/internal/service/leave"
)

// BalanceReconciler is implemented by the leave service.
type BalanceReconciler interface {
	ReconcileBalances(ctx context.Context, year int) (leaveService.ReconcileResult, error)
}

type LeaveJobs struct {
	reconciler BalanceReconciler
	interval   time.Duration
	now        func() time.Time
}

func NewLeaveJobs(reconciler BalanceReconciler, interval time.Duration) *LeaveJobs {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &LeaveJobs{
		reconciler: reconciler,
		interval:   interval,
		now:        time.Now,
	}
}

func (j *LeaveJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("reconcile_leave_balances", j.interval, j.ReconcileCurrentYear)
	scheduler.AddJob("provision_next_year_balances", j.interval, j.ProvisionNextYear)
}

// ReconcileCurrentYear heals drifted used and pending counters and creates
// balances missing for the current year.
func (j *LeaveJobs) ReconcileCurrentYear(ctx context.Context) error {
	_, err := j.reconciler.ReconcileBalances(ctx, j.now().Year())
	return err
}

// ProvisionNextYear creates next year's balances during December so they
// exist before the first request of the year.
func (j *LeaveJobs) ProvisionNextYear(ctx context.Context) error {
	now := j.now()
	if now.Month() != time.December {
		return nil
	}
	_, err := j.reconciler.ReconcileBalances(ctx, now.Year()+1)
	return err
}
