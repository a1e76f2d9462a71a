package main

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/kapitoshk4/library-service-api/library/features/command/alertoverdueborrowings"
	"github.com/kapitoshk4/library-service-api/library/features/command/chargeoverduefines"
	"github.com/kapitoshk4/library-service-api/library/features/command/sweepexpiredpayments"
	"github.com/kapitoshk4/library-service-api/library/shared/shell"
	"github.com/kapitoshk4/library-service-api/library/shared/shell/checkout"
	"github.com/kapitoshk4/library-service-api/library/shared/shell/config"
	"github.com/kapitoshk4/library-service-api/library/shared/shell/paymentsession"
	"github.com/kapitoshk4/library-service-api/library/shared/shell/scheduler"
	"github.com/kapitoshk4/library-service-api/librarystore"
)

const (
	jobChargeOverdueFines     = "charge-overdue-fines"
	jobSweepExpiredPayments   = "sweep-expired-payments"
	jobAlertOverdueBorrowings = "alert-overdue-borrowings"

	maxLockTTL = time.Hour
)

// newScheduler registers the periodic jobs. Without a Redis client every replica runs every job.
func newScheduler(
	cfg config.SchedulerConfig,
	store librarystore.Store,
	provider checkout.Provider,
	opener paymentsession.Opener,
	notifier shell.Notifier,
	redisClient *redis.Client,
	obs observability,
) (*scheduler.Scheduler, error) {
	options := []scheduler.Option{
		scheduler.WithMetrics(obs.metrics),
		scheduler.WithContextualLogger(obs.logger),
	}

	if redisClient != nil {
		locker, err := scheduler.NewRedisLocker(redisClient)
		if err != nil {
			return nil, err
		}

		options = append(options, scheduler.WithLocker(locker))
	}

	s := scheduler.New(options...)

	if !cfg.Enabled {
		return s, nil
	}

	chargeFines, err := wrapCommand[chargeoverduefines.Command, chargeoverduefines.Result](
		chargeoverduefines.NewCommandHandler(store, opener, chargeoverduefines.WithContextualLogger(obs.logger)), obs)
	if err != nil {
		return nil, err
	}

	sweepPayments, err := wrapCommand[sweepexpiredpayments.Command, sweepexpiredpayments.Result](
		sweepexpiredpayments.NewCommandHandler(store, provider, sweepexpiredpayments.WithContextualLogger(obs.logger)), obs)
	if err != nil {
		return nil, err
	}

	alertHandler, err := alertoverdueborrowings.NewCommandHandler(store, notifier)
	if err != nil {
		return nil, err
	}

	alertOverdue, err := wrapCommand[alertoverdueborrowings.Command, alertoverdueborrowings.Result](alertHandler, obs)
	if err != nil {
		return nil, err
	}

	jobs := []scheduler.Job{
		{
			Name:       jobChargeOverdueFines,
			Interval:   cfg.ChargeFinesInterval,
			LockTTL:    min(cfg.ChargeFinesInterval, maxLockTTL),
			RunOnStart: cfg.RunOnStart,
			Run: func(ctx context.Context) error {
				_, _, err := chargeFines.Handle(ctx, chargeoverduefines.BuildCommand(time.Now()))
				return err
			},
		},
		{
			Name:       jobSweepExpiredPayments,
			Interval:   cfg.SweepPaymentsInterval,
			LockTTL:    min(cfg.SweepPaymentsInterval, maxLockTTL),
			RunOnStart: cfg.RunOnStart,
			Run: func(ctx context.Context) error {
				_, _, err := sweepPayments.Handle(ctx, sweepexpiredpayments.BuildCommand(time.Now()))
				return err
			},
		},
		{
			Name:       jobAlertOverdueBorrowings,
			Interval:   cfg.OverdueAlertInterval,
			LockTTL:    min(cfg.OverdueAlertInterval, maxLockTTL),
			RunOnStart: cfg.RunOnStart,
			Run: func(ctx context.Context) error {
				_, _, err := alertOverdue.Handle(ctx, alertoverdueborrowings.BuildCommand(time.Now()))
				return err
			},
		},
	}

	for _, job := range jobs {
		if err = s.Register(job); err != nil {
			return nil, err
		}
	}

	return s, nil
}
