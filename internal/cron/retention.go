package cron

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/canyonbook-backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	notificationRetention = 30 * 24 * time.Hour
	outboxRetention       = 30 * 24 * time.Hour
)

// purgeFunc deletes everything older than cutoff and reports how many rows went.
type purgeFunc func(ctx context.Context, cutoff time.Time) (int64, error)

// retentionJob is the shared shape of every "drop rows older than N" job.
type retentionJob struct {
	name   string
	logg   *logger.Logger
	window time.Duration
	purge  purgeFunc
	now    func() time.Time
}

func newRetentionJob(name string, logg *logger.Logger, window, fallback time.Duration, purge purgeFunc) (Job, error) {
	if logg == nil {
		return nil, errors.New("logger required")
	}
	if window <= 0 {
		window = fallback
	}
	return &retentionJob{name: name, logg: logg, window: window, purge: purge, now: time.Now}, nil
}

func (j *retentionJob) Name() string { return j.name }

func (j *retentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.window)
	removed, err := j.purge(ctx, cutoff)
	if err != nil {
		return err
	}
	if removed == 0 {
		j.logg.Debug(ctx, j.name+": nothing to purge")
		return nil
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff.Format(time.RFC3339),
		"window":  j.window.String(),
		"removed": removed,
	}), j.name+": purged expired rows")
	return nil
}

type notificationPurger interface {
	DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

// NotificationCleanupJobParams wires the read-notification purge.
type NotificationCleanupJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository notificationPurger
	Retention  time.Duration
}

// NewNotificationCleanupJob drops read notifications past the retention window.
// Unread notifications survive regardless of age.
func NewNotificationCleanupJob(params NotificationCleanupJobParams) (Job, error) {
	if params.DB == nil || params.Repository == nil {
		return nil, errors.New("notification cleanup needs a db runner and repository")
	}
	purge := func(ctx context.Context, cutoff time.Time) (removed int64, err error) {
		err = params.DB.WithTx(ctx, func(tx *gorm.DB) error {
			removed, err = params.Repository.DeleteOlderThan(ctx, tx, cutoff)
			return err
		})
		return removed, err
	}
	return newRetentionJob("notification-cleanup", params.Logger, params.Retention, notificationRetention, purge)
}

type outboxPurger interface {
	DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// OutboxRetentionJobParams wires the published-outbox purge.
type OutboxRetentionJobParams struct {
	Logger     *logger.Logger
	Repository outboxPurger
	Retention  time.Duration
}

// NewOutboxRetentionJob drops outbox rows that were published before the window.
// Pending and dead-lettered rows are left for the publisher and operators.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Repository == nil {
		return nil, errors.New("outbox retention needs a repository")
	}
	return newRetentionJob("outbox-retention", params.Logger, params.Retention, outboxRetention, params.Repository.DeletePublishedBefore)
}
