package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/canyonbook-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var retentionNow = time.Date(2026, 6, 30, 8, 0, 0, 0, time.UTC)

type recordingPurger struct {
	cutoffs []time.Time
	removed int64
	err     error
	inTx    bool
}

func (p *recordingPurger) DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	p.inTx = tx != nil
	return p.record(cutoff)
}

func (p *recordingPurger) DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return p.record(cutoff)
}

func (p *recordingPurger) record(cutoff time.Time) (int64, error) {
	p.cutoffs = append(p.cutoffs, cutoff)
	if p.err != nil {
		return 0, p.err
	}
	return p.removed, nil
}

type stubTxRunner struct{ calls int }

func (s *stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	s.calls++
	return fn(&gorm.DB{})
}

func pinClock(t *testing.T, job Job) {
	t.Helper()
	rj, ok := job.(*retentionJob)
	require.True(t, ok, "unexpected job type %T", job)
	rj.now = func() time.Time { return retentionNow }
}

func TestNotificationCleanupRunsInsideTransaction(t *testing.T) {
	purger := &recordingPurger{removed: 42}
	tx := &stubTxRunner{}
	job, err := NewNotificationCleanupJob(NotificationCleanupJobParams{Logger: logger.Nop(), DB: tx, Repository: purger})
	require.NoError(t, err)
	pinClock(t, job)

	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, "notification-cleanup", job.Name())
	assert.Equal(t, 1, tx.calls)
	assert.True(t, purger.inTx)
	assert.Equal(t, []time.Time{retentionNow.Add(-notificationRetention)}, purger.cutoffs)
}

func TestRetentionWindowOverride(t *testing.T) {
	purger := &recordingPurger{}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{Logger: logger.Nop(), Repository: purger, Retention: 48 * time.Hour})
	require.NoError(t, err)
	pinClock(t, job)

	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, "outbox-retention", job.Name())
	assert.Equal(t, []time.Time{retentionNow.Add(-48 * time.Hour)}, purger.cutoffs)
}

func TestOutboxRetentionDefaultsWindow(t *testing.T) {
	purger := &recordingPurger{removed: 7}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{Logger: logger.Nop(), Repository: purger})
	require.NoError(t, err)
	pinClock(t, job)

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []time.Time{retentionNow.Add(-outboxRetention)}, purger.cutoffs)
}

func TestRetentionJobSurfacesPurgeError(t *testing.T) {
	purger := &recordingPurger{err: errors.New("statement timeout")}
	job, err := NewNotificationCleanupJob(NotificationCleanupJobParams{Logger: logger.Nop(), DB: &stubTxRunner{}, Repository: purger})
	require.NoError(t, err)

	assert.ErrorContains(t, job.Run(context.Background()), "statement timeout")
}

func TestRetentionJobsValidateParams(t *testing.T) {
	_, err := NewNotificationCleanupJob(NotificationCleanupJobParams{Logger: logger.Nop(), Repository: &recordingPurger{}})
	assert.Error(t, err)
	_, err = NewOutboxRetentionJob(OutboxRetentionJobParams{Repository: &recordingPurger{}})
	assert.Error(t, err)
}
