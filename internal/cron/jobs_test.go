package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type passthroughTxRunner struct{}

func (passthroughTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeOutboxRetentionRepo struct {
	lastCutoff  time.Time
	minAttempts int
	called      int
	err         error
}

func (f *fakeOutboxRetentionRepo) DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	f.minAttempts = minAttemptCount
	if f.err != nil {
		return 0, f.err
	}
	return 7, nil
}

type fakeNotificationCleanupRepo struct {
	lastCutoff time.Time
	called     int
	err        error
}

func (f *fakeNotificationCleanupRepo) DeleteReadOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return 42, nil
}

func TestOutboxRetentionJobUsesConfiguredWindow(t *testing.T) {
	now := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	repo := &fakeOutboxRetentionRepo{}
	jobIface, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     newCronTestLogger(),
		DB:         passthroughTxRunner{},
		Repository: repo,
	})
	require.NoError(t, err)
	job := jobIface.(*outboxRetentionJob)
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))
	require.Equal(t, 1, repo.called)
	require.Equal(t, now.Add(-outboxRetentionDays*24*time.Hour), repo.lastCutoff)
	require.Equal(t, outboxMinAttempts, repo.minAttempts)
}

func TestOutboxRetentionJobPropagatesErrors(t *testing.T) {
	repo := &fakeOutboxRetentionRepo{err: errors.New("boom")}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     newCronTestLogger(),
		DB:         passthroughTxRunner{},
		Repository: repo,
	})
	require.NoError(t, err)
	require.Error(t, job.Run(context.Background()))
}

func TestNotificationCleanupJobUsesConfiguredWindow(t *testing.T) {
	now := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	repo := &fakeNotificationCleanupRepo{}
	jobIface, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:     newCronTestLogger(),
		DB:         passthroughTxRunner{},
		Repository: repo,
		Retention:  14,
	})
	require.NoError(t, err)
	job := jobIface.(*notificationCleanupJob)
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))
	require.Equal(t, 1, repo.called)
	require.Equal(t, now.Add(-14*24*time.Hour), repo.lastCutoff)
}

func TestNotificationCleanupJobPropagatesErrors(t *testing.T) {
	repo := &fakeNotificationCleanupRepo{err: errors.New("boom")}
	job, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:     newCronTestLogger(),
		DB:         passthroughTxRunner{},
		Repository: repo,
	})
	require.NoError(t, err)
	require.Error(t, job.Run(context.Background()))
}

func TestJobConstructorsValidateDependencies(t *testing.T) {
	_, err := NewOutboxRetentionJob(OutboxRetentionJobParams{Logger: newCronTestLogger()})
	require.Error(t, err)

	_, err = NewNotificationCleanupJob(NotificationCleanupJobParams{Logger: newCronTestLogger(), DB: passthroughTxRunner{}})
	require.Error(t, err)
}
