package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fineshyttt/commerce-backend/pkg/logger"
	"github.com/fineshyttt/commerce-backend/pkg/metrics"
)

type fakeLock struct {
	held      bool
	lost      bool
	refreshes int
	releases  int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Refresh(context.Context) (bool, error) {
	f.refreshes++
	return !f.lost, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	f.releases++
	return nil
}

type testJob struct {
	name string
	err  error
	runs int
	wait bool
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(ctx context.Context) error {
	t.runs++
	if t.wait {
		<-ctx.Done()
		return ctx.Err()
	}
	return t.err
}

func newTestService(t *testing.T, lock Lock, timeout time.Duration, jobs ...Job) *Service {
	t.Helper()
	registry, err := NewRegistry(jobs...)
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Logger:     logger.New(logger.Options{ServiceName: "cron-test"}),
		Registry:   registry,
		Lock:       lock,
		Metrics:    metrics.NewCronJobMetrics(prometheus.NewRegistry()),
		JobTimeout: timeout,
	})
	require.NoError(t, err)
	return svc
}

func TestRunOnceRunsAllJobsEvenOnFailure(t *testing.T) {
	ok := &testJob{name: "success"}
	failing := &testJob{name: "fail", err: errors.New("boom")}
	last := &testJob{name: "last"}
	lock := &fakeLock{}
	svc := newTestService(t, lock, 0, failing, ok, last)

	err := svc.RunOnce(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "fail: boom")
	assert.Equal(t, 1, failing.runs)
	assert.Equal(t, 1, ok.runs)
	assert.Equal(t, 1, last.runs)
	assert.Equal(t, 2, lock.refreshes, "lease refreshed between jobs only")
	assert.Equal(t, 1, lock.releases)
}

func TestServiceRequiresRegistry(t *testing.T) {
	_, err := NewService(ServiceParams{
		Logger: logger.New(logger.Options{ServiceName: "cron-test"}),
		Lock:   &fakeLock{},
	})
	assert.Error(t, err)
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "only"}
	svc := newTestService(t, &fakeLock{held: true}, 0, job)

	require.NoError(t, svc.RunOnce(context.Background()))
	assert.Equal(t, 0, job.runs)
}

func TestRunOnceStopsAfterLosingLease(t *testing.T) {
	first := &testJob{name: "first"}
	second := &testJob{name: "second"}
	lock := &fakeLock{lost: true}
	svc := newTestService(t, lock, 0, first, second)

	err := svc.RunOnce(context.Background())
	assert.ErrorIs(t, err, errLeaseLost)
	assert.Equal(t, 1, first.runs)
	assert.Equal(t, 0, second.runs)
}

func TestRunOnceBoundsEachJob(t *testing.T) {
	slow := &testJob{name: "slow", wait: true}
	next := &testJob{name: "next"}
	svc := newTestService(t, &fakeLock{}, 20*time.Millisecond, slow, next)

	err := svc.RunOnce(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, next.runs)
}
