package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type fakeLock struct {
	acquired bool
	releases int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.acquired {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.acquired = false
	f.releases++
	return nil
}

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func TestRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	success := &testJob{name: "success"}
	failure := &testJob{name: "fail", err: errors.New("boom")}
	registry, err := NewRegistry(failure, success)
	require.NoError(t, err)
	lock := &fakeLock{}
	service, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Registry: registry,
		Lock:     lock,
	})
	require.NoError(t, err)

	err = service.runCycle(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "fail: boom")
	require.Equal(t, 1, success.runs)
	require.Equal(t, 1, failure.runs)
	require.Equal(t, 1, lock.releases)
}

func TestRunCycleSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "unpaid-order-sweep"}
	registry, err := NewRegistry(job)
	require.NoError(t, err)
	service, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Registry: registry,
		Lock:     &fakeLock{acquired: true},
	})
	require.NoError(t, err)

	require.NoError(t, service.runCycle(context.Background()))
	require.Zero(t, job.runs)
}

type slowJob struct{ deadline bool }

func (s *slowJob) Name() string { return "slow" }

func (s *slowJob) Run(ctx context.Context) error {
	<-ctx.Done()
	_, s.deadline = ctx.Deadline()
	return ctx.Err()
}

func TestRunJobAppliesTimeout(t *testing.T) {
	job := &slowJob{}
	registry, err := NewRegistry(job)
	require.NoError(t, err)
	service, err := NewService(ServiceParams{
		Logger:     logger.Nop(),
		Registry:   registry,
		Lock:       &fakeLock{},
		JobTimeout: 10 * time.Millisecond,
	})
	require.NoError(t, err)

	err = service.runCycle(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.True(t, job.deadline)
}

func TestNewServiceRequiresLock(t *testing.T) {
	_, err := NewService(ServiceParams{Logger: logger.Nop()})
	require.Error(t, err)
}
