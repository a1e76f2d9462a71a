package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kapitoshk4/library-service-api/library/shared/shell/scheduler"
	"github.com/kapitoshk4/library-service-api/testutil/helper"
)

type lockerStub struct {
	mu       sync.Mutex
	held     map[string]bool
	err      error
	released []string
}

func newLockerStub() *lockerStub {
	return &lockerStub{held: make(map[string]bool)}
}

func (l *lockerStub) TryLock(_ context.Context, key string, _ time.Duration) (scheduler.ReleaseFunc, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.err != nil {
		return nil, false, l.err
	}

	if l.held[key] {
		return nil, false, nil
	}

	l.held[key] = true

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()

		delete(l.held, key)
		l.released = append(l.released, key)

		return nil
	}, true, nil
}

func Test_Unit_Register_Validation(t *testing.T) {
	run := func(context.Context) error { return nil }

	testCases := []struct {
		name string
		job  scheduler.Job
	}{
		{name: "without name", job: scheduler.Job{Interval: time.Hour, Run: run}},
		{name: "without interval", job: scheduler.Job{Name: "sweep", Run: run}},
		{name: "without run function", job: scheduler.Job{Name: "sweep", Interval: time.Hour}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := scheduler.New().Register(tc.job)

			assert.ErrorIs(t, err, scheduler.ErrInvalidJob)
		})
	}
}

func Test_Unit_Register_RejectsDuplicates(t *testing.T) {
	// arrange
	s := scheduler.New()
	job := scheduler.Job{Name: "sweep", Interval: time.Hour, Run: func(context.Context) error { return nil }}
	require.NoError(t, s.Register(job))

	// act
	err := s.Register(job)

	// assert
	assert.ErrorIs(t, err, scheduler.ErrDuplicateJob)
}

func Test_Unit_RunOnce_RecordsSuccessAndError(t *testing.T) {
	// arrange
	metrics := helper.NewMetricsCollectorSpy(true)
	logger := helper.NewLoggerSpy(true)
	errSweep := errors.New("sweep failed")
	s := scheduler.New(scheduler.WithMetrics(metrics), scheduler.WithContextualLogger(logger))

	require.NoError(t, s.Register(scheduler.Job{Name: "ok", Interval: time.Hour, Run: func(context.Context) error { return nil }}))
	require.NoError(t, s.Register(scheduler.Job{Name: "broken", Interval: time.Hour, Run: func(context.Context) error { return errSweep }}))

	// act
	okErr := s.RunOnce(t.Context(), "ok")
	brokenErr := s.RunOnce(t.Context(), "broken")

	// assert
	assert.NoError(t, okErr)
	assert.ErrorIs(t, brokenErr, errSweep)
	assert.True(t, metrics.HasCounterRecordForMetric(scheduler.JobRunsMetric).WithLabel("job", "ok").WithStatus(scheduler.StatusSuccess).Assert())
	assert.True(t, metrics.HasCounterRecordForMetric(scheduler.JobRunsMetric).WithLabel("job", "broken").WithStatus(scheduler.StatusError).Assert())
	assert.Equal(t, 2, metrics.CountDurationRecordsForMetric(scheduler.JobDurationMetric))
	assert.True(t, logger.HasRecord("error", "scheduler job failed"))
}

func Test_Unit_RunOnce_UnknownJob(t *testing.T) {
	err := scheduler.New().RunOnce(t.Context(), "missing")

	assert.ErrorIs(t, err, scheduler.ErrUnknownJob)
}

func Test_Unit_RunOnce_SkipsWhenLockIsHeldElsewhere(t *testing.T) {
	// arrange
	locker := newLockerStub()
	locker.held["sweep"] = true
	metrics := helper.NewMetricsCollectorSpy(true)

	var runs atomic.Int32
	s := scheduler.New(scheduler.WithLocker(locker), scheduler.WithMetrics(metrics))
	require.NoError(t, s.Register(scheduler.Job{Name: "sweep", Interval: time.Hour, Run: func(context.Context) error {
		runs.Add(1)
		return nil
	}}))

	// act
	err := s.RunOnce(t.Context(), "sweep")

	// assert
	require.NoError(t, err)
	assert.Equal(t, int32(0), runs.Load())
	assert.True(t, metrics.HasCounterRecordForMetric(scheduler.JobRunsMetric).WithStatus(scheduler.StatusSkipped).Assert())
}

func Test_Unit_RunOnce_ReleasesLockAfterRun(t *testing.T) {
	// arrange
	locker := newLockerStub()
	s := scheduler.New(scheduler.WithLocker(locker))
	require.NoError(t, s.Register(scheduler.Job{Name: "sweep", Interval: time.Hour, Run: func(context.Context) error { return nil }}))

	// act
	require.NoError(t, s.RunOnce(t.Context(), "sweep"))
	require.NoError(t, s.RunOnce(t.Context(), "sweep"))

	// assert
	assert.Equal(t, []string{"sweep", "sweep"}, locker.released)
}

func Test_Unit_RunOnce_LockErrorFailsRun(t *testing.T) {
	// arrange
	locker := newLockerStub()
	locker.err = errors.New("redis down")
	s := scheduler.New(scheduler.WithLocker(locker))
	require.NoError(t, s.Register(scheduler.Job{Name: "sweep", Interval: time.Hour, Run: func(context.Context) error { return nil }}))

	// act
	err := s.RunOnce(t.Context(), "sweep")

	// assert
	assert.ErrorIs(t, err, locker.err)
}

func Test_Unit_Start_StopsSchedulingAfterCancel(t *testing.T) {
	// arrange
	var runs atomic.Int32
	s := scheduler.New()
	require.NoError(t, s.Register(scheduler.Job{
		Name:     "tick",
		Interval: time.Second,
		Run: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	}))

	ctx, cancel := context.WithCancel(t.Context())
	require.NoError(t, s.Start(ctx))

	// act
	cancel()
	s.Wait()
	time.Sleep(1500 * time.Millisecond)

	// assert
	assert.Equal(t, int32(0), runs.Load())
}

func Test_Unit_Start_RunsJobsUntilCanceled(t *testing.T) {
	// arrange
	var runs atomic.Int32
	s := scheduler.New()
	require.NoError(t, s.Register(scheduler.Job{
		Name:       "tick",
		Interval:   time.Second,
		RunOnStart: true,
		Run: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	}))

	ctx, cancel := context.WithCancel(t.Context())

	// act
	require.NoError(t, s.Start(ctx))
	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 3*time.Second, 10*time.Millisecond)
	cancel()
	s.Wait()

	// assert
	assert.ErrorIs(t, s.Start(ctx), scheduler.ErrAlreadyStarted)
	assert.ErrorIs(t, s.Register(scheduler.Job{Name: "late", Interval: time.Hour, Run: func(context.Context) error { return nil }}), scheduler.ErrAlreadyStarted)
}
