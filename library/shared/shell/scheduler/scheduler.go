package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kapitoshk4/library-service-api/library/shared/shell"
)

const (
	// JobRunsMetric counts job runs by job and status.
	JobRunsMetric = "scheduler_job_runs_total"

	// JobDurationMetric tracks how long a job run took.
	JobDurationMetric = "scheduler_job_duration_seconds"

	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"

	logMsgJobStarted   = "scheduler job started"
	logMsgJobCompleted = "scheduler job completed"
	logMsgJobFailed    = "scheduler job failed"
	logMsgJobSkipped   = "scheduler job skipped, lock held elsewhere"
	logMsgLockFailed   = "scheduler lock failed"
	logMsgReleaseError = "scheduler lock release failed"
	logMsgCronError    = "scheduler cron error"

	logAttrJob        = "job"
	logAttrStatus     = "status"
	logAttrDurationMS = "duration_ms"
	logAttrError      = "error"
)

var (
	// ErrInvalidJob is returned by Register for a job without name, interval or function.
	ErrInvalidJob = errors.New("job needs a name, a positive interval and a run function")

	// ErrDuplicateJob is returned by Register when a job with the same name exists.
	ErrDuplicateJob = errors.New("job already registered")

	// ErrUnknownJob is returned by RunOnce for an unregistered job name.
	ErrUnknownJob = errors.New("unknown job")

	// ErrAlreadyStarted is returned by Register and Start after Start was called.
	ErrAlreadyStarted = errors.New("scheduler already started")
)

// Job is a periodic task.
type Job struct {
	Name string

	// Interval between two runs, rounded down to whole seconds with a minimum of one second.
	Interval time.Duration

	// LockTTL bounds how long a run holds the distributed lock. Defaults to Interval.
	LockTTL time.Duration

	// RunOnStart runs the job once right after Start instead of waiting one interval.
	RunOnStart bool

	Run func(ctx context.Context) error
}

// Scheduler runs registered jobs on a cron.Cron until its context is canceled.
// A run that is still going when the next one is due is skipped.
type Scheduler struct {
	mu      sync.Mutex
	jobs    []Job
	started bool
	wg      sync.WaitGroup
	cron    *cron.Cron

	locker           Locker
	metricsCollector shell.MetricsCollector
	logger           shell.Logger
	contextualLogger shell.ContextualLogger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLocker makes every run take a lock named after the job first.
func WithLocker(locker Locker) Option {
	return func(s *Scheduler) {
		s.locker = locker
	}
}

// WithMetrics records job runs and durations.
func WithMetrics(collector shell.MetricsCollector) Option {
	return func(s *Scheduler) {
		s.metricsCollector = collector
	}
}

// WithLogger sets the logger for job runs.
func WithLogger(logger shell.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithContextualLogger sets the context-aware logger for job runs.
func WithContextualLogger(logger shell.ContextualLogger) Option {
	return func(s *Scheduler) {
		s.contextualLogger = logger
	}
}

// New creates a Scheduler without jobs.
func New(options ...Option) *Scheduler {
	s := &Scheduler{}

	for _, option := range options {
		option(s)
	}

	logger := cronLogger{logger: s.logger, contextualLogger: s.contextualLogger}
	s.cron = cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	return s
}

// Register adds a job. Jobs can only be added before Start.
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" || job.Interval <= 0 || job.Run == nil {
		return ErrInvalidJob
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}

	for _, registered := range s.jobs {
		if registered.Name == job.Name {
			return fmt.Errorf("%w: %s", ErrDuplicateJob, job.Name)
		}
	}

	if job.LockTTL <= 0 {
		job.LockTTL = job.Interval
	}

	s.jobs = append(s.jobs, job)

	return nil
}

// Start schedules every job and returns immediately. Jobs with RunOnStart run once right away.
// The schedule stops when ctx is canceled; Wait blocks until running jobs finished.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}

	for _, job := range s.jobs {
		s.cron.Schedule(cron.Every(job.Interval), s.cronJob(ctx, job))
	}

	s.started = true
	s.cron.Start()

	for _, job := range s.jobs {
		if !job.RunOnStart {
			continue
		}

		s.wg.Add(1)

		go func() {
			defer s.wg.Done()
			_ = s.run(ctx, job)
		}()
	}

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		<-ctx.Done()
		<-s.cron.Stop().Done()
	}()

	return nil
}

func (s *Scheduler) cronJob(ctx context.Context, job Job) cron.Job {
	return cron.FuncJob(func() {
		_ = s.run(ctx, job)
	})
}

// Wait blocks until every job goroutine stopped.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// RunOnce runs the named job immediately, honoring the lock. It returns the job's error.
func (s *Scheduler) RunOnce(ctx context.Context, name string) error {
	s.mu.Lock()
	var (
		job   Job
		found bool
	)
	for _, registered := range s.jobs {
		if registered.Name == name {
			job, found = registered, true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}

	return s.run(ctx, job)
}

func (s *Scheduler) run(ctx context.Context, job Job) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if s.locker != nil {
		release, acquired, err := s.locker.TryLock(ctx, job.Name, job.LockTTL)
		if err != nil {
			shell.LogError(ctx, s.logger, s.contextualLogger, logMsgLockFailed, logAttrJob, job.Name, logAttrError, err.Error())
			s.recordRun(ctx, job.Name, StatusError, 0)

			return err
		}

		if !acquired {
			shell.LogInfo(ctx, s.logger, s.contextualLogger, logMsgJobSkipped, logAttrJob, job.Name)
			s.recordRun(ctx, job.Name, StatusSkipped, 0)

			return nil
		}

		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				shell.LogWarn(ctx, s.logger, s.contextualLogger, logMsgReleaseError, logAttrJob, job.Name, logAttrError, err.Error())
			}
		}()
	}

	shell.LogInfo(ctx, s.logger, s.contextualLogger, logMsgJobStarted, logAttrJob, job.Name)

	start := time.Now()
	err := job.Run(ctx)
	duration := time.Since(start)

	if err != nil {
		shell.LogError(ctx, s.logger, s.contextualLogger, logMsgJobFailed,
			logAttrJob, job.Name, logAttrDurationMS, shell.ToMilliseconds(duration), logAttrError, err.Error())
		s.recordRun(ctx, job.Name, StatusError, duration)

		return err
	}

	shell.LogInfo(ctx, s.logger, s.contextualLogger, logMsgJobCompleted,
		logAttrJob, job.Name, logAttrDurationMS, shell.ToMilliseconds(duration))
	s.recordRun(ctx, job.Name, StatusSuccess, duration)

	return nil
}

func (s *Scheduler) recordRun(ctx context.Context, jobName, status string, duration time.Duration) {
	if s.metricsCollector == nil {
		return
	}

	labels := map[string]string{logAttrJob: jobName, logAttrStatus: status}

	if contextualCollector, ok := s.metricsCollector.(shell.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, JobRunsMetric, labels)
		if status != StatusSkipped {
			contextualCollector.RecordDurationContext(ctx, JobDurationMetric, duration, labels)
		}

		return
	}

	s.metricsCollector.IncrementCounter(JobRunsMetric, labels)
	if status != StatusSkipped {
		s.metricsCollector.RecordDuration(JobDurationMetric, duration, labels)
	}
}

// cronLogger routes the cron library's own messages to the scheduler's loggers.
type cronLogger struct {
	logger           shell.Logger
	contextualLogger shell.ContextualLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	if l.contextualLogger != nil {
		l.contextualLogger.DebugContext(context.Background(), msg, keysAndValues...)
	} else if l.logger != nil {
		l.logger.Debug(msg, keysAndValues...)
	}
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	args := append([]any{logAttrError, err.Error(), "cron_message", msg}, keysAndValues...)
	shell.LogError(context.Background(), l.logger, l.contextualLogger, logMsgCronError, args...)
}
