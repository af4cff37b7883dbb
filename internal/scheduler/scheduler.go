package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Job is one unit of periodic work. Run must return once its work is done
// or ctx ends.
type Job interface {
	Run(ctx context.Context) error
}

// JobFunc adapts a function to Job.
type JobFunc func(ctx context.Context) error

// Run calls f(ctx).
func (f JobFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// ScheduledJob binds a Job to its cadence.
type ScheduledJob struct {
	Name   string
	Period time.Duration
	Delay  time.Duration
	Job    Job
}

// Observer is told about every completed run.
type Observer interface {
	JobFinished(name string, started time.Time, took time.Duration, err error)
}

// Logger defines the logging interface used by the Scheduler.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Scheduler runs a fixed set of jobs.
//
// Thread Safety:
//   - Add, SetLogger and SetObserver must be called before Start.
//   - Stop may be called from any goroutine, more than once.
type Scheduler struct {
	jobs     []ScheduledJob
	logger   Logger
	observer Observer
	now      func() time.Time

	mu       sync.Mutex
	started  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New creates an empty scheduler.
func New() *Scheduler {
	return &Scheduler{
		logger: noopLogger{},
		now:    time.Now,
	}
}

// SetLogger sets the logger for the scheduler.
func (s *Scheduler) SetLogger(logger Logger) {
	s.logger = logger
}

// SetObserver registers o to be told about completed runs.
func (s *Scheduler) SetObserver(o Observer) {
	s.observer = o
}

// Add registers a job. Names must be unique.
func (s *Scheduler) Add(job ScheduledJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	if job.Name == "" || job.Job == nil || job.Period <= 0 || job.Delay < 0 {
		return fmt.Errorf("%w: %q period=%s delay=%s", ErrInvalidJob, job.Name, job.Period, job.Delay)
	}
	for _, j := range s.jobs {
		if j.Name == job.Name {
			return fmt.Errorf("%w: %q", ErrDuplicateJob, job.Name)
		}
	}

	s.jobs = append(s.jobs, job)
	return nil
}

// Start launches one goroutine per job and returns immediately. Jobs stop
// when ctx ends or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, job)
	}

	s.logger.Info("scheduler started", "jobs", len(s.jobs))
	return nil
}

// Stop cancels every job and waits for in-progress runs to return.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		cancel := s.cancel
		s.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		s.wg.Wait()
		s.logger.Info("scheduler stopped")
	})
}

// loop waits for the aligned first run then ticks every period.
func (s *Scheduler) loop(ctx context.Context, job ScheduledJob) {
	defer s.wg.Done()

	delay := FirstRunDelay(s.now(), job.Period) + job.Delay
	s.logger.Info("job scheduled",
		"job", job.Name,
		"period", job.Period,
		"first_run_in", delay,
	)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	ticker := time.NewTicker(job.Period)
	defer ticker.Stop()

	for {
		s.execute(ctx, job)

		// Drop a tick that elapsed while the job was running.
		select {
		case <-ticker.C:
			s.logger.Warn("job overran its period, tick skipped", "job", job.Name, "period", job.Period)
		default:
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// execute runs the job once, logging failures and recovering panics.
func (s *Scheduler) execute(ctx context.Context, job ScheduledJob) {
	started := s.now()
	var err error

	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("job panic: %v", r)
			}
		}()
		err = job.Job.Run(ctx)
	}()

	took := s.now().Sub(started)
	if err != nil {
		s.logger.Error("job failed", "job", job.Name, "duration", took, "error", err)
	} else {
		s.logger.Debug("job finished", "job", job.Name, "duration", took)
	}

	if s.observer != nil {
		s.observer.JobFinished(job.Name, started, took, err)
	}
}

// FirstRunDelay returns the time from now until the next instant that is a
// whole multiple of period since the Unix epoch. When now falls exactly on
// such an instant the delay is one full period.
func FirstRunDelay(now time.Time, period time.Duration) time.Duration {
	if period <= 0 {
		return 0
	}
	n := now.UnixNano()
	p := int64(period)
	rem := n % p
	if rem < 0 {
		rem += p
	}
	return time.Duration(p - rem)
}
