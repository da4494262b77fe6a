package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

const defaultJobTimeout = 5 * time.Minute

// Job represents a background job.
type Job interface {
	Name() string
	Execute(ctx context.Context) error
}

// Scheduler runs jobs on fixed intervals until stopped.
type Scheduler struct {
	jobs    map[string]*ScheduledJob
	mu      sync.RWMutex
	logger  *slog.Logger
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// ScheduledJob wraps a job with its schedule.
type ScheduledJob struct {
	Job      Job
	Interval time.Duration
	// RunAtStart executes the job once as soon as the scheduler starts.
	RunAtStart bool
	Timeout    time.Duration
}

// NewScheduler creates a new job scheduler.
func NewScheduler(logger *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		jobs:   make(map[string]*ScheduledJob),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddJob adds a job to the scheduler with an interval. A non-positive
// interval is rejected since time.NewTicker would panic on it.
func (s *Scheduler) AddJob(job Job, interval time.Duration) error {
	return s.Add(ScheduledJob{Job: job, Interval: interval})
}

// Add registers a fully configured job. Jobs added after Start are not run.
func (s *Scheduler) Add(scheduled ScheduledJob) error {
	if scheduled.Interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", scheduled.Job.Name())
	}
	if scheduled.Timeout <= 0 {
		scheduled.Timeout = defaultJobTimeout
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[scheduled.Job.Name()]; exists {
		return fmt.Errorf("job %s already registered", scheduled.Job.Name())
	}
	s.jobs[scheduled.Job.Name()] = &scheduled
	return nil
}

// Names lists registered jobs in name order.
func (s *Scheduler) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start starts all scheduled jobs.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	jobs := make([]*ScheduledJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	s.mu.Unlock()

	for _, scheduledJob := range jobs {
		s.wg.Add(1)
		go s.runJob(scheduledJob)
	}

	s.logger.Info("job scheduler started", "jobs", len(jobs))
}

func (s *Scheduler) runJob(scheduled *ScheduledJob) {
	defer s.wg.Done()

	ticker := time.NewTicker(scheduled.Interval)
	defer ticker.Stop()

	s.logger.Info("starting job", "name", scheduled.Job.Name(), "interval", scheduled.Interval)

	if scheduled.RunAtStart {
		s.executeJob(scheduled)
	}

	for {
		select {
		case <-ticker.C:
			s.executeJob(scheduled)
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeJob(scheduled *ScheduledJob) {
	job := scheduled.Job
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("job panic", "name", job.Name(), "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(s.ctx, scheduled.Timeout)
	defer cancel()

	start := time.Now()
	if err := job.Execute(ctx); err != nil {
		s.logger.Error("job execution failed", "name", job.Name(), "error", err, "duration", time.Since(start))
		return
	}
	s.logger.Debug("job completed", "name", job.Name(), "duration", time.Since(start))
}

// Stop cancels running jobs and waits for their goroutines to exit.
// The scheduler cannot be restarted afterwards.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		s.cancel()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.logger.Info("job scheduler stopped")
}

// RunOnce executes a job immediately, outside its schedule.
func (s *Scheduler) RunOnce(ctx context.Context, jobName string) error {
	s.mu.RLock()
	scheduled, exists := s.jobs[jobName]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("job not found: %s", jobName)
	}

	ctx, cancel := context.WithTimeout(ctx, scheduled.Timeout)
	defer cancel()

	return scheduled.Job.Execute(ctx)
}
