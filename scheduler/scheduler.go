package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// DefaultJobTimeout bounds a single job run
const DefaultJobTimeout = 30 * time.Minute

// Job represents a scheduled job
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler manages scheduled jobs
type Scheduler struct {
	cron       *cron.Cron
	jobs       map[string]Job
	jobTimeout time.Duration
	isRunning  bool
}

// NewScheduler creates a new scheduler. A non-positive jobTimeout uses
// DefaultJobTimeout.
func NewScheduler(jobTimeout time.Duration) *Scheduler {
	if jobTimeout <= 0 {
		jobTimeout = DefaultJobTimeout
	}
	logger := cron.VerbosePrintfLogger(log.StandardLogger())
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		jobs:       make(map[string]Job),
		jobTimeout: jobTimeout,
	}
}

// AddJob registers a job under one or more cron specifications
func (s *Scheduler) AddJob(job Job, specs ...string) error {
	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}
	if len(specs) == 0 {
		return fmt.Errorf("job %s has no schedule", name)
	}

	ids := make([]cron.EntryID, 0, len(specs))
	for _, spec := range specs {
		id, err := s.cron.AddFunc(spec, func() { s.runScheduled(job) })
		if err != nil {
			for _, added := range ids {
				s.cron.Remove(added)
			}
			return fmt.Errorf("failed to add job %s with schedule %q: %w", name, spec, err)
		}
		ids = append(ids, id)
	}

	s.jobs[name] = job
	return nil
}

func (s *Scheduler) runScheduled(job Job) {
	name := job.Name()
	log.Infof("Starting scheduled job: %s", name)
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	if err := job.Run(ctx); err != nil {
		log.Errorf("Error running job %s: %v", name, err)
		return
	}
	log.Infof("Completed job %s in %s", name, time.Since(startTime))
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	if s.isRunning {
		return
	}
	s.cron.Start()
	s.isRunning = true
	log.Info("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	if !s.isRunning {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.isRunning = false
	log.Info("Scheduler stopped")
}

// RunJobNow runs a job immediately outside of schedule
func (s *Scheduler) RunJobNow(ctx context.Context, name string) error {
	job, exists := s.jobs[name]
	if !exists {
		return fmt.Errorf("job %s not registered", name)
	}

	log.Infof("Manually running job: %s", name)
	ctx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()

	return job.Run(ctx)
}
