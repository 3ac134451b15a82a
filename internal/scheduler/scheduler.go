package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"
)

// DailyReportSpec fires every day at 21:00 UTC.
const DailyReportSpec = "0 21 * * *"

// Job is a named maintenance task.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// Scheduler runs maintenance jobs on cron schedules in UTC.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	jobs   []Job
}

func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers job. It must be called before Start.
func (s *Scheduler) Add(job Job) {
	s.jobs = append(s.jobs, job)
}

// Start registers every job with cron and starts it. With no jobs it does
// nothing.
func (s *Scheduler) Start() error {
	if len(s.jobs) == 0 {
		log.Warn("no maintenance jobs registered, scheduler idle")
		return nil
	}
	for _, job := range s.jobs {
		if job.Run == nil {
			return fmt.Errorf("job %s has no run function", job.Name)
		}
		_, err := s.cron.AddFunc(job.Spec, func() { s.run(job) })
		if err != nil {
			return fmt.Errorf("schedule %s (%q): %w", job.Name, job.Spec, err)
		}
	}

	s.cron.Start()
	log.Info("scheduler started", "jobs", len(s.jobs))
	return nil
}

// RunNow executes the named job synchronously.
func (s *Scheduler) RunNow(name string) error {
	for _, job := range s.jobs {
		if job.Name == name {
			return job.Run(s.ctx)
		}
	}
	return fmt.Errorf("unknown job: %s", name)
}

func (s *Scheduler) run(job Job) {
	started := time.Now()
	log.Debug("job triggered", "job", job.Name)
	if err := job.Run(s.ctx); err != nil {
		log.Error("job failed", "job", job.Name, "err", err)
		return
	}
	log.Debug("job finished", "job", job.Name, "took", time.Since(started))
}

// Stop waits for running jobs and cancels their context.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	log.Info("scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
