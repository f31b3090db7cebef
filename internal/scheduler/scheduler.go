package scheduler

import (
	"time"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/jobs"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a new scheduler with the provided job runner
func NewScheduler(jobRunner *jobs.JobRunner) *Scheduler {
	// Create cron with UTC timezone and seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	s.registerJobs()
	return s
}

func (s *Scheduler) registerJobs() {
	cfg := s.jobs.Config().Scheduler

	registered := 0
	for _, job := range []struct {
		name string
		spec string
		run  func()
	}{
		{"RelayBookingEvents", cfg.RelayBookingEvents, s.jobs.RelayBookingEvents},
		{"ReconcileStock", cfg.ReconcileStock, s.jobs.ReconcileStock},
	} {
		if job.spec == "" {
			logger.Warn("Job has no schedule, skipping", "job", job.name)
			continue
		}
		if _, err := s.cron.AddFunc(job.spec, job.run); err != nil {
			logger.Error("Failed to register job", "job", job.name, "schedule", job.spec, "error", err)
			continue
		}
		registered++
	}

	logger.Info("Cron jobs registered", "count", registered)
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler, waiting for running jobs
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// IsRunning returns true if the scheduler has jobs registered
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}
