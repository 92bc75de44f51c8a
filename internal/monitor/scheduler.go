package monitor

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jfslima/licita-tracker-sibal-view-sub002/internal/logging"
)

// runTimeout bounds a scheduled run.
const runTimeout = 10 * time.Minute

type Scheduler struct {
	cron *cron.Cron
	job  *Job
	spec string
}

func NewScheduler(job *Job, spec string) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		job:  job,
		spec: spec,
	}
}

// Start registers the job on the six-field cron spec and starts the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, s.runOnce)
	if err != nil {
		return fmt.Errorf("monitor schedule %q: %w", s.spec, err)
	}

	log.Printf("[info] monitor scheduler started spec=%q", s.spec)
	s.cron.Start()
	return nil
}

// Stop stops scheduling and returns a context that is done once a running
// job has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(logging.WithRequestID(context.Background(), "cron-monitor"), runTimeout)
	defer cancel()

	if _, err := s.job.Run(ctx); err != nil {
		logging.NewLogger(ctx).LogError("monitor_scheduled_run", err)
	}
}
