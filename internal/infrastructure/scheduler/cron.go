package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is one unit of background work. It should finish well within its interval.
type Job func(ctx context.Context) error

type Scheduler struct {
	c       *cron.Cron
	log     *logrus.Logger
	timeout time.Duration
}

func New(log *logrus.Logger) *Scheduler {
	return &Scheduler{
		c:       cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:     log,
		timeout: 2 * time.Minute,
	}
}

// Add registers job under a standard 5-field cron spec.
func (s *Scheduler) Add(name, spec string, job Job) error {
	_, err := s.c.AddFunc(spec, func() { s.run(name, job) })
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	s.log.WithFields(logrus.Fields{"job": name, "spec": spec}).Info("job scheduled")
	return nil
}

func (s *Scheduler) run(name string, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	entry := s.log.WithField("job", name)
	defer func() {
		if r := recover(); r != nil {
			entry.Errorf("job panicked: %v", r)
		}
	}()
	if err := job(ctx); err != nil {
		entry.WithError(err).Error("job failed")
		return
	}
	entry.WithField("took", time.Since(start).String()).Debug("job finished")
}

func (s *Scheduler) Start() { s.c.Start() }

// Stop waits for running jobs.
func (s *Scheduler) Stop() { <-s.c.Stop().Done() }
