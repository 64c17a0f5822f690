package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"NewsCourier/internal/ports"
)

// Job binds a cron expression to a pipeline entry point.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context)
}

// CronScheduler drives the three pipeline jobs in daemon mode. Jobs run
// sequentially within themselves; the scheduler serializes overlapping fires
// of the same job via cron's SkipIfStillRunning wrapper.
type CronScheduler struct {
	cron   *cron.Cron
	jobs   []Job
	logger *slog.Logger
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler over standard five-field cron specs in
// the given location.
func NewCronScheduler(loc *time.Location, logger *slog.Logger, jobs ...Job) *CronScheduler {
	cronLogger := cron.PrintfLogger(slogPrintf{logger})
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger), cron.Recover(cronLogger)),
	)
	return &CronScheduler{cron: c, jobs: jobs, logger: logger}
}

// Start registers every job and begins the cron loop. Registration errors
// surface immediately so a bad spec fails startup instead of silently never
// firing.
func (s *CronScheduler) Start(ctx context.Context) error {
	for _, job := range s.jobs {
		job := job
		_, err := s.cron.AddFunc(job.Spec, func() {
			s.logger.Info("cron fire", slog.String("job", job.Name))
			job.Run(ctx)
		})
		if err != nil {
			return fmt.Errorf("register cron job %s (%q): %w", job.Name, job.Spec, err)
		}
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron loop and waits for in-flight jobs to finish, bounded by
// the context.
func (s *CronScheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// slogPrintf adapts slog to cron's printf-style logger.
type slogPrintf struct {
	logger *slog.Logger
}

func (l slogPrintf) Printf(format string, args ...any) {
	l.logger.Info(fmt.Sprintf(format, args...))
}
