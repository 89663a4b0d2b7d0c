package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/phuslu/log"

	"github.com/i474232898/weather-etl/internal/weather"
)

// Runner executes one ETL pass.
type Runner interface {
	Run(ctx context.Context) (*weather.Report, error)
}

// Scheduler runs the ETL pipeline on a cron schedule and records a summary of
// every run.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	store     weather.Store
	cronExpr  string
	timeout   time.Duration
}

// New creates a new Scheduler. cronExpr is a standard 5-field cron expression
// evaluated in UTC. A zero timeout leaves runs unbounded.
func New(cronExpr string, timeout time.Duration, runner Runner, store weather.Store) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		runner:    runner,
		store:     store,
		cronExpr:  cronExpr,
		timeout:   timeout,
	}
}

// Start schedules the job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.cronExpr == "" {
		return errors.New("scheduler: empty cron expression")
	}

	_, err := s.scheduler.Cron(s.cronExpr).Do(s.RunOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	log.Info().Str("schedule", s.cronExpr).Msg("scheduler started")
	return nil
}

// RunOnce executes a single pipeline run and stores its summary.
func (s *Scheduler) RunOnce() {
	log.Info().Msg("scheduler: running weather etl job")

	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	report, err := s.runner.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("scheduler: etl run failed")
	}
	if report != nil {
		s.store.SaveRun(report.Summary(err))
	}
	log.Info().Msg("scheduler: completed weather etl job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
