// Package jobs runs periodic schedule regeneration on a gocron scheduler.
package jobs

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrEmptyJobName  = errors.New("job name is required")
	ErrEmptyCronExpr = errors.New("cron expression is required")
	ErrBadInterval   = errors.New("interval must be positive")
)

// Runner wraps a gocron scheduler. Panicking jobs are logged and do not stop
// the scheduler.
type Runner struct {
	scheduler gocron.Scheduler
	stopOnce  sync.Once
	stopErr   error
}

func New(opts ...gocron.SchedulerOption) (*Runner, error) {
	opts = append([]gocron.SchedulerOption{
		gocron.WithGlobalJobOptions(
			gocron.WithEventListeners(
				gocron.AfterJobRunsWithPanic(func(jobID uuid.UUID, jobName string, recoverData any) {
					log.Error().
						Str("job_id", jobID.String()).
						Str("job_name", jobName).
						Interface("panic", recoverData).
						Msg("Scheduled job panicked")
				}),
			),
		),
	}, opts...)
	sched, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, err
	}
	return &Runner{scheduler: sched}, nil
}

func (r *Runner) Start() {
	log.Info().Msg("Job runner starting")
	r.scheduler.Start()
}

// Stop shuts the scheduler down and waits for running jobs. It is safe to call twice.
func (r *Runner) Stop() error {
	r.stopOnce.Do(func() {
		log.Info().Msg("Job runner stopping")
		r.stopErr = r.scheduler.Shutdown()
	})
	return r.stopErr
}

// AddCronJob registers task under a crontab expression.
func (r *Runner) AddCronJob(name, cronExpr string, task func()) (gocron.Job, error) {
	if strings.TrimSpace(cronExpr) == "" {
		return nil, ErrEmptyCronExpr
	}
	return r.add(name, gocron.CronJob(cronExpr, false), task, "cron", cronExpr)
}

// AddIntervalJob registers task to run every interval, starting immediately.
func (r *Runner) AddIntervalJob(name string, every time.Duration, task func()) (gocron.Job, error) {
	if every <= 0 {
		return nil, ErrBadInterval
	}
	return r.add(name, gocron.DurationJob(every), task, "every", every.String(),
		gocron.WithStartAt(gocron.WithStartImmediately()))
}

func (r *Runner) add(name string, def gocron.JobDefinition, task func(), key, value string, extra ...gocron.JobOption) (gocron.Job, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyJobName
	}
	jobLogger := log.With().Str("job_name", name).Str(key, value).Logger()

	wrapped := func() {
		jobLogger.Debug().Msg("Job started")
		task()
		jobLogger.Debug().Msg("Job completed")
	}

	opts := append([]gocron.JobOption{gocron.WithName(name)}, extra...)
	job, err := r.scheduler.NewJob(def, gocron.NewTask(wrapped), opts...)
	if err != nil {
		jobLogger.Error().Err(err).Msg("Failed to register job")
		return nil, err
	}
	jobLogger.Info().Msg("Job registered")
	return job, nil
}
