package scheduler

import (
	"context"
	"fmt"
	"time"

	"billing-sync-be/internal/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Job is one periodic task. Run receives a context bounded by Timeout.
type Job struct {
	Name     string
	Schedule string
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler runs the background sweeps. Jobs skip a tick while their previous
// run is still going.
type Scheduler struct {
	cron   *cron.Cron
	logger logger.ILogger
	ctx    context.Context
	cancel context.CancelFunc
}

func New(log logger.ILogger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	cronLogger := &cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger),
			cron.SkipIfStillRunning(cronLogger),
		)),
		logger: log,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Scheduler) Register(job Job) error {
	if job.Timeout <= 0 {
		job.Timeout = time.Minute
	}
	_, err := s.cron.AddFunc(job.Schedule, func() {
		ctx, cancel := context.WithTimeout(s.ctx, job.Timeout)
		defer cancel()

		if err := job.Run(ctx); err != nil {
			s.logger.Error("SCHEDULER", "Job failed", map[string]interface{}{
				"job":   job.Name,
				"error": err.Error(),
			})
		}
	})
	if err != nil {
		return fmt.Errorf("register job %s (%q): %w", job.Name, job.Schedule, err)
	}
	s.logger.Info("SCHEDULER", "Job registered", map[string]interface{}{
		"job":      job.Name,
		"schedule": job.Schedule,
	})
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

// cronLogger adapts ILogger to the cron.Logger interface.
type cronLogger struct {
	log logger.ILogger
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("SCHEDULER", msg, pairs(keysAndValues))
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	details := pairs(keysAndValues)
	details["error"] = fmt.Sprint(err)
	l.log.Error("SCHEDULER", msg, details)
}

func pairs(keysAndValues []interface{}) map[string]interface{} {
	details := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		details[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return details
}
