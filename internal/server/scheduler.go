package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"

	"github.com/edgard/batepapo/internal/config"
	"github.com/edgard/batepapo/internal/server/tasks"
)

// ErrUnknownTask is returned by RunNow for a task that is not scheduled.
var ErrUnknownTask = errors.New("task is not scheduled")

// Scheduler manages scheduled tasks using the gocron library.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	cfg       *config.SchedulerConfig
	taskMap   map[string]tasks.ScheduledTaskFunc
	jobs      map[string]gocron.Job

	// ctx is handed to every task and cancelled by Stop.
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a new scheduler instance driven by clock.
func NewScheduler(logger *slog.Logger, clock clockwork.Clock, cfg *config.SchedulerConfig, taskMap map[string]tasks.ScheduledTaskFunc) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "scheduler")

	s, err := gocron.NewScheduler(
		gocron.WithClock(clock),
		gocron.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		scheduler: s,
		logger:    log,
		cfg:       cfg,
		taskMap:   taskMap,
		jobs:      make(map[string]gocron.Job),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// definition picks an interval job when Interval is set and a cron job
// otherwise.
func definition(tc config.TaskConfig) (gocron.JobDefinition, string, bool) {
	switch {
	case tc.Interval > 0:
		return gocron.DurationJob(tc.Interval), tc.Interval.String(), true
	case tc.Schedule != "":
		return gocron.CronJob(tc.Schedule, true), tc.Schedule, true
	default:
		return nil, "", false
	}
}

// run wraps a task with logging. Errors are logged and never stop the
// scheduler.
func (s *Scheduler) run(ctx context.Context, name string) {
	taskFunc := s.taskMap[name]

	s.logger.Debug("Running scheduled task", "task_name", name)
	startTime := time.Now()

	if err := taskFunc(ctx); err != nil {
		s.logger.Error("Scheduled task failed", "task_name", name, "error", err)
	}

	s.logger.Debug("Finished scheduled task", "task_name", name, "duration", time.Since(startTime))
}

// Start schedules all enabled tasks and starts the scheduler.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	s.logger.Debug("Configuring scheduler jobs...")

	if s.cfg == nil || len(s.cfg.Tasks) == 0 {
		s.logger.Warn("No scheduler tasks configured.")
		s.scheduler.Start()
		s.running = true
		return nil
	}

	for taskName, taskConfig := range s.cfg.Tasks {
		if !taskConfig.Enabled {
			s.logger.Info("Skipping disabled task", "task_name", taskName)
			continue
		}

		if _, exists := s.taskMap[taskName]; !exists {
			s.logger.Warn("Scheduled task configured but not found in registry, skipping", "task_name", taskName)
			continue
		}

		def, every, ok := definition(taskConfig)
		if !ok {
			s.logger.Warn("Scheduled task enabled but has no interval or schedule, skipping", "task_name", taskName)
			continue
		}

		job, err := s.scheduler.NewJob(
			def,
			gocron.NewTask(s.run, s.ctx, taskName),
			gocron.WithName(taskName),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			s.logger.Error("Failed to schedule task", "task_name", taskName, "every", every, "error", err)
			continue
		}

		s.jobs[taskName] = job
		s.logger.Info("Scheduled task", "task_name", taskName, "every", every)
	}

	s.scheduler.Start()
	s.running = true
	s.logger.Info("Scheduler initialized and started", "tasks_scheduled", len(s.jobs))

	return nil
}

// RunNow triggers a scheduled task immediately, outside its schedule.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	return job.RunNow()
}

// Stop cancels running tasks and waits for them to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		s.logger.Info("Scheduler is not running, nothing to stop.")
		return nil
	}

	s.logger.Debug("Stopping scheduler gracefully (waiting for jobs)...")
	s.cancel()

	err := s.scheduler.Shutdown()
	if err != nil {
		s.logger.Error("Error during scheduler shutdown", "error", err)
	} else {
		s.logger.Info("Scheduler stopped gracefully.")
	}

	s.running = false
	return err
}
