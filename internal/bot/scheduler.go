package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/edgard/agentpulse/internal/bot/tasks"
	"github.com/edgard/agentpulse/internal/config"
	"github.com/edgard/agentpulse/internal/domain"
)

const searchTag = "search"

// Scheduler runs static maintenance tasks and the broker's recurring lead
// searches on one gocron scheduler.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	cfg       *config.SchedulerConfig
	taskMap   map[string]tasks.ScheduledTaskFunc
	search    tasks.SearchRunner

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewScheduler creates a scheduler in the configured timezone.
func NewScheduler(logger *slog.Logger, cfg *config.SchedulerConfig, taskMap map[string]tasks.ScheduledTaskFunc, search tasks.SearchRunner) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	loc := time.UTC
	if cfg != nil && cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid scheduler timezone %q: %w", cfg.Timezone, err)
		}
		loc = l
	}

	s, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: s,
		logger:    logger.With("component", "scheduler"),
		cfg:       cfg,
		taskMap:   taskMap,
		search:    search,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Start registers the enabled static tasks and starts ticking.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	scheduled := 0
	if s.cfg != nil {
		for name, taskCfg := range s.cfg.Tasks {
			if !taskCfg.Enabled {
				s.logger.Info("Skipping disabled task", "task_name", name)
				continue
			}
			fn, ok := s.taskMap[name]
			if !ok {
				s.logger.Warn("Task configured but not registered, skipping", "task_name", name)
				continue
			}
			if _, err := s.scheduler.NewJob(
				gocron.CronJob(taskCfg.Schedule, false),
				gocron.NewTask(s.wrap(name, fn)),
				gocron.WithName(name),
				gocron.WithSingletonMode(gocron.LimitModeReschedule),
			); err != nil {
				s.logger.Error("Failed to schedule task", "task_name", name, "schedule", taskCfg.Schedule, "error", err)
				continue
			}
			s.logger.Info("Scheduled task", "task_name", name, "schedule", taskCfg.Schedule)
			scheduled++
		}
	}

	s.scheduler.Start()
	s.running = true
	s.logger.Info("Scheduler started", "tasks_scheduled", scheduled, "jobs", len(s.scheduler.Jobs()))
	return nil
}

// SyncSearchSchedules replaces every search job with one weekly job per
// active schedule. It is safe to call before Start.
func (s *Scheduler) SyncSearchSchedules(ctx context.Context, schedules []domain.SearchSchedule) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scheduler.RemoveByTags(searchTag)
	if s.search == nil {
		return
	}

	active := 0
	for _, sched := range schedules {
		if !sched.Active {
			continue
		}
		def, err := weeklyDefinition(sched)
		if err != nil {
			s.logger.WarnContext(ctx, "Skipping invalid search schedule", "schedule_id", sched.ID, "error", err)
			continue
		}
		name := "search:" + sched.ID
		if _, err := s.scheduler.NewJob(
			def,
			gocron.NewTask(s.wrap(name, func(ctx context.Context) error { return s.search(ctx, sched) })),
			gocron.WithName(name),
			gocron.WithTags(searchTag, sched.ID),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		); err != nil {
			s.logger.ErrorContext(ctx, "Failed to schedule search", "schedule_id", sched.ID, "error", err)
			continue
		}
		active++
	}
	s.logger.InfoContext(ctx, "Search schedules synchronized", "configured", len(schedules), "active", active)
}

// NextRuns reports the next run of each job by name.
func (s *Scheduler) NextRuns() map[string]time.Time {
	out := make(map[string]time.Time)
	for _, j := range s.scheduler.Jobs() {
		next, err := j.NextRun()
		if err != nil {
			continue
		}
		out[j.Name()] = next
	}
	return out
}

// Stop cancels running tasks and waits for them to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancel()
	if !s.running {
		return nil
	}
	err := s.scheduler.Shutdown()
	if err != nil {
		s.logger.Error("Error during scheduler shutdown", "error", err)
	} else {
		s.logger.Info("Scheduler stopped")
	}
	s.running = false
	return err
}

func (s *Scheduler) wrap(name string, fn tasks.ScheduledTaskFunc) func() {
	return func() {
		start := time.Now()
		s.logger.Info("Running scheduled task", "task_name", name)
		if err := fn(s.ctx); err != nil {
			s.logger.Error("Scheduled task failed", "task_name", name, "error", err)
		}
		s.logger.Info("Finished scheduled task", "task_name", name, "duration", time.Since(start))
	}
}

func weeklyDefinition(sched domain.SearchSchedule) (gocron.JobDefinition, error) {
	days, err := sched.Weekdays()
	if err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("schedule %s has no days", sched.ID)
	}
	hour, minute, err := sched.Clock()
	if err != nil {
		return nil, err
	}
	return gocron.WeeklyJob(
		1,
		gocron.NewWeekdays(days[0], days[1:]...),
		gocron.NewAtTimes(gocron.NewAtTime(uint(hour), uint(minute), 0)),
	), nil
}
