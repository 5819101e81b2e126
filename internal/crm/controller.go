// Package crm is the single owner of the broker's profile and lead list.
// Surfaces (bot, HTTP API, scheduled tasks) share one Controller; every
// mutation is applied to the current state under a lock and persisted
// before it becomes visible.
package crm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/edgard/agentpulse/internal/config"
	"github.com/edgard/agentpulse/internal/database"
	"github.com/edgard/agentpulse/internal/domain"
)

var (
	ErrLeadNotFound          = errors.New("lead not found")
	ErrScheduleNotFound      = errors.New("schedule not found")
	ErrInvalidTransition     = errors.New("invalid lead status transition")
	ErrInvalidPhone          = errors.New("invalid phone number")
	ErrInvalidInput          = errors.New("invalid input")
	ErrDailyLimitReached     = errors.New("daily send limit reached")
	ErrTelegramNotConfigured = errors.New("telegram bot token and chat id are required")
)

// Notifier pushes lead alerts to the broker's chat.
type Notifier interface {
	SendLeadAlert(ctx context.Context, profile domain.UserProfile, lead domain.Lead) error
	TestConnection(ctx context.Context, token, chatID, text string) error
}

// SchedulesObserver is told about the full schedule list after every change.
type SchedulesObserver func(ctx context.Context, schedules []domain.SearchSchedule)

// Options are the business rules applied by the controller.
type Options struct {
	TrialDays          int
	ProTokenPrefix     string
	DailySendLimit     int
	SafeBelow          int
	AttentionBelow     int
	DefaultCountryCode string
	HotLeadScore       int
	TelegramTestText   string
	Location           *time.Location
	Now                func() time.Time
}

// OptionsFromConfig maps configuration onto controller options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		TrialDays:          cfg.CRM.TrialDays,
		ProTokenPrefix:     cfg.CRM.ProTokenPrefix,
		DailySendLimit:     cfg.CRM.DailySendLimit,
		SafeBelow:          cfg.CRM.SafeBelow,
		AttentionBelow:     cfg.CRM.AttentionBelow,
		DefaultCountryCode: cfg.CRM.DefaultCountryCode,
		HotLeadScore:       cfg.CRM.HotLeadScore,
		TelegramTestText:   cfg.Messages.TelegramTest,
		Location:           cfg.Location(),
	}
}

// Controller owns profile, leads and theme.
type Controller struct {
	store    database.Store
	notifier Notifier
	log      *slog.Logger
	opts     Options
	validate *validator.Validate

	mu         sync.RWMutex
	profile    domain.UserProfile
	hasProfile bool
	leads      []domain.Lead
	theme      domain.Theme

	obsMu     sync.Mutex
	observers []SchedulesObserver
	pending   bool
	notifying bool
}

// New creates a Controller. Call Load before serving requests.
func New(store database.Store, notifier Notifier, logger *slog.Logger, opts Options) *Controller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Controller{
		store:    store,
		notifier: notifier,
		log:      logger.With("component", "crm"),
		opts:     opts,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		profile:  domain.DefaultProfile(),
		leads:    []domain.Lead{},
		theme:    domain.ThemeDark,
	}
}

// Load restores state from the store. Missing or corrupt collections fall
// back to defaults, so Load only fails when the store itself is unreachable.
func (c *Controller) Load(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return err
	}

	_, hasProfile, err := c.store.Get(ctx, database.KeyProfile)
	if err != nil {
		return err
	}
	profile := database.Read(ctx, c.store, c.log, database.KeyProfile, domain.DefaultProfile())
	leads := database.Read(ctx, c.store, c.log, database.KeyLeads, []domain.Lead{})
	if leads == nil {
		leads = []domain.Lead{}
	}
	theme := database.Read(ctx, c.store, c.log, database.KeyTheme, domain.ThemeDark)

	c.mu.Lock()
	c.profile = profile
	c.hasProfile = hasProfile
	c.leads = leads
	c.theme = theme
	c.mu.Unlock()

	c.log.InfoContext(ctx, "CRM state loaded", "has_profile", hasProfile, "leads", len(leads), "schedules", len(profile.Schedules))
	c.notifySchedules(ctx)
	return nil
}

// OnSchedulesChanged registers fn to receive the schedule list after Load
// and after every schedule mutation.
func (c *Controller) OnSchedulesChanged(fn SchedulesObserver) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	c.observers = append(c.observers, fn)
}

// notifySchedules delivers the current schedule list to every observer.
// Deliveries never overlap. A change committed while observers are running
// is picked up by the running caller, which loops until nothing is pending,
// so the last delivery always reflects the last committed state.
func (c *Controller) notifySchedules(ctx context.Context) {
	c.obsMu.Lock()
	c.pending = true
	if c.notifying {
		c.obsMu.Unlock()
		return
	}
	c.notifying = true
	c.obsMu.Unlock()

	for {
		c.obsMu.Lock()
		if !c.pending {
			c.notifying = false
			c.obsMu.Unlock()
			return
		}
		c.pending = false
		observers := slices.Clone(c.observers)
		c.obsMu.Unlock()

		schedules := c.Schedules()
		for _, fn := range observers {
			fn(ctx, slices.Clone(schedules))
		}
	}
}

// Reset wipes every collection and returns to defaults.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	if err := c.store.Clear(ctx); err != nil {
		c.mu.Unlock()
		return err
	}
	c.profile = domain.DefaultProfile()
	c.hasProfile = false
	c.leads = []domain.Lead{}
	c.theme = domain.ThemeDark
	c.mu.Unlock()

	c.log.InfoContext(ctx, "CRM state reset")
	c.notifySchedules(ctx)
	return nil
}

// Theme returns the stored theme.
func (c *Controller) Theme() domain.Theme {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.theme
}

// ToggleTheme flips the theme and persists it.
func (c *Controller) ToggleTheme(ctx context.Context) (domain.Theme, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.theme.Toggle()
	if err := database.Write(ctx, c.store, database.KeyTheme, next); err != nil {
		return c.theme, err
	}
	c.theme = next
	return next, nil
}

// Dashboard summarizes the pipeline and today's outbound volume.
func (c *Controller) Dashboard(ctx context.Context) domain.DashboardStats {
	sent := c.SentToday(ctx)

	c.mu.RLock()
	defer c.mu.RUnlock()
	stats := domain.DashboardStats{
		TotalLeads:   len(c.leads),
		ByStatus:     make(map[domain.LeadStatus]int, len(domain.LeadStatuses)),
		SentToday:    sent.Count,
		DailyLimit:   c.opts.DailySendLimit,
		Safety:       domain.RateSafety(sent.Count, c.opts.SafeBelow, c.opts.AttentionBelow),
		Subscription: c.profile.Subscription(c.opts.Now(), c.opts.TrialDays, c.opts.ProTokenPrefix),
	}
	for _, s := range domain.LeadStatuses {
		stats.ByStatus[s] = 0
	}
	for _, l := range c.leads {
		stats.ByStatus[l.Status]++
		if l.IsHot(c.opts.HotLeadScore) {
			stats.HotLeads++
		}
	}
	return stats
}

func (c *Controller) now() time.Time {
	return c.opts.Now().UTC()
}
