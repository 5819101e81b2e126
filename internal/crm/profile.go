package crm

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/edgard/agentpulse/internal/database"
	"github.com/edgard/agentpulse/internal/domain"
)

// ProfilePatch is a partial profile update. Nil fields are left unchanged;
// every save path merges field by field.
type ProfilePatch struct {
	BrokerName           *string          `json:"brokerName,omitempty" validate:"omitempty,min=2,max=80"`
	AgencyName           *string          `json:"agencyName,omitempty" validate:"omitempty,max=120"`
	Phone                *string          `json:"phone,omitempty"`
	WelcomeMessage       *string          `json:"welcomeMessage,omitempty" validate:"omitempty,max=1000"`
	CustomInstructions   *string          `json:"customInstructions,omitempty" validate:"omitempty,max=2000"`
	Language             *domain.Language `json:"language,omitempty" validate:"omitempty,oneof=pt en es zh hi fr"`
	CatalogLink          *string          `json:"catalogLink,omitempty" validate:"omitempty,url"`
	BioLink              *string          `json:"bioLink,omitempty" validate:"omitempty,url"`
	Instagram            *string          `json:"instagram,omitempty"`
	ProToken             *string          `json:"proToken,omitempty"`
	TelegramBotToken     *string          `json:"telegramBotToken,omitempty"`
	TelegramChatID       *string          `json:"telegramChatId,omitempty"`
	EnableTelegramAlerts *bool            `json:"enableTelegramAlerts,omitempty"`
}

func (p ProfilePatch) apply(dst *domain.UserProfile) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&dst.BrokerName, p.BrokerName)
	set(&dst.AgencyName, p.AgencyName)
	set(&dst.Phone, p.Phone)
	set(&dst.WelcomeMessage, p.WelcomeMessage)
	set(&dst.CustomInstructions, p.CustomInstructions)
	set(&dst.CatalogLink, p.CatalogLink)
	set(&dst.BioLink, p.BioLink)
	set(&dst.Instagram, p.Instagram)
	set(&dst.ProToken, p.ProToken)
	set(&dst.TelegramBotToken, p.TelegramBotToken)
	set(&dst.TelegramChatID, p.TelegramChatID)
	if p.Language != nil {
		dst.Language = *p.Language
	}
	if p.EnableTelegramAlerts != nil {
		dst.EnableTelegramAlerts = *p.EnableTelegramAlerts
	}
}

// LoginResult tells a surface what to show after a phone login.
type LoginResult struct {
	Authenticated   bool               `json:"authenticated"`
	NeedsOnboarding bool               `json:"needsOnboarding"`
	Profile         domain.UserProfile `json:"profile"`
}

// Profile returns a copy of the current profile.
func (c *Controller) Profile() domain.UserProfile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneProfile(c.profile)
}

// HasProfile reports whether a profile was ever stored.
func (c *Controller) HasProfile() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hasProfile
}

// Subscription returns the access status right now.
func (c *Controller) Subscription() domain.SubscriptionStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.profile.Subscription(c.opts.Now(), c.opts.TrialDays, c.opts.ProTokenPrefix)
}

// UpdateProfile merges patch into the current profile and persists it.
func (c *Controller) UpdateProfile(ctx context.Context, patch ProfilePatch) (domain.UserProfile, error) {
	if err := c.checkPatch(&patch); err != nil {
		return domain.UserProfile{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	next := cloneProfile(c.profile)
	patch.apply(&next)
	if err := c.saveProfileLocked(ctx, next); err != nil {
		return domain.UserProfile{}, err
	}
	return cloneProfile(next), nil
}

// Login matches phone against the stored profile. A known, onboarded phone
// authenticates; otherwise the phone is kept and onboarding is requested.
func (c *Controller) Login(ctx context.Context, phone string) (LoginResult, error) {
	normalized, err := c.NormalizePhone(phone)
	if err != nil {
		return LoginResult{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	stored, _ := c.NormalizePhone(c.profile.Phone)
	if c.hasProfile && stored == normalized && c.profile.IsOnboarded() {
		c.log.InfoContext(ctx, "Broker logged in")
		return LoginResult{Authenticated: true, Profile: cloneProfile(c.profile)}, nil
	}

	next := cloneProfile(c.profile)
	next.Phone = normalized
	if err := c.saveProfileLocked(ctx, next); err != nil {
		return LoginResult{}, err
	}
	return LoginResult{NeedsOnboarding: true, Profile: cloneProfile(next)}, nil
}

// CompleteOnboarding merges the onboarding form, stamps the trial start
// when absent and persists the profile.
func (c *Controller) CompleteOnboarding(ctx context.Context, patch ProfilePatch) (domain.UserProfile, error) {
	if patch.BrokerName == nil || strings.TrimSpace(*patch.BrokerName) == "" {
		return domain.UserProfile{}, fmt.Errorf("%w: broker name is required", ErrInvalidInput)
	}
	if err := c.checkPatch(&patch); err != nil {
		return domain.UserProfile{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	next := cloneProfile(c.profile)
	patch.apply(&next)
	if next.Phone == "" {
		return domain.UserProfile{}, fmt.Errorf("%w: phone is required", ErrInvalidPhone)
	}
	if next.TrialStartDate == nil {
		now := c.now()
		next.TrialStartDate = &now
	}
	if next.Language == "" {
		next.Language = domain.LanguagePT
	}
	if err := c.saveProfileLocked(ctx, next); err != nil {
		return domain.UserProfile{}, err
	}
	c.log.InfoContext(ctx, "Onboarding completed", "broker", next.BrokerName)
	return cloneProfile(next), nil
}

// StartTrial seeds a trial start date, but only when no profile has been
// stored yet. The boolean reports whether a trial was started.
func (c *Controller) StartTrial(ctx context.Context) (domain.UserProfile, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hasProfile {
		return cloneProfile(c.profile), false, nil
	}

	next := domain.DefaultProfile()
	now := c.now()
	next.TrialStartDate = &now
	if err := c.saveProfileLocked(ctx, next); err != nil {
		return domain.UserProfile{}, false, err
	}
	c.log.InfoContext(ctx, "Free trial started")
	return cloneProfile(next), true, nil
}

// TestTelegram sends a connection test through the broker's bot.
func (c *Controller) TestTelegram(ctx context.Context, token, chatID string) error {
	if token == "" || chatID == "" {
		profile := c.Profile()
		if token == "" {
			token = profile.TelegramBotToken
		}
		if chatID == "" {
			chatID = profile.TelegramChatID
		}
	}
	if token == "" || chatID == "" || c.notifier == nil {
		return ErrTelegramNotConfigured
	}
	return c.notifier.TestConnection(ctx, token, chatID, c.opts.TelegramTestText)
}

func (c *Controller) checkPatch(patch *ProfilePatch) error {
	if err := c.validate.Struct(patch); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if patch.Phone != nil && strings.TrimSpace(*patch.Phone) != "" {
		normalized, err := c.NormalizePhone(*patch.Phone)
		if err != nil {
			return err
		}
		patch.Phone = &normalized
	}
	return nil
}

// saveProfileLocked persists next and, on success, makes it current. c.mu must be held.
func (c *Controller) saveProfileLocked(ctx context.Context, next domain.UserProfile) error {
	if err := database.Write(ctx, c.store, database.KeyProfile, next); err != nil {
		c.log.ErrorContext(ctx, "Failed to persist profile", "error", err)
		return err
	}
	c.profile = next
	c.hasProfile = true
	return nil
}

func cloneProfile(p domain.UserProfile) domain.UserProfile {
	p.Schedules = slices.Clone(p.Schedules)
	for i := range p.Schedules {
		p.Schedules[i].Days = slices.Clone(p.Schedules[i].Days)
	}
	if p.TrialStartDate != nil {
		ts := *p.TrialStartDate
		p.TrialStartDate = &ts
	}
	return p
}

// IssueProToken mints a PRO token for the operator to hand to a broker.
// Tokens are not stored; the profile that carries one is PRO.
func (c *Controller) IssueProToken(ctx context.Context) string {
	token := domain.NewProToken(c.opts.ProTokenPrefix)
	c.log.InfoContext(ctx, "PRO token issued")
	return token
}
