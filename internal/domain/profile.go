package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Language is the operator's preferred output language.
type Language string

const (
	LanguagePT Language = "pt"
	LanguageEN Language = "en"
	LanguageES Language = "es"
	LanguageZH Language = "zh"
	LanguageHI Language = "hi"
	LanguageFR Language = "fr"
)

// LanguageName returns the English name used inside prompts.
func (l Language) LanguageName() string {
	switch l {
	case LanguageEN:
		return "English"
	case LanguageES:
		return "Spanish"
	case LanguageZH:
		return "Chinese"
	case LanguageHI:
		return "Hindi"
	case LanguageFR:
		return "French"
	default:
		return "Brazilian Portuguese"
	}
}

// Default broker name assigned before onboarding.
const DefaultBrokerName = "Corretor"

// UserProfile is the single broker profile of this installation.
type UserProfile struct {
	BrokerName           string           `json:"brokerName"`
	AgencyName           string           `json:"agencyName"`
	Phone                string           `json:"phone"`
	WelcomeMessage       string           `json:"welcomeMessage,omitempty"`
	CustomInstructions   string           `json:"customInstructions,omitempty"`
	Language             Language         `json:"language,omitempty"`
	CatalogLink          string           `json:"catalogLink,omitempty"`
	BioLink              string           `json:"bioLink,omitempty"`
	Instagram            string           `json:"instagram,omitempty"`
	ProToken             string           `json:"proToken,omitempty"`
	TrialStartDate       *time.Time       `json:"trialStartDate,omitempty"`
	TelegramBotToken     string           `json:"telegramBotToken,omitempty"`
	TelegramChatID       string           `json:"telegramChatId,omitempty"`
	EnableTelegramAlerts bool             `json:"enableTelegramAlerts"`
	Schedules            []SearchSchedule `json:"schedules,omitempty"`
}

// DefaultProfile is the profile used when nothing has been stored yet.
func DefaultProfile() UserProfile {
	return UserProfile{
		BrokerName: DefaultBrokerName,
		Language:   LanguagePT,
	}
}

// IsOnboarded reports whether the broker finished onboarding.
func (p UserProfile) IsOnboarded() bool {
	return p.BrokerName != "" && p.BrokerName != DefaultBrokerName && p.Phone != ""
}

// AlertsConfigured reports whether lead alerts may be pushed to the broker's chat.
func (p UserProfile) AlertsConfigured() bool {
	return p.EnableTelegramAlerts && p.TelegramBotToken != "" && p.TelegramChatID != ""
}

// Tier is the subscription tier derived from the profile.
type Tier string

const (
	TierTrial Tier = "TRIAL"
	TierPro   Tier = "PRO"
)

// SubscriptionStatus summarizes the broker's access.
type SubscriptionStatus struct {
	Tier     Tier `json:"tier"`
	Expired  bool `json:"expired"`
	DaysLeft int  `json:"daysLeft"`
}

// Subscription computes the access status at now. The PRO token is trusted
// by prefix only; a profile without a trial start is treated as a fresh trial.
func (p UserProfile) Subscription(now time.Time, trialDays int, proPrefix string) SubscriptionStatus {
	if proPrefix != "" && strings.HasPrefix(p.ProToken, proPrefix) {
		return SubscriptionStatus{Tier: TierPro}
	}
	if p.TrialStartDate == nil {
		return SubscriptionStatus{Tier: TierTrial, DaysLeft: trialDays}
	}
	elapsed := int(now.Sub(*p.TrialStartDate).Hours() / 24)
	left := trialDays - elapsed
	if left <= 0 {
		return SubscriptionStatus{Tier: TierTrial, Expired: true}
	}
	return SubscriptionStatus{Tier: TierTrial, DaysLeft: left}
}

const tokenAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// ProTokenSuffixLen is the number of random characters after the prefix.
const ProTokenSuffixLen = 8

// NewProToken issues a lifetime PRO token: prefix followed by random
// uppercase base-36 characters.
func NewProToken(prefix string) string {
	id := uuid.New()
	// Bytes 6 and 8 carry the version and variant bits.
	random := append(id[:2:2], id[10:]...)
	var sb strings.Builder
	sb.Grow(len(prefix) + ProTokenSuffixLen)
	sb.WriteString(prefix)
	for _, b := range random {
		sb.WriteByte(tokenAlphabet[int(b)%len(tokenAlphabet)])
	}
	return sb.String()
}
