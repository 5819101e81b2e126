package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewID returns a time-ordered identifier for leads, schedules and listings.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// ChatRole identifies the author of a chat turn.
type ChatRole string

const (
	RoleUser  ChatRole = "user"
	RoleModel ChatRole = "model"
)

// ChatMessage is one turn of an assistant conversation. Turns are kept in memory only.
type ChatMessage struct {
	Role      ChatRole  `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Theme is the stored UI theme preference.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Toggle flips between dark and light.
func (t Theme) Toggle() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}

// SentCounter counts outbound messages for one calendar day.
type SentCounter struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// SafetyLevel rates daily outbound volume against messaging-platform limits.
type SafetyLevel string

const (
	SafetySafe      SafetyLevel = "safe"
	SafetyAttention SafetyLevel = "attention"
	SafetyRisk      SafetyLevel = "risk"
)

// RateSafety classifies count against the safe and attention ceilings.
func RateSafety(count, safeBelow, attentionBelow int) SafetyLevel {
	switch {
	case count < safeBelow:
		return SafetySafe
	case count < attentionBelow:
		return SafetyAttention
	default:
		return SafetyRisk
	}
}

// DashboardStats is the summary shown on the broker's home screen.
type DashboardStats struct {
	TotalLeads   int                `json:"totalLeads"`
	HotLeads     int                `json:"hotLeads"`
	ByStatus     map[LeadStatus]int `json:"byStatus"`
	SentToday    int                `json:"sentToday"`
	DailyLimit   int                `json:"dailyLimit"`
	Safety       SafetyLevel        `json:"safety"`
	Subscription SubscriptionStatus `json:"subscription"`
}

// JobOpportunity is a listing on the brokers' opportunity board.
type JobOpportunity struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Agency      string    `json:"agency"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	Contact     string    `json:"contact"`
	PostedAt    time.Time `json:"postedAt"`
}

// Validate checks the listing's required fields.
func (o JobOpportunity) Validate() error {
	if o.Title == "" || o.Contact == "" {
		return fmt.Errorf("opportunity needs a title and a contact")
	}
	return nil
}

// TalentProfile is a broker advertising availability on the board.
type TalentProfile struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Region     string    `json:"region"`
	Speciality string    `json:"speciality"`
	Experience string    `json:"experience"`
	Contact    string    `json:"contact"`
	PostedAt   time.Time `json:"postedAt"`
}

// Validate checks the listing's required fields.
func (t TalentProfile) Validate() error {
	if t.Name == "" || t.Contact == "" {
		return fmt.Errorf("talent profile needs a name and a contact")
	}
	return nil
}

// EmailDraft is a generated marketing email.
type EmailDraft struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// SelfBroker is the goal key for leads without a BrokerID.
const SelfBroker = "self"

// DefaultGoal is the closed-deal target for brokers without one set.
const DefaultGoal = 5

// GoalProgress is a broker's closed deals against their target.
type GoalProgress struct {
	BrokerID string  `json:"brokerId"`
	Closed   int     `json:"closed"`
	Goal     int     `json:"goal"`
	Progress float64 `json:"progress"`
	Met      bool    `json:"met"`
}

// NewGoalProgress computes progress as a percentage capped at 100.
func NewGoalProgress(brokerID string, closed, goal int) GoalProgress {
	if goal <= 0 {
		goal = DefaultGoal
	}
	return GoalProgress{
		BrokerID: brokerID,
		Closed:   closed,
		Goal:     goal,
		Progress: min(100, float64(closed)/float64(goal)*100),
		Met:      closed >= goal,
	}
}
