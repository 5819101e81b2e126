// Package config loads and validates AgentPulse configuration.
package config

import (
	"errors"
	"time"

	"github.com/go-telegram/bot/models"
)

// ErrValidation wraps every configuration validation failure.
var ErrValidation = errors.New("configuration validation failed")

// Config is the root configuration. Values come from defaults, an optional
// YAML file and AGENTPULSE_* environment variables, in that order.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	CRM       CRMConfig       `mapstructure:"crm"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig selects the slog level and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// DatabaseConfig points at the SQLite file.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// GeminiConfig configures the remote generation client.
type GeminiConfig struct {
	APIKey            string        `mapstructure:"api_key" validate:"required"`
	BaseURL           string        `mapstructure:"base_url" validate:"omitempty,url"`
	ModelName         string        `mapstructure:"model_name" validate:"required"`
	SearchModelName   string        `mapstructure:"search_model_name" validate:"required"`
	SpeechModelName   string        `mapstructure:"speech_model_name" validate:"required"`
	SpeechVoice       string        `mapstructure:"speech_voice" validate:"required"`
	Temperature       float32       `mapstructure:"temperature" validate:"min=0,max=2"`
	SystemInstruction string        `mapstructure:"system_instruction" validate:"required"`
	MaxRetries        int           `mapstructure:"max_retries" validate:"min=0,max=5"`
	RetryBaseDelay    time.Duration `mapstructure:"retry_base_delay" validate:"min=0"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout" validate:"required,min=1s"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute" validate:"min=0"`
	MaxChatSessions   int           `mapstructure:"max_chat_sessions" validate:"min=1"`
	ChatSessionIdle   time.Duration `mapstructure:"chat_session_idle" validate:"min=1m"`
}

// TelegramConfig configures the operator bot and the alert notifier.
// An empty token disables the operator bot; alerts still use the broker's own token.
type TelegramConfig struct {
	Token        string       `mapstructure:"token"`
	AdminUserID  int64        `mapstructure:"admin_user_id" validate:"required_with=Token"`
	ServerURL    string       `mapstructure:"server_url" validate:"omitempty,url"`
	SpeakReplies bool         `mapstructure:"speak_replies"`
	BotInfo      *models.User `mapstructure:"-"`
}

// HTTPConfig configures the JSON API.
type HTTPConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Addr           string        `mapstructure:"addr" validate:"required_if=Enabled true"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"required,min=1s"`
}

// TaskConfig schedules one static maintenance task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// SchedulerConfig configures the job scheduler.
type SchedulerConfig struct {
	Timezone string                `mapstructure:"timezone" validate:"required,timezone"`
	Tasks    map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// CRMConfig holds the business rules of the state controller.
type CRMConfig struct {
	TrialDays          int    `mapstructure:"trial_days" validate:"min=1"`
	ProTokenPrefix     string `mapstructure:"pro_token_prefix" validate:"required"`
	DailySendLimit     int    `mapstructure:"daily_send_limit" validate:"min=1"`
	SafeBelow          int    `mapstructure:"safe_below" validate:"min=1,ltfield=AttentionBelow"`
	AttentionBelow     int    `mapstructure:"attention_below" validate:"min=1"`
	DefaultCountryCode string `mapstructure:"default_country_code" validate:"required,numeric"`
	HotLeadScore       int    `mapstructure:"hot_lead_score" validate:"min=0,max=100"`
}

// MessagesConfig holds user-facing texts, including generation fallbacks.
type MessagesConfig struct {
	Welcome        string `mapstructure:"welcome" validate:"required"`
	Help           string `mapstructure:"help" validate:"required"`
	GeneralError   string `mapstructure:"general_error" validate:"required"`
	NotAuthorized  string `mapstructure:"not_authorized" validate:"required"`
	ResetDone      string `mapstructure:"reset_done" validate:"required"`
	NoLeads        string `mapstructure:"no_leads" validate:"required"`
	ScriptFallback string `mapstructure:"script_fallback" validate:"required"`
	ReportFallback string `mapstructure:"report_fallback" validate:"required"`
	ReportError    string `mapstructure:"report_error" validate:"required"`
	ChatFallback   string `mapstructure:"chat_fallback" validate:"required"`
	TelegramTest   string `mapstructure:"telegram_test" validate:"required"`
}

// Location resolves the scheduler timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
