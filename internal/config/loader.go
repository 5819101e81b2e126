package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. AGENTPULSE_GEMINI_API_KEY.
const EnvPrefix = "AGENTPULSE"

// Load reads configuration from, in increasing precedence:
//  1. built-in defaults
//  2. the YAML file at path, when it exists
//  3. AGENTPULSE_* environment variables
//
// The result is validated before it is returned.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file %s: %w", path, err)
		}
		// A missing file is fine; defaults and environment apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct tags on cfg.
func Validate(cfg *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrValidation, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", DefaultLogJSON)

	v.SetDefault("database.path", DefaultDatabasePath)

	// Keys without a useful default are still registered so AutomaticEnv sees them.
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.base_url", "")
	v.SetDefault("gemini.model_name", DefaultGeminiModelName)
	v.SetDefault("gemini.search_model_name", DefaultGeminiSearchModelName)
	v.SetDefault("gemini.speech_model_name", DefaultGeminiSpeechModelName)
	v.SetDefault("gemini.speech_voice", DefaultGeminiSpeechVoice)
	v.SetDefault("gemini.temperature", DefaultGeminiTemperature)
	v.SetDefault("gemini.system_instruction", DefaultGeminiSystemPrompt)
	v.SetDefault("gemini.max_retries", DefaultGeminiMaxRetries)
	v.SetDefault("gemini.retry_base_delay", DefaultGeminiRetryBaseDelay)
	v.SetDefault("gemini.request_timeout", DefaultGeminiRequestTimeout)
	v.SetDefault("gemini.requests_per_minute", DefaultGeminiRequestsPerMin)
	v.SetDefault("gemini.max_chat_sessions", DefaultGeminiMaxChatSessions)
	v.SetDefault("gemini.chat_session_idle", DefaultGeminiChatSessionIdle)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_user_id", 0)
	v.SetDefault("telegram.server_url", "")
	v.SetDefault("telegram.speak_replies", false)

	v.SetDefault("http.enabled", DefaultHTTPEnabled)
	v.SetDefault("http.addr", DefaultHTTPAddr)
	v.SetDefault("http.allowed_origins", []string{"*"})
	v.SetDefault("http.request_timeout", DefaultHTTPRequestTimeout)

	v.SetDefault("scheduler.timezone", DefaultSchedulerTimezone)
	v.SetDefault("scheduler.tasks", map[string]any{
		"sql_maintenance": map[string]any{
			"enabled":  true,
			"schedule": DefaultSQLMaintenanceCron,
		},
	})

	v.SetDefault("crm.trial_days", DefaultTrialDays)
	v.SetDefault("crm.pro_token_prefix", DefaultProTokenPrefix)
	v.SetDefault("crm.daily_send_limit", DefaultDailySendLimit)
	v.SetDefault("crm.safe_below", DefaultSafeBelow)
	v.SetDefault("crm.attention_below", DefaultAttentionBelow)
	v.SetDefault("crm.default_country_code", DefaultCountryCode)
	v.SetDefault("crm.hot_lead_score", DefaultHotLeadScore)

	v.SetDefault("messages.welcome", DefaultMessages.Welcome)
	v.SetDefault("messages.help", DefaultMessages.Help)
	v.SetDefault("messages.general_error", DefaultMessages.GeneralError)
	v.SetDefault("messages.not_authorized", DefaultMessages.NotAuthorized)
	v.SetDefault("messages.reset_done", DefaultMessages.ResetDone)
	v.SetDefault("messages.no_leads", DefaultMessages.NoLeads)
	v.SetDefault("messages.script_fallback", DefaultMessages.ScriptFallback)
	v.SetDefault("messages.report_fallback", DefaultMessages.ReportFallback)
	v.SetDefault("messages.report_error", DefaultMessages.ReportError)
	v.SetDefault("messages.chat_fallback", DefaultMessages.ChatFallback)
	v.SetDefault("messages.telegram_test", DefaultMessages.TelegramTest)
}
