package config

import "time"

// Default values for configuration.
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false

	DefaultDatabasePath = "agentpulse.db"

	DefaultGeminiModelName       = "gemini-2.5-flash"
	DefaultGeminiSearchModelName = "gemini-2.5-flash"
	DefaultGeminiSpeechModelName = "gemini-2.5-flash-preview-tts"
	DefaultGeminiSpeechVoice     = "Puck"
	DefaultGeminiTemperature     = 0.7
	DefaultGeminiMaxRetries      = 1
	DefaultGeminiRetryBaseDelay  = 800 * time.Millisecond
	DefaultGeminiRequestTimeout  = 90 * time.Second
	DefaultGeminiRequestsPerMin  = 30
	DefaultGeminiMaxChatSessions = 256
	DefaultGeminiChatSessionIdle = 2 * time.Hour
	DefaultGeminiSystemPrompt    = "You are AgentPulse, a senior real-estate sales assistant. " +
		"You help a broker find buyers and property owners, write short persuasive WhatsApp messages " +
		"and read local market trends. Be direct, practical and honest; never invent contact data."

	DefaultHTTPEnabled        = true
	DefaultHTTPAddr           = ":8080"
	DefaultHTTPRequestTimeout = 2 * time.Minute

	DefaultSchedulerTimezone = "America/Sao_Paulo"

	DefaultTrialDays          = 7
	DefaultProTokenPrefix     = "AGENT-PRO-"
	DefaultDailySendLimit     = 40
	DefaultSafeBelow          = 15
	DefaultAttentionBelow     = 30
	DefaultCountryCode        = "55"
	DefaultHotLeadScore       = 80
	DefaultSQLMaintenanceCron = "0 4 * * 0"
)

// DefaultMessages are the user-facing texts. The generation fallbacks keep
// the wording the broker already knows.
var DefaultMessages = MessagesConfig{
	Welcome: "👋 AgentPulse is online. Use /radar to hunt for leads or just talk to me.",
	Help: "Commands:\n" +
		"/radar buyer|owner <niche> @ <location> - search for leads\n" +
		"/leads - list leads\n" +
		"/status <lead id> <status> - move a lead\n" +
		"/script <lead id> - WhatsApp scripts for a lead\n" +
		"/report <address> | <details> - market report\n" +
		"/stats - dashboard\n" +
		"/goals [broker] <n> - closed-deal goals\n" +
		"/protoken - issue a PRO token (admin)\n" +
		"/reset - wipe all data (admin)",
	GeneralError:   "❌ Something went wrong. Please try again later.",
	NotAuthorized:  "🚫 Access denied.",
	ResetDone:      "🔄 All AgentPulse data has been cleared.",
	NoLeads:        "No leads yet. Try /radar.",
	ScriptFallback: "Olá, vi seu interesse em imóveis e gostaria de ajudar.",
	ReportFallback: "Relatório indisponível.",
	ReportError:    "Erro na inteligência de mercado.",
	ChatFallback:   "Desculpe, não consegui responder agora. Tente novamente em instantes.",
	TelegramTest:   "✅ AgentPulse conectado! Você receberá alertas de novos leads aqui.",
}
