package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// RegisteredHandler is a command handler with its menu description and middleware.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Description string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// RegisterAllCommands returns every bot command keyed by its slash name.
// Everything but /start and /help is restricted to the admin, since the
// bot operates on a single broker's data.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	admin := []tgbot.Middleware{AdminOnly(deps)}

	command := func(pattern, description string, h tgbot.HandlerFunc, mw []tgbot.Middleware) RegisteredHandler {
		return RegisteredHandler{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     pattern,
			Description: description,
			Handler:     h,
			Middleware:  mw,
			MatchType:   tgbot.MatchTypeCommandStartOnly,
		}
	}

	return map[string]RegisteredHandler{
		"/start":  command("start", "Start the assistant", NewStartHandler(deps), nil),
		"/help":   command("help", "List commands", NewHelpHandler(deps), nil),
		"/radar":  command("radar", "Search for leads", NewRadarHandler(deps), admin),
		"/leads":  command("leads", "List leads", NewLeadsHandler(deps), admin),
		"/status": command("status", "Move a lead in the pipeline", NewStatusHandler(deps), admin),
		"/script": command("script", "Outreach scripts for a lead", NewScriptHandler(deps), admin),
		"/report": command("report", "Market report for a property", NewReportHandler(deps), admin),
		"/stats":  command("stats", "Dashboard", NewStatsHandler(deps), admin),
		"/goals":  command("goals", "Closed-deal goals", NewGoalsHandler(deps), admin),
		"/reset":  command("reset", "Wipe all data", NewResetHandler(deps), admin),

		"/protoken": command("protoken", "Issue a PRO token", NewProTokenHandler(deps), admin),
	}
}

// DefaultHandler handles everything no command matched.
func DefaultHandler(deps HandlerDeps) tgbot.HandlerFunc {
	return AdminOnly(deps)(NewChatHandler(deps))
}
