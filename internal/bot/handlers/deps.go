package handlers

import (
	"log/slog"

	"github.com/edgard/agentpulse/internal/config"
	"github.com/edgard/agentpulse/internal/crm"
	"github.com/edgard/agentpulse/internal/gemini"
)

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger       *slog.Logger
	Config       *config.Config
	Controller   *crm.Controller
	GeminiClient gemini.Client
	Sessions     *gemini.Sessions
}
