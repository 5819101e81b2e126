// Package tasks holds the jobs run by the scheduler: static maintenance
// tasks from configuration and the broker's recurring lead searches.
package tasks

import (
	"log/slog"

	"github.com/edgard/agentpulse/internal/config"
	"github.com/edgard/agentpulse/internal/crm"
	"github.com/edgard/agentpulse/internal/database"
	"github.com/edgard/agentpulse/internal/gemini"
)

// TaskDeps are the dependencies shared by scheduled tasks.
type TaskDeps struct {
	Logger       *slog.Logger
	Store        database.Store
	Controller   *crm.Controller
	GeminiClient gemini.Client
	Config       *config.Config
}
