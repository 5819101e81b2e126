package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/agentpulse/internal/domain"
	"github.com/edgard/agentpulse/internal/gemini"
)

const radarUsage = "Usage: /radar buyer|owner <niche> @ <location>"

// NewRadarHandler returns a handler for the /radar lead search command.
func NewRadarHandler(deps HandlerDeps) bot.HandlerFunc {
	return radarHandler{deps}.Handle
}

type radarHandler struct {
	deps HandlerDeps
}

func (h radarHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	log := h.deps.Logger.With("handler", "radar")
	chatID := update.Message.Chat.ID

	q, ok := parseRadarArgs(commandArgs(update.Message.Text))
	if !ok {
		send(ctx, b, log, chatID, radarUsage)
		return
	}
	if h.deps.Controller.Subscription().Expired {
		send(ctx, b, log, chatID, "⏳ Your trial has ended. Activate PRO to keep searching.")
		return
	}

	profile := h.deps.Controller.Profile()
	q.Language = profile.Language
	q.CustomInstructions = profile.CustomInstructions

	send(ctx, b, log, chatID, "🔎 Searching...")
	result, err := h.deps.GeminiClient.SearchLeads(ctx, q)
	if err != nil {
		log.ErrorContext(ctx, "Lead search failed", "error", err)
		send(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	added, err := h.deps.Controller.IngestSearch(ctx, result.Leads)
	if err != nil {
		log.ErrorContext(ctx, "Failed to store leads", "error", err)
		send(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}
	log.InfoContext(ctx, "Radar search completed", "found", len(result.Leads), "added", len(added))
	sendHTML(ctx, b, log, chatID, formatRadarResult(result, added))
}

// parseRadarArgs reads "[buyer|owner] <niche> [@ <location>]".
func parseRadarArgs(args string) (gemini.SearchQuery, bool) {
	q := gemini.SearchQuery{Type: domain.LeadTypeBuyer}
	if first, rest, _ := strings.Cut(args, " "); first != "" {
		if t, err := domain.ParseLeadType(first); err == nil {
			q.Type = t
			args = rest
		}
	}
	niche, location, _ := strings.Cut(args, "@")
	q.Niche = strings.TrimSpace(niche)
	q.Location = strings.TrimSpace(location)
	return q, q.Niche != "" || q.Location != ""
}

func formatRadarResult(result gemini.LeadSearchResult, added []domain.Lead) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🎯 <b>%d leads found, %d new</b>\n", len(result.Leads), len(added))
	for i, l := range added {
		fmt.Fprintf(&sb, "\n#%d <b>%s</b> · %d%% · %s\n%s\n", i+1, esc(l.Name), l.Score, esc(l.Location), esc(l.Need))
	}
	if len(result.Sources) > 0 {
		sb.WriteString("\n📚 Sources:\n")
		for _, s := range result.Sources {
			fmt.Fprintf(&sb, "• <a href=\"%s\">%s</a>\n", esc(s.URI), esc(s.Title))
		}
	}
	return sb.String()
}
