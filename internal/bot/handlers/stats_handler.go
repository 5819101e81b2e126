package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/agentpulse/internal/domain"
)

// NewStatsHandler returns a handler for the /stats dashboard command.
func NewStatsHandler(deps HandlerDeps) bot.HandlerFunc {
	return statsHandler{deps}.Handle
}

type statsHandler struct {
	deps HandlerDeps
}

func (h statsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	log := h.deps.Logger.With("handler", "stats")
	send(ctx, b, log, update.Message.Chat.ID, formatStats(h.deps.Controller.Dashboard(ctx)))
}

var safetyIcons = map[domain.SafetyLevel]string{
	domain.SafetySafe:      "🟢",
	domain.SafetyAttention: "🟡",
	domain.SafetyRisk:      "🔴",
}

func formatStats(s domain.DashboardStats) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 Leads: %d (🔥 %d hot)\n", s.TotalLeads, s.HotLeads)
	for _, st := range domain.LeadStatuses {
		fmt.Fprintf(&sb, "  %s: %d\n", st, s.ByStatus[st])
	}
	fmt.Fprintf(&sb, "\n%s Sent today: %d/%d\n", safetyIcons[s.Safety], s.SentToday, s.DailyLimit)

	switch sub := s.Subscription; {
	case sub.Tier == domain.TierPro:
		sb.WriteString("⭐ PRO")
	case sub.Expired:
		sb.WriteString("⏳ Trial expired")
	default:
		fmt.Fprintf(&sb, "⏳ Trial: %d days left", sub.DaysLeft)
	}
	return sb.String()
}
