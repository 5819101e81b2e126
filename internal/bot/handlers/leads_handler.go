package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/edgard/agentpulse/internal/domain"
)

const maxListedLeads = 30

// NewLeadsHandler returns a handler for the /leads command.
func NewLeadsHandler(deps HandlerDeps) bot.HandlerFunc {
	return leadsHandler{deps}.Handle
}

type leadsHandler struct {
	deps HandlerDeps
}

func (h leadsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	log := h.deps.Logger.With("handler", "leads")
	chatID := update.Message.Chat.ID

	leads := h.deps.Controller.Leads()
	if len(leads) == 0 {
		send(ctx, b, log, chatID, h.deps.Config.Messages.NoLeads)
		return
	}
	sendHTML(ctx, b, log, chatID, "<pre>"+esc(renderLeadTable(leads, maxListedLeads))+"</pre>")
}

// renderLeadTable lays out at most limit leads as a plain-text table.
func renderLeadTable(leads []domain.Lead, limit int) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "ID", "Name", "Score", "Status"})
	for i, l := range leads {
		if i == limit {
			t.AppendFooter(table.Row{"", "", fmt.Sprintf("+%d more", len(leads)-limit), "", ""})
			break
		}
		t.AppendRow(table.Row{i + 1, shortID(l.ID), truncate(l.Name, 18), l.Score, l.Status})
	}
	return t.Render()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
