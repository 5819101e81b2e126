package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/agentpulse/internal/crm"
	"github.com/edgard/agentpulse/internal/domain"
)

const statusUsage = "Usage: /status <lead #|id> New|Contacted|Scheduled|Deal Closed"

// NewStatusHandler returns a handler for the /status command.
func NewStatusHandler(deps HandlerDeps) bot.HandlerFunc {
	return statusHandler{deps}.Handle
}

type statusHandler struct {
	deps HandlerDeps
}

func (h statusHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	log := h.deps.Logger.With("handler", "status")
	chatID := update.Message.Chat.ID

	ref, rawStatus, _ := strings.Cut(commandArgs(update.Message.Text), " ")
	status, err := domain.ParseLeadStatus(rawStatus)
	if ref == "" || err != nil {
		send(ctx, b, log, chatID, statusUsage)
		return
	}

	lead, err := resolveLead(h.deps.Controller, ref)
	if err == nil {
		lead, err = h.deps.Controller.UpdateLeadStatus(ctx, lead.ID, status)
	}
	switch {
	case errors.Is(err, crm.ErrLeadNotFound), errors.Is(err, crm.ErrInvalidInput):
		send(ctx, b, log, chatID, "❓ "+err.Error())
	case errors.Is(err, crm.ErrInvalidTransition):
		send(ctx, b, log, chatID, "⛔ "+err.Error())
	case err != nil:
		log.ErrorContext(ctx, "Failed to update lead status", "error", err)
		send(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
	default:
		send(ctx, b, log, chatID, fmt.Sprintf("✅ %s → %s", lead.Name, lead.Status))
	}
}
