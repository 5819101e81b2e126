package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewScriptHandler returns a handler for the /script command.
func NewScriptHandler(deps HandlerDeps) bot.HandlerFunc {
	return scriptHandler{deps}.Handle
}

type scriptHandler struct {
	deps HandlerDeps
}

func (h scriptHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	log := h.deps.Logger.With("handler", "script")
	chatID := update.Message.Chat.ID

	lead, err := resolveLead(h.deps.Controller, commandArgs(update.Message.Text))
	if err != nil {
		send(ctx, b, log, chatID, "Usage: /script <lead #|id>\n"+err.Error())
		return
	}

	scripts, err := h.deps.GeminiClient.GenerateScripts(ctx, lead, h.deps.Controller.Profile())
	if err != nil {
		log.WarnContext(ctx, "Script generation failed, sending fallback", "lead_id", lead.ID, "error", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "💬 Scripts for %s\n", lead.Name)
	for i, s := range scripts {
		fmt.Fprintf(&sb, "\n%d. %s\n", i+1, s)
	}
	send(ctx, b, log, chatID, sb.String())
}
