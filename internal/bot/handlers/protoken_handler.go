package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewProTokenHandler returns a handler for the /protoken command.
func NewProTokenHandler(deps HandlerDeps) bot.HandlerFunc {
	return proTokenHandler{deps}.Handle
}

type proTokenHandler struct {
	deps HandlerDeps
}

func (h proTokenHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	log := h.deps.Logger.With("handler", "protoken")
	token := h.deps.Controller.IssueProToken(ctx)
	send(ctx, b, log, update.Message.Chat.ID, "🔑 "+token+"\nPaste it in the profile to unlock PRO.")
}
