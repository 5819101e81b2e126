package handlers

import (
	"context"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewResetHandler returns a handler for the admin /reset command.
func NewResetHandler(deps HandlerDeps) bot.HandlerFunc {
	return resetHandler{deps}.Handle
}

type resetHandler struct {
	deps HandlerDeps
}

func (h resetHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	log := h.deps.Logger.With("handler", "reset")
	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Admin requested data reset", "chat_id", chatID)

	timeoutCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := h.deps.Controller.Reset(timeoutCtx); err != nil {
		log.ErrorContext(ctx, "Failed to reset data", "error", err)
		send(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}
	if h.deps.Sessions != nil {
		h.deps.Sessions.Clear()
	}
	send(ctx, b, log, chatID, h.deps.Config.Messages.ResetDone)
}
