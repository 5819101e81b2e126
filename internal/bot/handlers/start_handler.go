package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStartHandler returns a handler for the /start command.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	log := h.deps.Logger.With("handler", "start")
	log.InfoContext(ctx, "Handling /start command", "chat_id", update.Message.Chat.ID)

	welcome := h.deps.Config.Messages.Welcome
	if profile := h.deps.Controller.Profile(); profile.IsOnboarded() {
		welcome = "👋 " + profile.BrokerName + "\n" + welcome
		if profile.WelcomeMessage != "" {
			welcome += "\n\n" + profile.WelcomeMessage
		}
	}
	send(ctx, b, log, update.Message.Chat.ID, withBotName(welcome, h.deps))
}

func withBotName(text string, deps HandlerDeps) string {
	if info := deps.Config.Telegram.BotInfo; info != nil && info.Username != "" {
		return strings.ReplaceAll(text, "@botname", "@"+info.Username)
	}
	return text
}
