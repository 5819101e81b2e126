// Package handlers contains the operator bot's command handlers, their
// registration and middleware.
package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// AdminOnly lets only the configured admin user through. Everyone else gets
// the not-authorized message.
func AdminOnly(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			if update.Message == nil || update.Message.From == nil {
				return
			}
			if update.Message.From.ID != deps.Config.Telegram.AdminUserID {
				chatID := update.Message.Chat.ID
				deps.Logger.WarnContext(ctx, "Unauthorized access attempt", "user_id", update.Message.From.ID, "chat_id", chatID)
				send(ctx, b, deps.Logger, chatID, deps.Config.Messages.NotAuthorized)
				return
			}
			next(ctx, b, update)
		}
	}
}
