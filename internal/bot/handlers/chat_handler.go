package handlers

import (
	"bytes"
	"context"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewChatHandler returns the default handler: free text becomes an assistant
// turn, unknown commands get the help text.
func NewChatHandler(deps HandlerDeps) bot.HandlerFunc {
	return chatHandler{deps}.Handle
}

type chatHandler struct {
	deps HandlerDeps
}

func (h chatHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || strings.TrimSpace(update.Message.Text) == "" {
		return
	}
	log := h.deps.Logger.With("handler", "chat")
	chatID := update.Message.Chat.ID
	text := strings.TrimSpace(update.Message.Text)

	if strings.HasPrefix(text, "/") {
		send(ctx, b, log, chatID, withBotName(h.deps.Config.Messages.Help, h.deps))
		return
	}

	sess, err := h.deps.Sessions.Get(ctx, strconv.FormatInt(chatID, 10))
	if err != nil {
		log.ErrorContext(ctx, "Failed to open chat session", "error", err)
		send(ctx, b, log, chatID, h.deps.Config.Messages.ChatFallback)
		return
	}

	_, _ = b.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: chatID, Action: models.ChatActionTyping})
	reply, err := sess.Send(ctx, text)
	if err != nil {
		log.WarnContext(ctx, "Chat turn failed, sending fallback", "error", err)
	}
	send(ctx, b, log, chatID, reply)

	if err == nil && h.deps.Config.Telegram.SpeakReplies {
		h.speak(ctx, b, chatID, reply)
	}
}

func (h chatHandler) speak(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	log := h.deps.Logger.With("handler", "chat")
	speech, err := h.deps.GeminiClient.SynthesizeSpeech(ctx, text)
	if err != nil {
		log.WarnContext(ctx, "Speech synthesis failed", "error", err)
		return
	}
	if speech == nil {
		return
	}
	if _, err := b.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:   chatID,
		Document: &models.InputFileUpload{Filename: "reply.wav", Data: bytes.NewReader(speech.Data)},
	}); err != nil {
		log.ErrorContext(ctx, "Failed to send speech", "error", err)
	}
}
