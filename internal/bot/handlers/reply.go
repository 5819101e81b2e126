package handlers

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/agentpulse/internal/crm"
	"github.com/edgard/agentpulse/internal/domain"
)

// maxMessageLen is Telegram's limit for one text message.
const maxMessageLen = 4096

// send delivers text in as many messages as needed. Errors are logged.
func send(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, text string) {
	sendMode(ctx, b, log, chatID, text, "")
}

// sendHTML is send with HTML formatting. Callers escape user content.
func sendHTML(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, text string) {
	sendMode(ctx, b, log, chatID, text, models.ParseModeHTML)
}

func sendMode(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, text string, mode models.ParseMode) {
	for _, chunk := range splitMessage(text, maxMessageLen) {
		if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: chunk, ParseMode: mode}); err != nil {
			log.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", chatID)
			return
		}
	}
}

// splitMessage cuts text into chunks of at most limit bytes, preferring
// line breaks and never splitting a rune.
func splitMessage(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var chunks []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut <= 0 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}
		chunks = append(chunks, strings.TrimSpace(text[:cut]))
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

// commandArgs returns the text after the command word.
func commandArgs(text string) string {
	_, rest, _ := strings.Cut(strings.TrimSpace(text), " ")
	return strings.TrimSpace(rest)
}

// resolveLead accepts a 1-based position in the lead list, a full id or a
// unique id suffix. Suffixes are used because time-ordered ids share prefixes.
func resolveLead(ctrl *crm.Controller, ref string) (domain.Lead, error) {
	ref = strings.TrimPrefix(strings.TrimSpace(ref), "#")
	if ref == "" {
		return domain.Lead{}, fmt.Errorf("%w: missing lead reference", crm.ErrInvalidInput)
	}
	leads := ctrl.Leads()
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(leads) {
		return leads[n-1], nil
	}

	var match *domain.Lead
	for i := range leads {
		if leads[i].ID == ref {
			return leads[i], nil
		}
		if strings.HasSuffix(leads[i].ID, ref) {
			if match != nil {
				return domain.Lead{}, fmt.Errorf("%w: %q matches more than one lead", crm.ErrInvalidInput, ref)
			}
			match = &leads[i]
		}
	}
	if match == nil {
		return domain.Lead{}, fmt.Errorf("%w: %s", crm.ErrLeadNotFound, ref)
	}
	return *match, nil
}

func esc(s string) string {
	return html.EscapeString(s)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[len(id)-8:]
	}
	return id
}
