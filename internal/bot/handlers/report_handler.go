package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/agentpulse/internal/gemini"
)

// NewReportHandler returns a handler for the /report market brief command.
func NewReportHandler(deps HandlerDeps) bot.HandlerFunc {
	return reportHandler{deps}.Handle
}

type reportHandler struct {
	deps HandlerDeps
}

func (h reportHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	log := h.deps.Logger.With("handler", "report")
	chatID := update.Message.Chat.ID

	address, details, _ := strings.Cut(commandArgs(update.Message.Text), "|")
	address = strings.TrimSpace(address)
	if address == "" {
		send(ctx, b, log, chatID, "Usage: /report <address> | <details>")
		return
	}

	report, err := h.deps.GeminiClient.GenerateMarketReport(ctx, gemini.MarketReportRequest{
		Address:  address,
		Details:  strings.TrimSpace(details),
		Language: h.deps.Controller.Profile().Language,
	})
	if err != nil {
		log.WarnContext(ctx, "Market report failed, sending fallback", "error", err)
	}

	var sb strings.Builder
	sb.WriteString(report.Text)
	if len(report.Sources) > 0 {
		sb.WriteString("\n\nSources:")
		for _, s := range report.Sources {
			fmt.Fprintf(&sb, "\n• %s %s", s.Title, s.URI)
		}
	}
	send(ctx, b, log, chatID, sb.String())
}
