package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/agentpulse/internal/crm"
	"github.com/edgard/agentpulse/internal/domain"
)

const goalsUsage = "Usage: /goals [broker] <closed deals>"

// NewGoalsHandler returns a handler for the /goals command. Without
// arguments it shows progress; with a number it sets a goal.
func NewGoalsHandler(deps HandlerDeps) bot.HandlerFunc {
	return goalsHandler{deps}.Handle
}

type goalsHandler struct {
	deps HandlerDeps
}

func (h goalsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	log := h.deps.Logger.With("handler", "goals")
	chatID := update.Message.Chat.ID

	args := strings.Fields(commandArgs(update.Message.Text))
	if len(args) == 0 {
		send(ctx, b, log, chatID, formatGoals(h.deps.Controller.GoalProgress(ctx)))
		return
	}

	broker := domain.SelfBroker
	if len(args) == 2 {
		broker = args[0]
	}
	goal, err := strconv.Atoi(args[len(args)-1])
	if len(args) > 2 || err != nil {
		send(ctx, b, log, chatID, goalsUsage)
		return
	}

	progress, err := h.deps.Controller.SetGoal(ctx, broker, goal)
	switch {
	case errors.Is(err, crm.ErrInvalidInput):
		send(ctx, b, log, chatID, "❓ "+err.Error())
	case err != nil:
		log.ErrorContext(ctx, "Failed to set goal", "error", err)
		send(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
	default:
		send(ctx, b, log, chatID, "🎯 "+formatGoal(progress))
	}
}

func formatGoal(p domain.GoalProgress) string {
	mark := ""
	if p.Met {
		mark = " 🏆"
	}
	return fmt.Sprintf("%s: %d/%d (%.0f%%)%s", p.BrokerID, p.Closed, p.Goal, p.Progress, mark)
}

func formatGoals(list []domain.GoalProgress) string {
	var sb strings.Builder
	sb.WriteString("🎯 Goals")
	for _, p := range list {
		sb.WriteString("\n")
		sb.WriteString(formatGoal(p))
	}
	return sb.String()
}
