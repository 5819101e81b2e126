package telegram

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/agentpulse/internal/domain"
)

// Notifier sends messages through the broker's own bot. Clients are created
// lazily per token and reused.
type Notifier struct {
	serverURL string
	log       *slog.Logger

	mu      sync.Mutex
	clients map[string]*bot.Bot
}

// NewNotifier creates a Notifier. serverURL overrides the Telegram API
// endpoint and is empty in production.
func NewNotifier(serverURL string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		serverURL: serverURL,
		log:       logger.With("component", "telegram_notifier"),
		clients:   make(map[string]*bot.Bot),
	}
}

// SendLeadAlert pushes a lead card to the broker's configured chat.
func (n *Notifier) SendLeadAlert(ctx context.Context, profile domain.UserProfile, lead domain.Lead) error {
	if profile.TelegramBotToken == "" || profile.TelegramChatID == "" {
		return fmt.Errorf("telegram alerts are not configured")
	}
	if err := n.send(ctx, profile.TelegramBotToken, profile.TelegramChatID, FormatLeadAlert(lead), models.ParseModeHTML); err != nil {
		return fmt.Errorf("failed to send lead alert: %w", err)
	}
	n.log.InfoContext(ctx, "Lead alert sent", "lead_id", lead.ID, "chat_id", profile.TelegramChatID)
	return nil
}

// TestConnection sends text once to verify token and chat id.
func (n *Notifier) TestConnection(ctx context.Context, token, chatID, text string) error {
	if err := n.send(ctx, token, chatID, text, ""); err != nil {
		return fmt.Errorf("telegram connection test failed: %w", err)
	}
	return nil
}

func (n *Notifier) send(ctx context.Context, token, chatID, text string, mode models.ParseMode) error {
	b, err := n.client(token)
	if err != nil {
		return err
	}
	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: mode,
	})
	return err
}

func (n *Notifier) client(token string) (*bot.Bot, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if b, ok := n.clients[token]; ok {
		return b, nil
	}

	opts := []bot.Option{bot.WithSkipGetMe()}
	if n.serverURL != "" {
		opts = append(opts, bot.WithServerURL(n.serverURL))
	}
	b, err := bot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram client: %w", err)
	}
	n.clients[token] = b
	return b, nil
}

// FormatLeadAlert renders a lead as an HTML Telegram card.
func FormatLeadAlert(lead domain.Lead) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🔥 <b>New lead: %s</b>\n", html.EscapeString(lead.Name))
	if lead.Location != "" {
		fmt.Fprintf(&sb, "📍 %s\n", html.EscapeString(lead.Location))
	}
	fmt.Fprintf(&sb, "🎯 Score: %d%%\n", lead.Score)
	kind := "Buyer"
	if lead.Type == domain.LeadTypeOwner {
		kind = "Owner"
	}
	fmt.Fprintf(&sb, "🏷️ Type: %s\n", kind)
	if lead.Need != "" {
		fmt.Fprintf(&sb, "\n%s\n", html.EscapeString(lead.Need))
	}
	if len(lead.Triggers) > 0 {
		fmt.Fprintf(&sb, "\n⚡ %s\n", html.EscapeString(strings.Join(lead.Triggers, ", ")))
	}
	if lead.FoundAt != "" {
		fmt.Fprintf(&sb, "🔗 %s\n", html.EscapeString(lead.FoundAt))
	}
	return strings.TrimRight(sb.String(), "\n")
}
