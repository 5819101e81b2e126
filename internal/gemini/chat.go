package gemini

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/edgard/agentpulse/internal/domain"
	"github.com/edgard/agentpulse/internal/retry"
)

// ChatSession is a stateful assistant conversation. History lives in the
// session only; nothing is persisted.
type ChatSession interface {
	// Send appends text as a user turn and returns the model's reply.
	// Fallback: the configured chat fallback message.
	Send(ctx context.Context, text string) (string, error)
	// History returns a copy of the turns exchanged so far.
	History() []domain.ChatMessage
}

type chatSession struct {
	client *sdkClient
	chat   *genai.Chat

	mu      sync.Mutex
	history []domain.ChatMessage
}

func (c *sdkClient) NewChatSession(ctx context.Context, profile domain.UserProfile) (ChatSession, error) {
	cfg := c.cloneConfig()
	persona := fmt.Sprintf(ChatPersona, profile.BrokerName, profile.AgencyName, profile.Language.LanguageName(), instructionsBlock(profile.CustomInstructions))
	cfg.SystemInstruction = genai.NewContentFromText(c.systemText+persona, genai.RoleUser)

	chat, err := c.genaiClient.Chats.Create(ctx, c.models.text, cfg, nil)
	if err != nil {
		c.log.ErrorContext(ctx, "Failed to create chat session", "error", err)
		return nil, fmt.Errorf("failed to create chat session: %w", err)
	}
	return &chatSession{client: c, chat: chat}, nil
}

// Send is serialized per session: the SDK chat history is not safe for concurrent turns.
func (s *chatSession) Send(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.client
	fallback := c.messages.ChatFallback
	text = strings.TrimSpace(text)
	if text == "" {
		return fallback, fmt.Errorf("chat message cannot be empty")
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := retry.Do(ctx, c.policy, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return s.chat.SendMessage(ctx, genai.Part{Text: text})
	})
	if err != nil {
		c.log.ErrorContext(ctx, "Chat turn failed", "error", err)
		return fallback, fmt.Errorf("chat: %w", err)
	}

	reply, err := responseText(resp)
	if err != nil {
		c.log.WarnContext(ctx, "Chat turn returned no text", "error", err)
		return fallback, err
	}
	reply = c.sanitizer.SanitizeText(reply)

	now := c.now().UTC()
	s.history = append(s.history,
		domain.ChatMessage{Role: domain.RoleUser, Text: text, Timestamp: now},
		domain.ChatMessage{Role: domain.RoleModel, Text: reply, Timestamp: now},
	)
	return reply, nil
}

func (s *chatSession) History() []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ChatMessage, len(s.history))
	copy(out, s.history)
	return out
}
