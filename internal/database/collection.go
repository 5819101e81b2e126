package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Collection keys. The names match the keys the web client keeps in
// browser storage so exported data stays interchangeable.
const (
	KeyProfile       = "agentPulseProfile"
	KeyLeads         = "agentPulseLeads"
	KeyTheme         = "agentPulseTheme"
	KeySentCount     = "agentPulse_sent_count"
	KeyOpportunities = "local_db_opportunities"
	KeyTalents       = "local_db_talents"
	KeyGoals         = "alpha_broker_goals"
)

// Read decodes the collection stored under key. It never fails: a missing
// key, an unreadable row or a corrupt payload all yield def. Corruption and
// store errors are logged.
func Read[T any](ctx context.Context, s Store, log *slog.Logger, key string, def T) T {
	if log == nil {
		log = slog.Default()
	}

	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		log.ErrorContext(ctx, "Collection unreadable, using default", "key", key, "error", err)
		return def
	}
	if !ok {
		return def
	}

	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		log.WarnContext(ctx, "Collection corrupt, using default", "key", key, "error", err)
		return def
	}
	return out
}

// Write encodes v as JSON and stores it under key.
func Write[T any](ctx context.Context, s Store, key string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode collection %q: %w", key, err)
	}
	return s.Put(ctx, key, string(data))
}
