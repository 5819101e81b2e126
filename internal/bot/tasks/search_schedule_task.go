package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/edgard/agentpulse/internal/domain"
	"github.com/edgard/agentpulse/internal/gemini"
)

// ErrSubscriptionExpired is returned when a scheduled search fires after
// the trial ended.
var ErrSubscriptionExpired = errors.New("subscription expired")

// SearchRunner executes one recurring search.
type SearchRunner func(ctx context.Context, schedule domain.SearchSchedule) error

// NewSearchRunner runs a schedule's query and ingests the results, which
// alerts the broker about new leads.
func NewSearchRunner(deps TaskDeps) SearchRunner {
	log := deps.Logger.With("task", "search_schedule")

	return func(ctx context.Context, s domain.SearchSchedule) error {
		if sub := deps.Controller.Subscription(); sub.Expired {
			log.WarnContext(ctx, "Skipping scheduled search, subscription expired", "schedule_id", s.ID)
			return ErrSubscriptionExpired
		}

		profile := deps.Controller.Profile()
		result, err := deps.GeminiClient.SearchLeads(ctx, gemini.SearchQuery{
			Niche:              s.Niche,
			Location:           s.Location,
			Type:               s.Type,
			Language:           profile.Language,
			CustomInstructions: profile.CustomInstructions,
		})
		if err != nil {
			return fmt.Errorf("scheduled search %s failed: %w", s.ID, err)
		}

		added, err := deps.Controller.IngestSearch(ctx, result.Leads)
		if err != nil {
			return fmt.Errorf("failed to store leads from schedule %s: %w", s.ID, err)
		}
		log.InfoContext(ctx, "Scheduled search completed", "schedule_id", s.ID, "found", len(result.Leads), "added", len(added))
		return nil
	}
}
