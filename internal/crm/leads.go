package crm

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/edgard/agentpulse/internal/database"
	"github.com/edgard/agentpulse/internal/domain"
)

// Leads returns a copy of the lead list, newest first.
func (c *Controller) Leads() []domain.Lead {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneLeads(c.leads)
}

// Lead looks a lead up by id.
func (c *Controller) Lead(id string) (domain.Lead, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := c.indexLocked(id)
	if i < 0 {
		return domain.Lead{}, fmt.Errorf("%w: %s", ErrLeadNotFound, id)
	}
	return cloneLead(c.leads[i]), nil
}

// AddLeads normalizes incoming leads and prepends the ones whose id is not
// already known. It returns only the leads that were added.
func (c *Controller) AddLeads(ctx context.Context, incoming []domain.Lead) ([]domain.Lead, error) {
	if len(incoming) == 0 {
		return nil, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]bool, len(c.leads)+len(incoming))
	for _, l := range c.leads {
		seen[l.ID] = true
	}

	now := c.now()
	added := make([]domain.Lead, 0, len(incoming))
	for _, l := range incoming {
		l = cloneLead(l)
		l.Name = strings.TrimSpace(l.Name)
		if l.Name == "" {
			continue
		}
		if l.ID == "" {
			l.ID = domain.NewID()
		}
		if seen[l.ID] {
			continue
		}
		seen[l.ID] = true
		if l.Status == "" {
			l.Status = domain.StatusNew
		}
		if l.Type == "" {
			l.Type = domain.LeadTypeBuyer
		}
		l.Score = domain.ClampScore(l.Score)
		if l.LastInteraction.IsZero() || l.LastInteraction.After(now) {
			l.LastInteraction = now
		}
		added = append(added, l)
	}
	if len(added) == 0 {
		return nil, nil
	}

	next := make([]domain.Lead, 0, len(added)+len(c.leads))
	next = append(next, added...)
	next = append(next, c.leads...)
	if err := c.saveLeadsLocked(ctx, next); err != nil {
		return nil, err
	}
	c.log.InfoContext(ctx, "Leads added", "added", len(added), "total", len(next))
	return cloneLeads(added), nil
}

// IngestSearch adds search results and alerts the broker about each new
// lead when Telegram alerts are configured. Alert failures are logged only.
func (c *Controller) IngestSearch(ctx context.Context, found []domain.Lead) ([]domain.Lead, error) {
	added, err := c.AddLeads(ctx, found)
	if err != nil || len(added) == 0 {
		return added, err
	}

	profile := c.Profile()
	if c.notifier == nil || !profile.AlertsConfigured() {
		return added, nil
	}
	for _, l := range added {
		if err := c.notifier.SendLeadAlert(ctx, profile, l); err != nil {
			c.log.WarnContext(ctx, "Lead alert failed", "lead_id", l.ID, "error", err)
		}
	}
	return added, nil
}

// UpdateLeadStatus moves a lead along the pipeline and stamps the
// interaction time.
func (c *Controller) UpdateLeadStatus(ctx context.Context, id string, status domain.LeadStatus) (domain.Lead, error) {
	if !slices.Contains(domain.LeadStatuses, status) {
		return domain.Lead{}, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, status)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setStatusLocked(ctx, id, status)
}

func (c *Controller) setStatusLocked(ctx context.Context, id string, status domain.LeadStatus) (domain.Lead, error) {
	i := c.indexLocked(id)
	if i < 0 {
		return domain.Lead{}, fmt.Errorf("%w: %s", ErrLeadNotFound, id)
	}
	current := c.leads[i]
	if !domain.CanTransition(current.Status, status) {
		return domain.Lead{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, status)
	}

	updated := cloneLead(current)
	updated.Status = status
	updated.LastInteraction = c.now()

	next := slices.Clone(c.leads)
	next[i] = updated
	if err := c.saveLeadsLocked(ctx, next); err != nil {
		return domain.Lead{}, err
	}
	c.log.InfoContext(ctx, "Lead status updated", "lead_id", id, "from", current.Status, "to", status)
	return cloneLead(updated), nil
}

func (c *Controller) indexLocked(id string) int {
	return slices.IndexFunc(c.leads, func(l domain.Lead) bool { return l.ID == id })
}

// saveLeadsLocked persists next and, on success, makes it current. c.mu must be held.
func (c *Controller) saveLeadsLocked(ctx context.Context, next []domain.Lead) error {
	if err := database.Write(ctx, c.store, database.KeyLeads, next); err != nil {
		c.log.ErrorContext(ctx, "Failed to persist leads", "error", err)
		return err
	}
	c.leads = next
	return nil
}

func cloneLead(l domain.Lead) domain.Lead {
	l.Triggers = slices.Clone(l.Triggers)
	return l
}

func cloneLeads(in []domain.Lead) []domain.Lead {
	out := make([]domain.Lead, len(in))
	for i, l := range in {
		out[i] = cloneLead(l)
	}
	return out
}
