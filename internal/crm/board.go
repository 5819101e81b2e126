package crm

import (
	"context"
	"fmt"
	"strings"

	"github.com/edgard/agentpulse/internal/database"
	"github.com/edgard/agentpulse/internal/domain"
)

// Opportunities lists the job board, newest first.
func (c *Controller) Opportunities(ctx context.Context) []domain.JobOpportunity {
	return database.Read(ctx, c.store, c.log, database.KeyOpportunities, []domain.JobOpportunity{})
}

// PostOpportunity publishes a listing on the job board.
func (c *Controller) PostOpportunity(ctx context.Context, o domain.JobOpportunity) (domain.JobOpportunity, error) {
	o.Title = strings.TrimSpace(o.Title)
	o.Contact = strings.TrimSpace(o.Contact)
	if err := o.Validate(); err != nil {
		return domain.JobOpportunity{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	o.ID = domain.NewID()
	o.PostedAt = c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	list := database.Read(ctx, c.store, c.log, database.KeyOpportunities, []domain.JobOpportunity{})
	list = append([]domain.JobOpportunity{o}, list...)
	if err := database.Write(ctx, c.store, database.KeyOpportunities, list); err != nil {
		return domain.JobOpportunity{}, err
	}
	return o, nil
}

// Talents lists brokers advertising availability, newest first.
func (c *Controller) Talents(ctx context.Context) []domain.TalentProfile {
	return database.Read(ctx, c.store, c.log, database.KeyTalents, []domain.TalentProfile{})
}

// PostTalent publishes a talent profile.
func (c *Controller) PostTalent(ctx context.Context, t domain.TalentProfile) (domain.TalentProfile, error) {
	t.Name = strings.TrimSpace(t.Name)
	t.Contact = strings.TrimSpace(t.Contact)
	if err := t.Validate(); err != nil {
		return domain.TalentProfile{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	t.ID = domain.NewID()
	t.PostedAt = c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	list := database.Read(ctx, c.store, c.log, database.KeyTalents, []domain.TalentProfile{})
	list = append([]domain.TalentProfile{t}, list...)
	if err := database.Write(ctx, c.store, database.KeyTalents, list); err != nil {
		return domain.TalentProfile{}, err
	}
	return t, nil
}
