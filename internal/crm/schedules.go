package crm

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/edgard/agentpulse/internal/domain"
)

// Schedules returns the broker's recurring searches.
func (c *Controller) Schedules() []domain.SearchSchedule {
	return c.Profile().Schedules
}

// AddSchedule validates s, assigns an id and stores it in the profile.
func (c *Controller) AddSchedule(ctx context.Context, s domain.SearchSchedule) (domain.SearchSchedule, error) {
	s.Niche = strings.TrimSpace(s.Niche)
	s.Location = strings.TrimSpace(s.Location)
	if s.Type == "" {
		s.Type = domain.LeadTypeBuyer
	}
	if err := s.Validate(); err != nil {
		return domain.SearchSchedule{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	s.ID = domain.NewID()
	s.Days = slices.Clone(s.Days)

	err := c.mutateSchedules(ctx, func(list []domain.SearchSchedule) ([]domain.SearchSchedule, error) {
		return append(list, s), nil
	})
	if err != nil {
		return domain.SearchSchedule{}, err
	}
	c.log.InfoContext(ctx, "Search schedule added", "schedule_id", s.ID, "days", s.Days, "time", s.Time)
	c.notifySchedules(ctx)
	return s, nil
}

// SetScheduleActive pauses or resumes a schedule.
func (c *Controller) SetScheduleActive(ctx context.Context, id string, active bool) (domain.SearchSchedule, error) {
	var updated domain.SearchSchedule
	err := c.mutateSchedules(ctx, func(list []domain.SearchSchedule) ([]domain.SearchSchedule, error) {
		i := slices.IndexFunc(list, func(s domain.SearchSchedule) bool { return s.ID == id })
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrScheduleNotFound, id)
		}
		list[i].Active = active
		updated = list[i]
		return list, nil
	})
	if err != nil {
		return domain.SearchSchedule{}, err
	}
	c.notifySchedules(ctx)
	return updated, nil
}

// RemoveSchedule deletes a schedule by id.
func (c *Controller) RemoveSchedule(ctx context.Context, id string) error {
	err := c.mutateSchedules(ctx, func(list []domain.SearchSchedule) ([]domain.SearchSchedule, error) {
		i := slices.IndexFunc(list, func(s domain.SearchSchedule) bool { return s.ID == id })
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrScheduleNotFound, id)
		}
		return slices.Delete(list, i, i+1), nil
	})
	if err != nil {
		return err
	}
	c.log.InfoContext(ctx, "Search schedule removed", "schedule_id", id)
	c.notifySchedules(ctx)
	return nil
}

func (c *Controller) mutateSchedules(ctx context.Context, fn func([]domain.SearchSchedule) ([]domain.SearchSchedule, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := cloneProfile(c.profile)
	list, err := fn(next.Schedules)
	if err != nil {
		return err
	}
	next.Schedules = list
	return c.saveProfileLocked(ctx, next)
}
