package crm

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/edgard/agentpulse/internal/database"
	"github.com/edgard/agentpulse/internal/domain"
)

const maxGoal = 1000

// Goals returns the stored closed-deal targets keyed by broker.
func (c *Controller) Goals(ctx context.Context) map[string]int {
	goals := database.Read(ctx, c.store, c.log, database.KeyGoals, map[string]int{})
	if goals == nil {
		goals = map[string]int{}
	}
	return goals
}

// SetGoal stores the closed-deal target for broker. An empty broker sets
// the account owner's goal.
func (c *Controller) SetGoal(ctx context.Context, broker string, goal int) (domain.GoalProgress, error) {
	broker = strings.TrimSpace(broker)
	if broker == "" {
		broker = domain.SelfBroker
	}
	if goal < 1 || goal > maxGoal {
		return domain.GoalProgress{}, fmt.Errorf("%w: goal must be between 1 and %d", ErrInvalidInput, maxGoal)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	goals := database.Read(ctx, c.store, c.log, database.KeyGoals, map[string]int{})
	if goals == nil {
		goals = map[string]int{}
	}
	goals[broker] = goal
	if err := database.Write(ctx, c.store, database.KeyGoals, goals); err != nil {
		return domain.GoalProgress{}, err
	}
	c.log.InfoContext(ctx, "Broker goal set", "broker", broker, "goal", goal)
	return domain.NewGoalProgress(broker, closedDealsLocked(c.leads)[broker], goal), nil
}

// GoalProgress reports every broker that has a goal or a lead, sorted by id.
// Only leads in Deal Closed count.
func (c *Controller) GoalProgress(ctx context.Context) []domain.GoalProgress {
	goals := c.Goals(ctx)

	c.mu.RLock()
	closed := closedDealsLocked(c.leads)
	brokers := map[string]bool{domain.SelfBroker: true}
	for _, l := range c.leads {
		brokers[brokerOf(l)] = true
	}
	c.mu.RUnlock()
	for b := range goals {
		brokers[b] = true
	}

	out := make([]domain.GoalProgress, 0, len(brokers))
	for _, b := range slices.Sorted(maps.Keys(brokers)) {
		out = append(out, domain.NewGoalProgress(b, closed[b], goals[b]))
	}
	return out
}

func brokerOf(l domain.Lead) string {
	if l.BrokerID == "" {
		return domain.SelfBroker
	}
	return l.BrokerID
}

func closedDealsLocked(leads []domain.Lead) map[string]int {
	closed := make(map[string]int)
	for _, l := range leads {
		if l.Status == domain.StatusDealClosed {
			closed[brokerOf(l)]++
		}
	}
	return closed
}
