package domain

import "slices"

// transitions is the status graph enforced by the controller. A closed deal
// is terminal; every other stage may move to any stage, including back to New.
var transitions = map[LeadStatus][]LeadStatus{
	StatusNew:        {StatusNew, StatusContacted, StatusScheduled, StatusDealClosed},
	StatusContacted:  {StatusNew, StatusContacted, StatusScheduled, StatusDealClosed},
	StatusScheduled:  {StatusNew, StatusContacted, StatusScheduled, StatusDealClosed},
	StatusDealClosed: {StatusDealClosed},
}

// CanTransition reports whether a lead in status from may move to status to.
// Re-applying the current status is allowed and only refreshes the interaction stamp.
func CanTransition(from, to LeadStatus) bool {
	if from == "" {
		from = StatusNew
	}
	next, ok := transitions[from]
	if !ok {
		return false
	}
	return slices.Contains(next, to)
}
