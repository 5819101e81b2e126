// Package domain holds the CRM entities shared by the generation client,
// the persistence layer and the state controller.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// LeadStatus is the pipeline stage of a lead.
type LeadStatus string

const (
	StatusNew        LeadStatus = "New"
	StatusContacted  LeadStatus = "Contacted"
	StatusScheduled  LeadStatus = "Scheduled"
	StatusDealClosed LeadStatus = "Deal Closed"
)

// LeadStatuses lists every pipeline stage in board order.
var LeadStatuses = []LeadStatus{StatusNew, StatusContacted, StatusScheduled, StatusDealClosed}

// LeadType tells whether the prospect wants to buy or is selling.
type LeadType string

const (
	LeadTypeBuyer LeadType = "buyer"
	LeadTypeOwner LeadType = "owner"
)

// ParseLeadStatus accepts the canonical names plus the Portuguese labels
// stored by older clients ("Novo", "Em Contato", "Agendado", "Negócio Fechado").
func ParseLeadStatus(s string) (LeadStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "new", "novo":
		return StatusNew, nil
	case "contacted", "em contato":
		return StatusContacted, nil
	case "scheduled", "agendado":
		return StatusScheduled, nil
	case "deal closed", "deal_closed", "closed", "negócio fechado", "negocio fechado":
		return StatusDealClosed, nil
	}
	return "", fmt.Errorf("unknown lead status %q", s)
}

// ParseLeadType accepts buyer/owner and their Portuguese equivalents.
func ParseLeadType(s string) (LeadType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buyer", "comprador":
		return LeadTypeBuyer, nil
	case "owner", "seller", "proprietario", "proprietário":
		return LeadTypeOwner, nil
	}
	return "", fmt.Errorf("unknown lead type %q", s)
}

// Lead is a prospective client discovered by search or entered by the broker.
type Lead struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Need             string     `json:"need"`
	Location         string     `json:"location"`
	Score            int        `json:"score"`
	Triggers         []string   `json:"triggers,omitempty"`
	Contact          string     `json:"contact,omitempty"`
	Email            string     `json:"email,omitempty"`
	PublicProfileURL string     `json:"publicProfileUrl,omitempty"`
	SourceURL        string     `json:"sourceUrl,omitempty"`
	FoundAt          string     `json:"foundAt,omitempty"`
	Status           LeadStatus `json:"status"`
	Type             LeadType   `json:"type"`
	LastInteraction  time.Time  `json:"lastInteraction"`
	// BrokerID names the team member working the lead; empty means the
	// account owner.
	BrokerID string `json:"brokerId,omitempty"`
}

// ClampScore bounds a relevance score to 0..100.
func ClampScore(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	}
	return score
}

// IsHot reports whether the lead scores at or above threshold.
func (l Lead) IsHot(threshold int) bool {
	return l.Score >= threshold
}

// Source is a web reference returned alongside grounded generations.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}
