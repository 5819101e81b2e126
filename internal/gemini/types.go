package gemini

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/edgard/agentpulse/internal/domain"
)

// Coordinates bias grounded search toward a point.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SearchQuery describes one lead search.
type SearchQuery struct {
	Niche              string          `json:"niche"`
	Location           string          `json:"location"`
	Type               domain.LeadType `json:"type"`
	Coordinates        *Coordinates    `json:"coordinates,omitempty"`
	Language           domain.Language `json:"language,omitempty"`
	CustomInstructions string          `json:"customInstructions,omitempty"`
}

// LeadSearchResult is the outcome of SearchLeads.
type LeadSearchResult struct {
	Leads   []domain.Lead   `json:"leads"`
	Sources []domain.Source `json:"sources"`
}

// MarketReportRequest describes the property to analyze.
type MarketReportRequest struct {
	Address  string          `json:"address"`
	Details  string          `json:"details"`
	Language domain.Language `json:"language,omitempty"`
}

// MarketReport is a generated market brief with its citations.
type MarketReport struct {
	Text    string          `json:"text"`
	Sources []domain.Source `json:"sources"`
}

// EmailRequest describes a marketing email to draft.
type EmailRequest struct {
	Goal     string             `json:"goal"`
	Topic    string             `json:"topic"`
	Profile  domain.UserProfile `json:"-"`
	Language domain.Language    `json:"language,omitempty"`
}

// Speech is synthesized audio.
type Speech struct {
	Data     []byte `json:"-"`
	MIMEType string `json:"mimeType"`
}

// looseInt decodes numbers that models sometimes emit as strings or floats.
type looseInt int

func (n *looseInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	s = strings.TrimSuffix(s, "%")
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*n = looseInt(math.Round(f))
	return nil
}

// looseStrings decodes either a list of strings or a single string.
type looseStrings []string

func (l *looseStrings) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*l = list
		return nil
	}
	var single string
	if err := json.Unmarshal(b, &single); err != nil {
		return err
	}
	if single != "" {
		*l = []string{single}
	}
	return nil
}

// leadPayload is the JSON shape requested by LeadSearchPrompt.
type leadPayload struct {
	Leads []struct {
		Name             string       `json:"name"`
		Need             string       `json:"need"`
		Location         string       `json:"location"`
		FoundAt          string       `json:"foundAt"`
		Score            looseInt     `json:"score"`
		Triggers         looseStrings `json:"triggers"`
		Contact          string       `json:"contact"`
		Email            string       `json:"email"`
		PublicProfileURL string       `json:"publicProfileUrl"`
	} `json:"leads"`
}
