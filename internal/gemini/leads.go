package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/edgard/agentpulse/internal/domain"
	"github.com/edgard/agentpulse/internal/extract"
)

func emptySearchResult() LeadSearchResult {
	return LeadSearchResult{Leads: []domain.Lead{}, Sources: []domain.Source{}}
}

func (c *sdkClient) SearchLeads(ctx context.Context, q SearchQuery) (LeadSearchResult, error) {
	leadType, err := domain.ParseLeadType(string(q.Type))
	if err != nil {
		leadType = domain.LeadTypeBuyer
	}
	description := BuyerDescription
	if leadType == domain.LeadTypeOwner {
		description = OwnerDescription
	}

	prompt := fmt.Sprintf(LeadSearchPrompt, description, q.Niche, q.Location, q.Language.LanguageName(), instructionsBlock(q.CustomInstructions))
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	cfg := c.cloneConfig()
	cfg.Tools = []*genai.Tool{
		{GoogleSearch: &genai.GoogleSearch{}},
		{GoogleMaps: &genai.GoogleMaps{}},
	}
	if q.Coordinates != nil {
		lat, lng := q.Coordinates.Latitude, q.Coordinates.Longitude
		cfg.ToolConfig = &genai.ToolConfig{
			RetrievalConfig: &genai.RetrievalConfig{LatLng: &genai.LatLng{Latitude: &lat, Longitude: &lng}},
		}
	}

	c.log.DebugContext(ctx, "Searching leads", "niche", q.Niche, "location", q.Location, "type", leadType)
	resp, err := c.generate(ctx, "search_leads", c.models.search, contents, cfg)
	if err != nil {
		return emptySearchResult(), err
	}

	text, err := responseText(resp)
	if err != nil {
		c.log.WarnContext(ctx, "Lead search returned no text", "error", err)
		return emptySearchResult(), err
	}

	var payload leadPayload
	if err := extract.Into(text, &payload); err != nil {
		c.log.WarnContext(ctx, "Lead search response not parseable", "error", err, "response_preview", preview(text))
		return emptySearchResult(), fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	now := c.now().UTC()
	result := LeadSearchResult{
		Leads:   make([]domain.Lead, 0, len(payload.Leads)),
		Sources: groundingSources(resp),
	}
	for _, raw := range payload.Leads {
		name := strings.TrimSpace(raw.Name)
		if name == "" {
			continue
		}
		location := strings.TrimSpace(raw.Location)
		if location == "" {
			location = q.Location
		}
		lead := domain.Lead{
			ID:               domain.NewID(),
			Name:             name,
			Need:             strings.TrimSpace(raw.Need),
			Location:         location,
			Score:            domain.ClampScore(int(raw.Score)),
			Triggers:         []string(raw.Triggers),
			Contact:          strings.TrimSpace(raw.Contact),
			Email:            strings.TrimSpace(raw.Email),
			PublicProfileURL: strings.TrimSpace(raw.PublicProfileURL),
			FoundAt:          strings.TrimSpace(raw.FoundAt),
			Status:           domain.StatusNew,
			Type:             leadType,
			LastInteraction:  now,
		}
		if len(result.Sources) > 0 {
			lead.SourceURL = result.Sources[0].URI
		}
		if lead.PublicProfileURL != "" {
			lead.SourceURL = lead.PublicProfileURL
		}
		result.Leads = append(result.Leads, lead)
	}

	c.log.InfoContext(ctx, "Lead search completed", "leads", len(result.Leads), "sources", len(result.Sources))
	return result, nil
}

func preview(s string) string {
	const limit = 200
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
