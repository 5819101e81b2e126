package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/edgard/agentpulse/internal/domain"
	"github.com/edgard/agentpulse/internal/extract"
)

const maxScripts = 3

var scriptListSchema = &genai.Schema{
	Type:        genai.TypeArray,
	Description: "Alternative WhatsApp messages for the lead.",
	Items:       &genai.Schema{Type: genai.TypeString},
}

var emailSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"subject": {Type: genai.TypeString, Description: "Email subject line."},
		"body":    {Type: genai.TypeString, Description: "Plain text email body."},
	},
	Required: []string{"subject", "body"},
}

func (c *sdkClient) GenerateScripts(ctx context.Context, lead domain.Lead, profile domain.UserProfile) ([]string, error) {
	fallback := []string{c.messages.ScriptFallback}

	triggers := "none recorded"
	if len(lead.Triggers) > 0 {
		triggers = strings.Join(lead.Triggers, "; ")
	}
	agency := profile.AgencyName
	if agency == "" {
		agency = "an independent agency"
	}
	prompt := fmt.Sprintf(ScriptPrompt,
		profile.BrokerName, agency, lead.Name, lead.Need, lead.Location, triggers,
		profile.Language.LanguageName(), instructionsBlock(profile.CustomInstructions))

	cfg := c.cloneConfig()
	cfg.ResponseMIMEType = "application/json"
	cfg.ResponseSchema = scriptListSchema

	resp, err := c.generate(ctx, "generate_scripts", c.models.text, []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}, cfg)
	if err != nil {
		return fallback, err
	}
	text, err := responseText(resp)
	if err != nil {
		c.log.WarnContext(ctx, "Script generation returned no text", "lead_id", lead.ID, "error", err)
		return fallback, err
	}

	var raw []string
	if err := extract.Into(text, &raw); err != nil {
		// A plain message is still a usable script.
		if _, isJSON := extract.Span(text); !isJSON {
			if s := c.sanitizer.Script(text); s != "" {
				return []string{s}, nil
			}
		}
		c.log.WarnContext(ctx, "Script response not parseable", "lead_id", lead.ID, "error", err, "response_preview", preview(text))
		return fallback, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	scripts := make([]string, 0, maxScripts)
	for _, s := range raw {
		if s = c.sanitizer.Script(s); s != "" {
			scripts = append(scripts, s)
		}
		if len(scripts) == maxScripts {
			break
		}
	}
	if len(scripts) == 0 {
		return fallback, ErrEmptyResponse
	}
	return scripts, nil
}

func (c *sdkClient) GenerateMarketReport(ctx context.Context, req MarketReportRequest) (MarketReport, error) {
	details := strings.TrimSpace(req.Details)
	if details == "" {
		details = "not informed"
	}
	prompt := fmt.Sprintf(MarketReportPrompt, req.Address, details, req.Language.LanguageName())

	cfg := c.cloneConfig()
	cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}

	resp, err := c.generate(ctx, "market_report", c.models.search, []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}, cfg)
	if err != nil {
		return MarketReport{Text: c.messages.ReportError, Sources: []domain.Source{}}, err
	}

	sources := groundingSources(resp)
	text, err := responseText(resp)
	if err != nil {
		c.log.WarnContext(ctx, "Market report returned no text", "address", req.Address, "error", err)
		return MarketReport{Text: c.messages.ReportFallback, Sources: sources}, err
	}
	return MarketReport{Text: c.sanitizer.SanitizeText(text), Sources: sources}, nil
}

func (c *sdkClient) GenerateEmail(ctx context.Context, req EmailRequest) (domain.EmailDraft, error) {
	agency := req.Profile.AgencyName
	if agency == "" {
		agency = "AgentPulse"
	}
	lang := req.Language
	if lang == "" {
		lang = req.Profile.Language
	}
	prompt := fmt.Sprintf(EmailPrompt, req.Goal, req.Topic, req.Profile.BrokerName, agency, lang.LanguageName())

	cfg := c.cloneConfig()
	cfg.ResponseMIMEType = "application/json"
	cfg.ResponseSchema = emailSchema

	resp, err := c.generate(ctx, "generate_email", c.models.text, []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}, cfg)
	if err != nil {
		return domain.EmailDraft{}, err
	}
	text, err := responseText(resp)
	if err != nil {
		return domain.EmailDraft{}, err
	}

	var draft domain.EmailDraft
	if err := extract.Into(text, &draft); err != nil {
		c.log.WarnContext(ctx, "Email response not parseable", "error", err, "response_preview", preview(text))
		return domain.EmailDraft{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	draft.Subject = strings.TrimSpace(draft.Subject)
	draft.Body = strings.TrimSpace(draft.Body)
	return draft, nil
}
