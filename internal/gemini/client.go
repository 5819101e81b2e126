// Package gemini is the remote generation client. Every intent wraps the
// Gemini API with rate limiting, bounded retries and a deterministic
// fallback, so callers always get a usable value back.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/edgard/agentpulse/internal/config"
	"github.com/edgard/agentpulse/internal/domain"
	"github.com/edgard/agentpulse/internal/retry"
	"github.com/edgard/agentpulse/internal/sanitize"
)

var (
	// ErrEmptyResponse means the model returned no usable text.
	ErrEmptyResponse = errors.New("empty response from model")
	// ErrBlocked means the prompt or the answer was blocked by safety filters.
	ErrBlocked = errors.New("response blocked by model")
	// ErrMalformedResponse means the expected JSON could not be recovered.
	ErrMalformedResponse = errors.New("malformed structured response")
)

// Client is the generation surface used by the controller, the bot and the API.
// Each method returns a usable fallback value together with any error, so a
// failure never leaves the caller without something to show.
type Client interface {
	// SearchLeads runs a grounded search. Fallback: no leads, no sources.
	SearchLeads(ctx context.Context, q SearchQuery) (LeadSearchResult, error)

	// GenerateScripts writes up to three outreach messages for lead.
	// Fallback: a single generic message.
	GenerateScripts(ctx context.Context, lead domain.Lead, profile domain.UserProfile) ([]string, error)

	// GenerateMarketReport writes a grounded market brief. Fallback: a labeled
	// unavailable or error text.
	GenerateMarketReport(ctx context.Context, req MarketReportRequest) (MarketReport, error)

	// GenerateEmail drafts a marketing email. Fallback: empty draft.
	GenerateEmail(ctx context.Context, req EmailRequest) (domain.EmailDraft, error)

	// NewChatSession opens a multi-turn assistant conversation.
	NewChatSession(ctx context.Context, profile domain.UserProfile) (ChatSession, error)

	// SynthesizeSpeech turns text into audio. Quota exhaustion yields no audio
	// and no error.
	SynthesizeSpeech(ctx context.Context, text string) (*Speech, error)
}

// Options tunes a client beyond what config carries.
type Options struct {
	// HTTPClient overrides the transport used by the SDK.
	HTTPClient *http.Client
	// Now overrides the clock used to stamp generated leads.
	Now func() time.Time
}

type sdkClient struct {
	genaiClient *genai.Client
	log         *slog.Logger
	baseConfig  *genai.GenerateContentConfig
	models      modelNames
	speechVoice string
	systemText  string
	messages    config.MessagesConfig
	policy      retry.Policy
	limiter     *rate.Limiter
	timeout     time.Duration
	sanitizer   *sanitize.Policy
	now         func() time.Time
}

type modelNames struct {
	text   string
	search string
	speech string
}

// NewClient creates a Gemini client from configuration.
func NewClient(ctx context.Context, cfg config.GeminiConfig, msgs config.MessagesConfig, log *slog.Logger, opts ...Options) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if log == nil {
		log = slog.Default()
	}
	var opt Options
	if len(opts) > 0 {
		opt = opts[0]
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opt.HTTPClient,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	gi, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	temperature := cfg.Temperature
	baseCfg := &genai.GenerateContentConfig{
		Temperature: &temperature,
		SafetySettings: []*genai.SafetySetting{
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
			{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
			{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
			{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
		},
	}
	if cfg.SystemInstruction != "" {
		baseCfg.SystemInstruction = genai.NewContentFromText(cfg.SystemInstruction, genai.RoleUser)
	}

	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}

	now := opt.Now
	if now == nil {
		now = time.Now
	}

	logger := log.With("component", "gemini_client")
	c := &sdkClient{
		genaiClient: gi,
		log:         logger,
		baseConfig:  baseCfg,
		models: modelNames{
			text:   cfg.ModelName,
			search: cfg.SearchModelName,
			speech: cfg.SpeechModelName,
		},
		speechVoice: cfg.SpeechVoice,
		systemText:  cfg.SystemInstruction,
		messages:    msgs,
		policy: retry.Policy{
			MaxRetries:  cfg.MaxRetries,
			BaseDelay:   cfg.RetryBaseDelay,
			IsTransient: IsTransient,
			Logger:      logger,
		},
		limiter:   rate.NewLimiter(limit, max(1, cfg.RequestsPerMinute/10)),
		timeout:   cfg.RequestTimeout,
		sanitizer: sanitize.NewPlainTextPolicy(),
		now:       now,
	}

	logger.Info("Gemini client initialized", "model", cfg.ModelName, "search_model", cfg.SearchModelName, "max_retries", cfg.MaxRetries)
	return c, nil
}

// IsTransient extends the generic quota classifier with the API status codes
// that indicate an overloaded backend.
func IsTransient(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable:
			return true
		}
	}
	return retry.IsTransient(err)
}

// IsQuotaError reports whether err is a rate-limit or quota rejection.
func IsQuotaError(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return true
	}
	return retry.IsTransient(err)
}

// cloneConfig returns a shallow copy of the base config that callers may modify.
func (c *sdkClient) cloneConfig() *genai.GenerateContentConfig {
	cp := *c.baseConfig
	return &cp
}

// generate performs one logical call: rate limited, retried, bounded by the request timeout.
func (c *sdkClient) generate(ctx context.Context, op, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := retry.Do(ctx, c.policy, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return c.genaiClient.Models.GenerateContent(ctx, model, contents, cfg)
	})
	if err != nil {
		c.log.ErrorContext(ctx, "Gemini call failed", "operation", op, "model", model, "duration", time.Since(start), "error", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.log.DebugContext(ctx, "Gemini call completed", "operation", op, "model", model, "duration", time.Since(start))
	return resp, nil
}

// responseText returns the text of the first candidate or explains why there is none.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ErrEmptyResponse
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" && fb.BlockReason != genai.BlockedReasonUnspecified {
		return "", fmt.Errorf("%w: %s %s", ErrBlocked, fb.BlockReason, fb.BlockReasonMessage)
	}
	if len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		if reason := resp.Candidates[0].FinishReason; reason == genai.FinishReasonSafety || reason == genai.FinishReasonProhibitedContent {
			return "", fmt.Errorf("%w: finish reason %s", ErrBlocked, reason)
		}
		return "", ErrEmptyResponse
	}
	return text, nil
}

// groundingSources collects distinct web sources cited by the first candidate.
func groundingSources(resp *genai.GenerateContentResponse) []domain.Source {
	sources := []domain.Source{}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return sources
	}
	seen := make(map[string]bool)
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil {
			continue
		}
		var title, uri string
		switch {
		case chunk.Web != nil:
			title, uri = chunk.Web.Title, chunk.Web.URI
		case chunk.Maps != nil:
			title, uri = chunk.Maps.Title, chunk.Maps.URI
		}
		if uri == "" || seen[uri] {
			continue
		}
		seen[uri] = true
		if title == "" {
			title = uri
		}
		sources = append(sources, domain.Source{Title: title, URI: uri})
	}
	return sources
}

func instructionsBlock(custom string) string {
	custom = strings.TrimSpace(custom)
	if custom == "" {
		return ""
	}
	return "Broker's extra instructions: " + custom + "\n"
}
