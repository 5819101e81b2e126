package crm

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/edgard/agentpulse/internal/database"
	"github.com/edgard/agentpulse/internal/domain"
)

const waBaseURL = "https://wa.me/"

// Outreach is a ready-to-open messaging link for a lead.
type Outreach struct {
	URL     string             `json:"url"`
	Phone   string             `json:"phone"`
	Lead    domain.Lead        `json:"lead"`
	Counter domain.SentCounter `json:"counter"`
	Safety  domain.SafetyLevel `json:"safety"`
}

// NormalizePhone keeps only digits and prefixes the default country code
// to national numbers.
func (c *Controller) NormalizePhone(raw string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, raw)
	digits = strings.TrimPrefix(digits, "00")
	if len(digits) == 10 || len(digits) == 11 {
		digits = c.opts.DefaultCountryCode + digits
	}
	if err := c.validate.Var(digits, "required,numeric,min=10,max=15"); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, raw)
	}
	return digits, nil
}

// SentToday returns today's outbound counter. A counter from an earlier day
// reads as zero.
func (c *Controller) SentToday(ctx context.Context) domain.SentCounter {
	today := c.today()
	counter := database.Read(ctx, c.store, c.log, database.KeySentCount, domain.SentCounter{Date: today})
	if counter.Date != today {
		return domain.SentCounter{Date: today}
	}
	return counter
}

// RecordSend increments today's outbound counter.
func (c *Controller) RecordSend(ctx context.Context) (domain.SentCounter, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recordSendLocked(ctx)
}

func (c *Controller) recordSendLocked(ctx context.Context) (domain.SentCounter, error) {
	counter := c.SentToday(ctx)
	counter.Count++
	if err := database.Write(ctx, c.store, database.KeySentCount, counter); err != nil {
		return domain.SentCounter{}, err
	}
	return counter, nil
}

// PrepareOutreach builds the messaging link for a lead, counts the send and
// moves a New lead to Contacted. phone overrides the lead's own contact.
func (c *Controller) PrepareOutreach(ctx context.Context, leadID, phone, text string) (Outreach, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Outreach{}, fmt.Errorf("%w: message text is empty", ErrInvalidInput)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexLocked(leadID)
	if i < 0 {
		return Outreach{}, fmt.Errorf("%w: %s", ErrLeadNotFound, leadID)
	}
	lead := cloneLead(c.leads[i])
	if phone == "" {
		phone = lead.Contact
	}
	normalized, err := c.NormalizePhone(phone)
	if err != nil {
		return Outreach{}, err
	}

	if limit := c.opts.DailySendLimit; limit > 0 && c.SentToday(ctx).Count >= limit {
		return Outreach{}, fmt.Errorf("%w: %d messages today", ErrDailyLimitReached, limit)
	}

	if lead.Status == "" || lead.Status == domain.StatusNew {
		if lead, err = c.setStatusLocked(ctx, leadID, domain.StatusContacted); err != nil {
			return Outreach{}, err
		}
	}
	// Counted last: a failed status write must not consume the daily quota.
	counter, err := c.recordSendLocked(ctx)
	if err != nil {
		return Outreach{}, err
	}

	return Outreach{
		URL:     WhatsAppURL(normalized, text),
		Phone:   normalized,
		Lead:    lead,
		Counter: counter,
		Safety:  domain.RateSafety(counter.Count, c.opts.SafeBelow, c.opts.AttentionBelow),
	}, nil
}

// WhatsAppURL builds a wa.me link with text percent-encoded the way
// browsers encode URI components: spaces become %20, not '+'.
func WhatsAppURL(phone, text string) string {
	return waBaseURL + phone + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}

func (c *Controller) today() string {
	return c.opts.Now().In(c.opts.Location).Format("2006-01-02")
}
