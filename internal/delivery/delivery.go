// Package delivery sends campaign email to recipients and records
// engagement. Tracking works by appending a pixel and a wrapped link to
// each message body; the tracking endpoints flip per-recipient flags
// through the store.
package delivery

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/sailnathona/ImpactHub/internal/models"
	"github.com/sailnathona/ImpactHub/internal/settings"
	"github.com/sailnathona/ImpactHub/pkg/email"
	"github.com/sailnathona/ImpactHub/pkg/logging"
)

// Mailer sends one message. *email.Sender satisfies it; tests stub it.
type Mailer interface {
	SendMail(ctx context.Context, to, subject, textBody string) error
}

// EngagementStore is the tracking persistence surface.
type EngagementStore interface {
	SetEngagementFlag(ctx context.Context, id, recipient, flag string) error
}

// SendResult is the per-recipient outcome of a batch send. A failed
// recipient does not abort the rest of the batch.
type SendResult struct {
	Recipient string `json:"recipient"`
	Sent      bool   `json:"sent"`
	Error     string `json:"error,omitempty"`
}

type Engine struct {
	transport *settings.Transport
	store     EngagementStore
	baseURL   string
	logger    logging.Logger

	// newMailer builds a sender from the current transport; swapped in
	// tests to avoid real SMTP connections.
	newMailer func(cfg email.Config) Mailer
}

func NewEngine(transport *settings.Transport, store EngagementStore, baseURL string, logger logging.Logger) *Engine {
	return &Engine{
		transport: transport,
		store:     store,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
		newMailer: func(cfg email.Config) Mailer { return email.NewSender(cfg) },
	}
}

// SetMailerFactory replaces how senders are built from the active
// transport. Tests use it to avoid real SMTP connections.
func (e *Engine) SetMailerFactory(f func(cfg email.Config) Mailer) {
	e.newMailer = f
}

// OpenPixelURL is the tracking-pixel target for one recipient.
func (e *Engine) OpenPixelURL(campaignID, recipient string) string {
	return fmt.Sprintf("%s/track/open/%s/%s", e.baseURL, campaignID, url.PathEscape(recipient))
}

// ClickURL is the wrapped-link target for one recipient.
func (e *Engine) ClickURL(campaignID, recipient string) string {
	return fmt.Sprintf("%s/track/click/%s/%s", e.baseURL, campaignID, url.PathEscape(recipient))
}

// decorate appends the tracking pixel reference and wrapped link to the
// message body for one recipient.
func (e *Engine) decorate(body, campaignID, recipient string) string {
	return fmt.Sprintf("%s\n\nView online: %s\nOpen receipt: %s\n",
		body, e.ClickURL(campaignID, recipient), e.OpenPixelURL(campaignID, recipient))
}

// SendBatch delivers one message per recipient with per-recipient
// tracking decoration, collecting an outcome for each rather than failing
// the batch on the first error.
func (e *Engine) SendBatch(ctx context.Context, c *models.Campaign, subject, body string) []SendResult {
	mailer := e.newMailer(e.transport.SenderConfig())
	results := make([]SendResult, 0, len(c.Recipients))

	for _, recipient := range c.Recipients {
		result := SendResult{Recipient: recipient}
		err := mailer.SendMail(ctx, recipient, subject, e.decorate(body, c.ID, recipient))
		if err != nil {
			result.Error = err.Error()
			e.logger.WithError(err).
				WithField("campaign_id", c.ID).
				WithField("recipient", recipient).
				Warn("Campaign send failed for recipient")
		} else {
			result.Sent = true
		}
		results = append(results, result)
	}
	return results
}

// SentCount reports how many results in a batch succeeded.
func SentCount(results []SendResult) int {
	n := 0
	for _, r := range results {
		if r.Sent {
			n++
		}
	}
	return n
}

func (e *Engine) RecordOpen(ctx context.Context, campaignID, recipient string) error {
	return e.store.SetEngagementFlag(ctx, campaignID, recipient, "opened")
}

func (e *Engine) RecordClick(ctx context.Context, campaignID, recipient string) error {
	return e.store.SetEngagementFlag(ctx, campaignID, recipient, "clicked")
}

// Summarize aggregates a campaign's engagement map into analytics counts.
func Summarize(c *models.Campaign) models.CampaignSummary {
	summary := models.CampaignSummary{
		ID:              c.ID,
		Name:            c.Name,
		TotalRecipients: len(c.Recipients),
		ProgressPct:     c.ProgressPct,
	}
	for _, eng := range c.Engagement {
		if eng.Opened {
			summary.OpenedCount++
		}
		if eng.Clicked {
			summary.ClickedCount++
		}
	}
	return summary
}

// SplitRecipients parses a free-form recipient field, accepting commas
// and newlines as separators and dropping empties.
func SplitRecipients(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})
	recipients := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			recipients = append(recipients, f)
		}
	}
	return recipients
}
