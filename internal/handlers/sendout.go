package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sailnathona/ImpactHub/internal/delivery"
	"github.com/sailnathona/ImpactHub/internal/models"
	"github.com/sailnathona/ImpactHub/internal/settings"
	"github.com/sailnathona/ImpactHub/internal/social"
	"github.com/sailnathona/ImpactHub/internal/workflow"
)

// checkTransport rejects sends while the mail transport is unusable, so
// a batch never half-starts against a dead relay.
func (a *API) checkTransport(c *gin.Context) bool {
	cfg := a.settings.Transport()
	if err := settings.Validate(&cfg); err != nil {
		a.metrics.IncSend("unconfigured")
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "Mail transport is not configured"})
		return false
	}
	return true
}

// sendBatch fans a body out to the campaign's recipients. A raw list in
// the request replaces the stored one but keeps tracking state for
// recipients that stay; an empty request reuses the stored list, so a
// re-send never clears recorded opens and clicks.
func (a *API) sendBatch(c *gin.Context, campaignID, rawRecipients, subject, body string) {
	recipients := delivery.SplitRecipients(rawRecipients)
	if !a.checkTransport(c) {
		return
	}

	campaign, err := a.workflow.PrepareDistribution(c.Request.Context(), campaignID, recipients)
	if err != nil {
		if errors.Is(err, workflow.ErrNoRecipients) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No recipients provided"})
			return
		}
		a.respondError(c, err)
		return
	}

	results := a.delivery.SendBatch(c.Request.Context(), campaign, subject, body)
	sent := delivery.SentCount(results)
	if sent == len(results) {
		a.metrics.IncSend("ok")
	} else if sent > 0 {
		a.metrics.IncSend("partial")
	} else {
		a.metrics.IncSend("failed")
	}

	a.logger.WithField("campaign_id", campaign.ID).
		WithField("sent", sent).
		WithField("total", len(results)).
		Info("Campaign batch sent")

	c.JSON(http.StatusOK, gin.H{
		"success": sent > 0,
		"sent":    sent,
		"total":   len(results),
		"results": results,
	})
}

// SendNewsletter distributes the combined email content. Recipients in
// the request are optional; without them the stored list is used.
func (a *API) SendNewsletter(c *gin.Context) {
	var req struct {
		Recipients string `json:"recipients"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
		return
	}

	campaign, err := a.workflow.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	if len(campaign.ContentEmail) == 0 {
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "No email content generated yet"})
		return
	}

	subject := fmt.Sprintf("Newsletter: %s", campaign.Name)
	body := strings.Join(campaign.ContentEmail, "\n\n")
	a.sendBatch(c, campaign.ID, req.Recipients, subject, body)
}

// SendSnippet distributes a single email snippet, addressed the same way
// as the full newsletter.
func (a *API) SendSnippet(c *gin.Context) {
	var req struct {
		Recipients string `json:"recipients"`
		Index      int    `json:"index"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
		return
	}

	campaign, err := a.workflow.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	if req.Index < 0 || req.Index >= len(campaign.ContentEmail) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Snippet index out of range"})
		return
	}

	subject := fmt.Sprintf("Newsletter Snippet: %s", campaign.Name)
	a.sendBatch(c, campaign.ID, req.Recipients, subject, campaign.ContentEmail[req.Index])
}

// PostSocial publishes one generated social message with a stored
// credential set.
func (a *API) PostSocial(c *gin.Context) {
	var req struct {
		CredentialID int `json:"credential_id"`
		Index        int `json:"index"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
		return
	}

	campaign, err := a.workflow.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	if campaign.Stage.Rank() < models.StageContentGenerated.Rank() {
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "No social content generated yet"})
		return
	}

	// Without an explicit credential_id the first stored set is used, the
	// same way a single-account install expects.
	var cred *models.SocialCredentialSet
	if req.CredentialID != 0 {
		cred, err = a.settings.GetSocialCredential(c.Request.Context(), req.CredentialID)
		if err != nil {
			a.respondError(c, err)
			return
		}
	} else {
		creds, err := a.settings.ListSocialCredentials(c.Request.Context())
		if err != nil {
			a.respondError(c, err)
			return
		}
		if len(creds) == 0 {
			c.JSON(http.StatusConflict, gin.H{"success": false, "error": "No social credentials configured. Add a credential set in Settings first."})
			return
		}
		cred = &creds[0]
	}

	if req.Index < 0 || req.Index >= len(campaign.ContentSocial) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Post index out of range"})
		return
	}

	results := a.poster.PostBatch(c.Request.Context(), cred, []string{campaign.ContentSocial[req.Index]})
	if social.PostedCount(results) == 1 {
		a.metrics.IncSocial("ok")
		c.JSON(http.StatusOK, gin.H{"success": true, "results": results})
		return
	}
	a.metrics.IncSocial("failed")
	c.JSON(http.StatusBadGateway, gin.H{"success": false, "results": results})
}
