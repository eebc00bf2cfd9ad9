package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SuggestField serves tiered suggestions for one form field while the
// user is typing. Provider trouble degrades to an empty list, never an
// error.
func (a *API) SuggestField(c *gin.Context) {
	var req struct {
		Goal      string            `json:"campaign_goal"`
		FieldName string            `json:"field_name"`
		Partial   map[string]string `json:"partial"`
		Typed     string            `json:"typed"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
		return
	}
	if req.FieldName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "field_name is required"})
		return
	}

	suggestions, degraded := a.content.SuggestFields(c.Request.Context(), req.Goal, req.FieldName, req.Partial, req.Typed)
	c.JSON(http.StatusOK, gin.H{"success": true, "suggestions": suggestions, "degraded": degraded})
}

// FillRound1 drafts all round-1 fields at once, preserving whatever the
// user already typed.
func (a *API) FillRound1(c *gin.Context) {
	var req struct {
		Values map[string]string `json:"values"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
		return
	}

	filled, degraded := a.content.FillRound1(c.Request.Context(), req.Values)
	c.JSON(http.StatusOK, gin.H{"success": true, "values": filled, "degraded": degraded})
}

// FillRound2 drafts answers for a campaign's issued questions.
func (a *API) FillRound2(c *gin.Context) {
	var req struct {
		CampaignID string `json:"campaign_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.CampaignID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "campaign_id is required"})
		return
	}

	campaign, err := a.workflow.Get(c.Request.Context(), req.CampaignID)
	if err != nil {
		a.respondError(c, err)
		return
	}

	answers, degraded := a.content.FillRound2(c.Request.Context(), campaign.Round1, campaign.Round2Questions)
	c.JSON(http.StatusOK, gin.H{"success": true, "answers": answers, "degraded": degraded})
}
