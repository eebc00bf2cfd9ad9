package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sailnathona/ImpactHub/internal/delivery"
	"github.com/sailnathona/ImpactHub/internal/models"
)

// Analytics aggregates every campaign's engagement into summary rows.
func (a *API) Analytics(c *gin.Context) {
	campaigns, err := a.workflow.List(c.Request.Context())
	if err != nil {
		a.respondError(c, err)
		return
	}

	summaries := make([]models.CampaignSummary, 0, len(campaigns))
	for _, campaign := range campaigns {
		summaries = append(summaries, delivery.Summarize(campaign))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "campaigns": summaries})
}
