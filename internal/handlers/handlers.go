// Package handlers exposes the campaign workflow over HTTP.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sailnathona/ImpactHub/internal/content"
	"github.com/sailnathona/ImpactHub/internal/delivery"
	"github.com/sailnathona/ImpactHub/internal/esign"
	"github.com/sailnathona/ImpactHub/internal/settings"
	"github.com/sailnathona/ImpactHub/internal/social"
	"github.com/sailnathona/ImpactHub/internal/store"
	"github.com/sailnathona/ImpactHub/internal/workflow"
	"github.com/sailnathona/ImpactHub/pkg/logging"
)

type API struct {
	workflow   *workflow.Service
	content    *content.Orchestrator
	delivery   *delivery.Engine
	poster     *social.Poster
	settings   *settings.Service
	esign      *esign.Client // nil when the integration is not configured
	uploadsDir string
	logger     logging.Logger
	metrics    *CampaignMetrics
}

func NewAPI(
	wf *workflow.Service,
	orchestrator *content.Orchestrator,
	engine *delivery.Engine,
	poster *social.Poster,
	settingsSvc *settings.Service,
	esignClient *esign.Client,
	uploadsDir string,
	logger logging.Logger,
	metrics *CampaignMetrics,
) *API {
	return &API{
		workflow:   wf,
		content:    orchestrator,
		delivery:   engine,
		poster:     poster,
		settings:   settingsSvc,
		esign:      esignClient,
		uploadsDir: uploadsDir,
		logger:     logger,
		metrics:    metrics,
	}
}

func (a *API) Register(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.POST("/campaigns", a.CreateCampaign)
		api.GET("/campaigns", a.ListCampaigns)
		api.GET("/campaigns/:id", a.GetCampaign)
		api.DELETE("/campaigns/:id", a.DeleteCampaign)
		api.POST("/campaigns/:id/answers", a.SubmitAnswers)
		api.POST("/campaigns/:id/materials", a.UploadMaterials)
		api.POST("/campaigns/:id/content/:channel", a.RegenerateContent)
		api.POST("/campaigns/:id/recipients", a.SetRecipients)
		api.GET("/campaigns/:id/links", a.TrackingLinks)
		api.POST("/campaigns/:id/send", a.SendNewsletter)
		api.POST("/campaigns/:id/send-snippet", a.SendSnippet)
		api.POST("/campaigns/:id/social", a.PostSocial)

		api.GET("/analytics", a.Analytics)

		api.POST("/ai/suggest", a.SuggestField)
		api.POST("/ai/fill", a.FillRound1)
		api.POST("/ai/fill-round2", a.FillRound2)

		api.GET("/settings/email", a.GetEmailSettings)
		api.PUT("/settings/email", a.UpdateEmailSettings)
		api.GET("/settings/social", a.ListSocialCredentials)
		api.POST("/settings/social", a.AddSocialCredential)
		api.DELETE("/settings/social/:id", a.DeleteSocialCredential)

		api.POST("/esign/token", a.ESignToken)
	}

	r.GET("/track/open/:id/*recipient", a.TrackOpen)
	r.GET("/track/click/:id/*recipient", a.TrackClick)
}

// respondError maps domain errors onto HTTP statuses: unknown records are
// 404, out-of-order or unconfigured operations are 409, everything else
// is a 500.
func (a *API) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Not found"})
	case errors.Is(err, workflow.ErrStageOrder), errors.Is(err, settings.ErrInvalidTransport):
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": err.Error()})
	default:
		a.logger.WithError(err).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal error"})
	}
}
