package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sailnathona/ImpactHub/internal/delivery"
	"github.com/sailnathona/ImpactHub/internal/models"
	"github.com/sailnathona/ImpactHub/internal/workflow"
)

func (a *API) CreateCampaign(c *gin.Context) {
	var req workflow.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.metrics.IncOp("create", "bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
		return
	}

	campaign, degraded, err := a.workflow.Create(c.Request.Context(), req)
	if err != nil {
		if strings.Contains(err.Error(), "required") {
			a.metrics.IncOp("create", "validation_failed")
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		a.metrics.IncOp("create", "error")
		a.respondError(c, err)
		return
	}

	a.metrics.IncOp("create", "ok")
	c.JSON(http.StatusCreated, gin.H{"success": true, "campaign": campaign, "degraded": degraded})
}

func (a *API) ListCampaigns(c *gin.Context) {
	campaigns, err := a.workflow.List(c.Request.Context())
	if err != nil {
		a.respondError(c, err)
		return
	}
	if campaigns == nil {
		campaigns = []*models.Campaign{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "campaigns": campaigns})
}

func (a *API) GetCampaign(c *gin.Context) {
	campaign, err := a.workflow.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "campaign": campaign})
}

func (a *API) DeleteCampaign(c *gin.Context) {
	if err := a.workflow.Delete(c.Request.Context(), c.Param("id")); err != nil {
		a.metrics.IncOp("delete", "error")
		a.respondError(c, err)
		return
	}
	a.metrics.IncOp("delete", "ok")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (a *API) SubmitAnswers(c *gin.Context) {
	var req struct {
		Answers map[string]string `json:"answers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		a.metrics.IncOp("answers", "bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
		return
	}

	campaign, degraded, err := a.workflow.SubmitAnswers(c.Request.Context(), c.Param("id"), req.Answers)
	if err != nil {
		a.metrics.IncOp("answers", "error")
		a.respondError(c, err)
		return
	}
	a.metrics.IncOp("answers", "ok")
	c.JSON(http.StatusOK, gin.H{"success": true, "campaign": campaign, "degraded": degraded})
}

// UploadMaterials accepts a multipart form of files, stores them under
// the uploads directory with collision-safe names and feeds the material
// list to the prompt generator.
func (a *API) UploadMaterials(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		a.metrics.IncOp("materials", "bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid multipart form"})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		a.metrics.IncOp("materials", "bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No files uploaded"})
		return
	}

	var materials []models.Material
	for _, file := range files {
		name := filepath.Base(file.Filename)
		if name == "." || name == "/" || name == "" {
			continue
		}
		storagePath := filepath.Join(a.uploadsDir, uuid.New().String()+"_"+name)
		if err := c.SaveUploadedFile(file, storagePath); err != nil {
			a.metrics.IncOp("materials", "error")
			a.respondError(c, err)
			return
		}
		materials = append(materials, models.Material{Filename: name, StoragePath: storagePath})
	}
	if len(materials) == 0 {
		a.metrics.IncOp("materials", "bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No usable files uploaded"})
		return
	}

	campaign, degraded, err := a.workflow.AddMaterials(c.Request.Context(), c.Param("id"), materials)
	if err != nil {
		a.metrics.IncOp("materials", "error")
		a.respondError(c, err)
		return
	}
	a.metrics.IncOp("materials", "ok")
	c.JSON(http.StatusOK, gin.H{"success": true, "campaign": campaign, "degraded": degraded})
}

func (a *API) RegenerateContent(c *gin.Context) {
	channel := c.Param("channel")
	if channel != models.ChannelEmail && channel != models.ChannelSocial {
		a.metrics.IncOp("content", "bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Unknown content channel"})
		return
	}

	campaign, degraded, err := a.workflow.RegenerateContent(c.Request.Context(), c.Param("id"), channel)
	if err != nil {
		a.metrics.IncOp("content", "error")
		a.respondError(c, err)
		return
	}
	a.metrics.IncOp("content", "ok")
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"channel":  channel,
		"content":  campaign.Content(channel),
		"degraded": degraded,
	})
}

func (a *API) SetRecipients(c *gin.Context) {
	var req struct {
		Recipients string `json:"recipients"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
		return
	}
	recipients := delivery.SplitRecipients(req.Recipients)
	if len(recipients) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No recipients provided"})
		return
	}

	campaign, err := a.workflow.SetRecipients(c.Request.Context(), c.Param("id"), recipients)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "campaign": campaign})
}

// TrackingLinks returns the open/click URL pair for every tracked
// recipient of a campaign.
func (a *API) TrackingLinks(c *gin.Context) {
	campaign, err := a.workflow.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.respondError(c, err)
		return
	}

	links := make([]gin.H, 0, len(campaign.Recipients))
	for _, recipient := range campaign.Recipients {
		links = append(links, gin.H{
			"recipient": recipient,
			"open_url":  a.delivery.OpenPixelURL(campaign.ID, recipient),
			"click_url": a.delivery.ClickURL(campaign.ID, recipient),
		})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "links": links})
}
