package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sailnathona/ImpactHub/internal/models"
	"github.com/sailnathona/ImpactHub/internal/settings"
)

// GetEmailSettings returns the active transport. Secrets are excluded by
// the model's JSON tags.
func (a *API) GetEmailSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "transport": a.settings.Transport()})
}

func (a *API) UpdateEmailSettings(c *gin.Context) {
	var req struct {
		Mode          string `json:"mode"`
		Host          string `json:"host"`
		Port          string `json:"port"`
		User          string `json:"user"`
		Secret        string `json:"secret"`
		SenderAddress string `json:"sender_address"`
		SenderName    string `json:"sender_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
		return
	}

	cfg := &models.EmailTransportConfig{
		Mode: req.Mode, Host: req.Host, Port: req.Port,
		User: req.User, Secret: req.Secret, SenderAddress: req.SenderAddress,
		SenderName: req.SenderName,
	}
	if err := a.settings.UpdateTransport(c.Request.Context(), cfg); err != nil {
		if errors.Is(err, settings.ErrInvalidTransport) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "transport": a.settings.Transport()})
}

func (a *API) ListSocialCredentials(c *gin.Context) {
	creds, err := a.settings.ListSocialCredentials(c.Request.Context())
	if err != nil {
		a.respondError(c, err)
		return
	}
	if creds == nil {
		creds = []models.SocialCredentialSet{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "credentials": creds})
}

func (a *API) AddSocialCredential(c *gin.Context) {
	var req struct {
		Name              string `json:"name"`
		APIKey            string `json:"api_key"`
		APISecret         string `json:"api_secret"`
		AccessToken       string `json:"access_token"`
		AccessTokenSecret string `json:"access_token_secret"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
		return
	}

	cred := &models.SocialCredentialSet{
		Name: req.Name, APIKey: req.APIKey, APISecret: req.APISecret,
		AccessToken: req.AccessToken, AccessTokenSecret: req.AccessTokenSecret,
	}
	if err := a.settings.AddSocialCredential(c.Request.Context(), cred); err != nil {
		if errors.Is(err, settings.ErrInvalidTransport) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "credential": cred})
}

func (a *API) DeleteSocialCredential(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid credential id"})
		return
	}
	if err := a.settings.DeleteSocialCredential(c.Request.Context(), id); err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
