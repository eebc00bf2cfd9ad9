package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ESignToken exchanges the configured signing key for a provider access
// token. Returns 409 while the integration is not configured.
func (a *API) ESignToken(c *gin.Context) {
	if !a.esign.Enabled() {
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "E-signature integration is not configured"})
		return
	}

	token, err := a.esign.AccessToken(c.Request.Context())
	if err != nil {
		a.logger.WithError(err).Error("E-sign token exchange failed")
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "Token exchange failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "access_token": token})
}
