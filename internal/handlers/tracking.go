package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// trackedRecipient pulls the recipient out of the wildcard segment. Gin
// keeps the leading slash on wildcard params.
func trackedRecipient(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("recipient"), "/")
}

// onePixelGIF is a 1x1 transparent GIF served to mail clients fetching
// the open pixel.
var onePixelGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00,
	0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00,
	0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

// TrackOpen records an email open. The response is always the pixel;
// unknown recipients are ignored so forwarded mail cannot enumerate a
// campaign's list.
func (a *API) TrackOpen(c *gin.Context) {
	recipient := trackedRecipient(c)
	err := a.delivery.RecordOpen(c.Request.Context(), c.Param("id"), recipient)
	if err != nil {
		a.respondError(c, err)
		return
	}
	a.metrics.IncTracking("open")
	c.Data(http.StatusOK, "image/gif", onePixelGIF)
}

// TrackClick records a link click and acknowledges in plain text.
func (a *API) TrackClick(c *gin.Context) {
	recipient := trackedRecipient(c)
	err := a.delivery.RecordClick(c.Request.Context(), c.Param("id"), recipient)
	if err != nil {
		a.respondError(c, err)
		return
	}
	a.metrics.IncTracking("click")
	c.String(http.StatusOK, "Thanks for your interest!")
}
