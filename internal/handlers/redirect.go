package handlers

import (
	"net/http"
	"time"

	"github.com/makingtheimpact/blnk-icu/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) RedirectToURL(c *gin.Context) {
	link, err := h.shortenerService.Resolve(c.Request.Context(), c.Param("short_code"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	visit := visitFrom(c)
	h.statsService.RecordVisitAsync(models.URLAnalytics{
		URLID:     link.ID,
		Timestamp: time.Now(),
		IPAddress: visit.IPAddress,
		UserAgent: visit.UserAgent,
		Referrer:  visit.Referrer,
	})

	c.Redirect(http.StatusFound, link.OriginalURL)
}

// ScanQRCode is the target encoded in persisted QR codes.
func (h *Handler) ScanQRCode(c *gin.Context) {
	dest, err := h.qrService.RecordScan(c.Request.Context(), c.Param("public_id"), visitFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Redirect(http.StatusFound, dest)
}
