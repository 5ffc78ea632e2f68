package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ShowStats reports analytics for a link the caller owns.
func (h *Handler) ShowStats(c *gin.Context) {
	ctx := c.Request.Context()

	link, err := h.shortenerService.GetOwned(ctx, c.Param("short_code"), currentUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	stats, err := h.statsService.Summary(ctx, link)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
