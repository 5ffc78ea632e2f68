package handlers

import (
	"net/http"
	"time"

	"github.com/makingtheimpact/blnk-icu/internal/models"
	"github.com/makingtheimpact/blnk-icu/internal/services"

	"github.com/gin-gonic/gin"
)

type ShortenRequest struct {
	OriginalURL string `form:"original_url" binding:"required,max=2048"`
}

type LinkResponse struct {
	ShortCode   string    `json:"short_code"`
	ShortURL    string    `json:"short_url"`
	OriginalURL string    `json:"original_url"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

func (h *Handler) newLinkResponse(link *models.URL) LinkResponse {
	return LinkResponse{
		ShortCode:   link.ShortCode,
		ShortURL:    h.shortenerService.ShortURL(link.ShortCode),
		OriginalURL: link.OriginalURL,
		IsActive:    link.IsActive,
		CreatedAt:   link.CreatedAt,
	}
}

func (h *Handler) ShortenURL(c *gin.Context) {
	var req ShortenRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}

	link, err := h.shortenerService.Shorten(c.Request.Context(), services.ShortenDTO{
		UserID:      currentUserID(c),
		OriginalURL: req.OriginalURL,
		IPAddress:   c.ClientIP(),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"short_url":  h.shortenerService.ShortURL(link.ShortCode),
		"short_code": link.ShortCode,
	})
}

func (h *Handler) ListLinks(c *gin.Context) {
	links, err := h.shortenerService.ListByUser(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	out := make([]LinkResponse, 0, len(links))
	for i := range links {
		out = append(out, h.newLinkResponse(&links[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) DeactivateLink(c *gin.Context) {
	err := h.shortenerService.Deactivate(c.Request.Context(), c.Param("short_code"), currentUser(c), c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
