package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/makingtheimpact/blnk-icu/internal/services"

	"github.com/gin-gonic/gin"
)

const maxLogoBytes = 5 << 20

type QRStyleForm struct {
	Style       string `form:"style"`
	ColorType   string `form:"color_type"`
	FrontColor  string `form:"front_color"`
	BackColor   string `form:"back_color"`
	CenterColor string `form:"center_color"`
	EdgeColor   string `form:"edge_color"`
}

func (f QRStyleForm) config() services.StyleConfig {
	return services.StyleConfig{
		Style:       f.Style,
		ColorType:   f.ColorType,
		FrontColor:  f.FrontColor,
		BackColor:   f.BackColor,
		CenterColor: f.CenterColor,
		EdgeColor:   f.EdgeColor,
	}
}

type CreateQRRequest struct {
	QRStyleForm
	ShortCode string `form:"short_code" binding:"required"`
}

type PreviewQRRequest struct {
	QRStyleForm
	Data string `form:"data" binding:"required"`
}

// readLogo returns the uploaded logo_file, or nil when there is none or it
// cannot be read. Logo problems never fail the request.
func (h *Handler) readLogo(c *gin.Context) []byte {
	header, err := c.FormFile("logo_file")
	if err != nil {
		if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
			h.logger.Warn("Ignoring unreadable logo upload", "error", err)
		}
		return nil
	}

	f, err := header.Open()
	if err != nil {
		h.logger.Warn("Ignoring unreadable logo upload", "error", err)
		return nil
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxLogoBytes+1))
	if err != nil {
		h.logger.Warn("Ignoring unreadable logo upload", "error", err)
		return nil
	}
	if len(data) > maxLogoBytes {
		h.logger.Warn("Ignoring oversized logo upload", "size", header.Size)
		return nil
	}
	return data
}

func writePNG(c *gin.Context, data []byte) {
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", data)
}

// CreateQRCode stores a styled QR code for one of the caller's links.
func (h *Handler) CreateQRCode(c *gin.Context) {
	var req CreateQRRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}

	user := currentUser(c)
	qr, image, err := h.qrService.CreateQRCode(c.Request.Context(), services.QRCodeDTO{
		ShortCode:   req.ShortCode,
		UserID:      &user.ID,
		IsSuperuser: user.IsSuperuser,
		Style:       req.config(),
		Logo:        h.readLogo(c),
		IPAddress:   c.ClientIP(),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("X-QR-ID", qr.PublicID)
	c.Header("Location", fmt.Sprintf("/qr/%s", qr.PublicID))
	writePNG(c, image)
}

// PreviewQRCode renders arbitrary data without storing anything.
func (h *Handler) PreviewQRCode(c *gin.Context) {
	var req PreviewQRRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}

	image, err := h.qrService.Render(req.Data, req.config(), h.readLogo(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	writePNG(c, image)
}

func (h *Handler) GetQRCode(c *gin.Context) {
	qr, image, err := h.qrService.GetQRCode(c.Request.Context(), c.Param("public_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Header("X-QR-ID", qr.PublicID)
	writePNG(c, image)
}
