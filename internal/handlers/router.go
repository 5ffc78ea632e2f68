package handlers

import (
	"net/http"

	"github.com/makingtheimpact/blnk-icu/internal/services"

	"github.com/gin-gonic/gin"
)

// Limiters holds the per-address limits; nil entries disable a limit.
type Limiters struct {
	Shorten  *services.IPRateLimiter
	Redirect *services.IPRateLimiter
}

func (h *Handler) SetupRouter(limits Limiters) *gin.Engine {
	r := gin.Default()
	// ClientIP only honours X-Forwarded-For from configured proxies.
	if err := r.SetTrustedProxies(h.cfg.TrustedProxies); err != nil {
		h.logger.Error("Invalid trusted proxies, trusting none", "error", err)
		_ = r.SetTrustedProxies(nil)
	}
	r.MaxMultipartMemory = 8 << 20

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// Accounts
	r.POST("/register", h.RegisterUser)
	r.POST("/token", h.IssueToken)
	r.POST("/reset-password/request", h.RequestPasswordReset)
	r.POST("/reset-password/confirm", h.ConfirmPasswordReset)

	// Link creation
	r.POST("/shorten", h.RateLimitMiddleware(limits.Shorten), h.BotVerification(), h.OptionalAuth(), h.ShortenURL)

	// QR rendering
	r.POST("/qr/preview", h.PreviewQRCode)
	r.GET("/qr/:public_id", h.GetQRCode)
	r.GET("/q/:public_id", h.RateLimitMiddleware(limits.Redirect), h.ScanQRCode)

	authorized := r.Group("/")
	authorized.Use(h.AuthRequired())
	{
		authorized.GET("/me", h.Me)
		authorized.GET("/me/links", h.ListLinks)
		authorized.POST("/api-key/regenerate", h.RegenerateAPIKey)
		authorized.DELETE("/links/:short_code", h.DeactivateLink)
		authorized.POST("/qr", h.CreateQRCode)
		authorized.GET("/:short_code/stats", h.ShowStats)
	}

	// Catch-all redirect
	r.GET("/:short_code", h.RateLimitMiddleware(limits.Redirect), h.RedirectToURL)

	return r
}
