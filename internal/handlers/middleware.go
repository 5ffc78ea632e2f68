package handlers

import (
	"strconv"
	"strings"

	"github.com/makingtheimpact/blnk-icu/internal/models"
	"github.com/makingtheimpact/blnk-icu/internal/services"

	"github.com/gin-gonic/gin"
)

const userKey = "user"

// credentials extracts the bearer token and API key presented by the caller.
func credentials(c *gin.Context) (bearer, apiKey string) {
	if auth := c.GetHeader("Authorization"); len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		bearer = strings.TrimSpace(auth[7:])
	}
	return bearer, c.GetHeader("X-API-Key")
}

func (h *Handler) authenticate(c *gin.Context) bool {
	bearer, apiKey := credentials(c)
	user, err := h.accountService.ResolveCurrentUser(c.Request.Context(), bearer, apiKey)
	if err != nil {
		h.respondError(c, err)
		return false
	}
	c.Set(userKey, user)
	return true
}

// AuthRequired rejects requests without a valid bearer token or API key.
func (h *Handler) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.authenticate(c) {
			return
		}
		c.Next()
	}
}

// OptionalAuth attaches the caller when credentials are presented. Bad
// credentials are still rejected.
func (h *Handler) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if bearer, apiKey := credentials(c); bearer == "" && apiKey == "" {
			c.Next()
			return
		}
		if !h.authenticate(c) {
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

func currentUserID(c *gin.Context) *uint {
	if user := currentUser(c); user != nil {
		return &user.ID
	}
	return nil
}

// RateLimitMiddleware limits requests per client address. A nil limiter
// disables the check.
func (h *Handler) RateLimitMiddleware(limiter *services.IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		if ok, wait := limiter.Allow(c.ClientIP()); !ok {
			c.Header("Retry-After", strconv.Itoa(services.RetryAfterSeconds(wait)))
			h.respondError(c, services.ErrRateLimited)
			return
		}
		c.Next()
	}
}

// BotVerification checks the g-recaptcha-response form field.
func (h *Handler) BotVerification() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.PostForm("g-recaptcha-response")
		if err := h.botVerifier.Verify(c.Request.Context(), token, c.ClientIP()); err != nil {
			h.logger.Info("Bot verification failed", "ip", c.ClientIP(), "error", err)
			h.respondError(c, err)
			return
		}
		c.Next()
	}
}

func visitFrom(c *gin.Context) services.Visit {
	return services.Visit{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Referrer:  refOrDirect(c.Request.Referer()),
	}
}

func refOrDirect(ref string) string {
	if ref == "" {
		return "Direct"
	}
	return ref
}
