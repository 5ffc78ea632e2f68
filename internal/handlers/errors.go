package handlers

import (
	"errors"
	"net/http"

	"github.com/makingtheimpact/blnk-icu/internal/services"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{services.ErrDuplicateEmail, http.StatusBadRequest, "duplicate_email"},
	{services.ErrDuplicateUsername, http.StatusBadRequest, "duplicate_username"},
	{services.ErrDuplicateCode, http.StatusConflict, "duplicate_code"},
	{services.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{services.ErrInvalidOrExpiredToken, http.StatusBadRequest, "invalid_or_expired_token"},
	{services.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{services.ErrInvalidToken, http.StatusUnauthorized, "unauthorized"},
	{services.ErrForbidden, http.StatusForbidden, "forbidden"},
	{services.ErrNotFound, http.StatusNotFound, "not_found"},
	{services.ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
	{services.ErrBotVerificationFailed, http.StatusForbidden, "bot_verification_failed"},
	{services.ErrExternalService, http.StatusServiceUnavailable, "external_service_unavailable"},
	{services.ErrInvalidURL, http.StatusBadRequest, "invalid_url"},
	{services.ErrContentTooLong, http.StatusBadRequest, "content_too_long"},
}

// respondError writes the JSON error body for err and aborts the chain.
// Errors outside the known taxonomy are logged and reported as 500.
func (h *Handler) respondError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			if m.status == http.StatusUnauthorized {
				c.Header("WWW-Authenticate", authenticateChallenge(err))
			}
			c.AbortWithStatusJSON(m.status, errorResponse{Error: m.code, Message: m.target.Error()})
			return
		}
	}

	h.logger.Error("Request failed", "path", c.FullPath(), "error", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: "internal_error", Message: "internal server error"})
}

func authenticateChallenge(err error) string {
	if services.IsExpired(err) {
		return `Bearer error="invalid_token", error_description="The access token expired"`
	}
	return "Bearer"
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
}
