package handlers

import (
	"net/http"
	"time"

	"github.com/makingtheimpact/blnk-icu/internal/models"

	"github.com/gin-gonic/gin"
)

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,max=80"`
	Password string `json:"password" binding:"required,max=72"`
}

type TokenRequest struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type ResetRequest struct {
	Email string `form:"email" json:"email" binding:"required"`
}

type ResetConfirmRequest struct {
	Token       string `form:"token" json:"token" binding:"required"`
	NewPassword string `form:"new_password" json:"new_password" binding:"required,max=72"`
}

type UserResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	IsActive  bool      `json:"is_active"`
	APIKey    *string   `json:"api_key"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		IsActive:  u.IsActive,
		APIKey:    u.APIKey,
		CreatedAt: u.CreatedAt,
	}
}

func (h *Handler) RegisterUser(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.accountService.Register(c.Request.Context(), req.Email, req.Username, req.Password, c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newUserResponse(user))
}

// IssueToken is the password grant: form username and password.
func (h *Handler) IssueToken(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}

	token, err := h.accountService.Login(c.Request.Context(), req.Username, req.Password, c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"expires_in":   int(h.accountService.TokenTTL().Seconds()),
	})
}

func (h *Handler) RequestPasswordReset(c *gin.Context) {
	var req ResetRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}

	token, err := h.accountService.RequestPasswordReset(c.Request.Context(), req.Email, c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}

	if token == "" {
		c.JSON(http.StatusOK, gin.H{"message": "If the email exists, a password reset link will be sent"})
		return
	}
	// TODO: deliver the token by email instead of in the response once a mailer exists.
	c.JSON(http.StatusOK, gin.H{"reset_token": token})
}

func (h *Handler) ConfirmPasswordReset(c *gin.Context) {
	var req ResetConfirmRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.accountService.ConfirmPasswordReset(c.Request.Context(), req.Token, req.NewPassword, c.ClientIP()); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

func (h *Handler) RegenerateAPIKey(c *gin.Context) {
	key, err := h.accountService.RegenerateAPIKey(c.Request.Context(), currentUser(c), c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"api_key": key})
}

func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, newUserResponse(currentUser(c)))
}
