package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrDuplicateEmail        = errors.New("email already registered")
	ErrDuplicateUsername     = errors.New("username already taken")
	ErrDuplicateCode         = errors.New("short code already exists")
	ErrInvalidCredentials    = errors.New("incorrect username or password")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired reset token")
	ErrInvalidToken          = errors.New("invalid token")
	ErrUnauthorized          = errors.New("could not validate credentials")
	ErrForbidden             = errors.New("forbidden")
	ErrNotFound              = errors.New("not found")
	ErrInvalidURL            = errors.New("invalid url")
	ErrContentTooLong        = errors.New("content too long for a qr code")
	ErrRateLimited           = errors.New("rate limit exceeded")
	ErrBotVerificationFailed = errors.New("bot verification failed")
	ErrExternalService       = errors.New("verification service unavailable")
)

// isDuplicateKey reports whether err is a unique constraint violation.
// Drivers that do not translate errors are matched on their message.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
