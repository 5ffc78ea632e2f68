package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/makingtheimpact/blnk-icu/internal/models"
	"github.com/makingtheimpact/blnk-icu/pkg/utils"

	"gorm.io/gorm"
)

// PasswordResetTTL is how long a reset token stays redeemable.
const PasswordResetTTL = 24 * time.Hour

type AccountService struct {
	db     *gorm.DB
	creds  *CredentialStore
	audit  *AuditService
	logger *slog.Logger
	now    func() time.Time
}

func NewAccountService(db *gorm.DB, creds *CredentialStore, audit *AuditService, logger *slog.Logger) *AccountService {
	return &AccountService{
		db:     db,
		creds:  creds,
		audit:  audit,
		logger: logger,
		now:    time.Now,
	}
}

func (s *AccountService) exists(ctx context.Context, column, value string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Where(column+" = ?", value).Count(&count).Error
	return count > 0, err
}

// Register creates a user. Email is checked before username.
func (s *AccountService) Register(ctx context.Context, email, username, password, ip string) (*models.User, error) {
	taken, err := s.exists(ctx, "email", email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateEmail
	}

	taken, err = s.exists(ctx, "username", username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateUsername
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	apiKey := utils.GenerateAPIKey()
	user := models.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		IsActive:     true,
		APIKey:       &apiKey,
		CreatedAt:    s.now(),
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		// A concurrent registration can win the race between the checks and the insert.
		if isDuplicateKey(err) {
			return nil, s.duplicateUserError(ctx, email, username, err)
		}
		return nil, err
	}

	s.audit.LogAction(&user.ID, ActionRegister, user.Username, nil, ip)
	return &user, nil
}

// duplicateUserError names the column a lost insert race collided on, checking
// email before username like Register does.
func (s *AccountService) duplicateUserError(ctx context.Context, email, username string, err error) error {
	if taken, lookupErr := s.exists(ctx, "email", email); lookupErr == nil && taken {
		return ErrDuplicateEmail
	}
	if taken, lookupErr := s.exists(ctx, "username", username); lookupErr == nil && taken {
		return ErrDuplicateUsername
	}
	return err
}

// Login exchanges a username and password for a bearer token.
func (s *AccountService) Login(ctx context.Context, username, password, ip string) (string, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) || !user.IsActive {
		return "", ErrInvalidCredentials
	}

	token, err := s.creds.IssueAccessToken(user.ID)
	if err != nil {
		return "", err
	}

	s.audit.LogAction(&user.ID, ActionLogin, user.Username, nil, ip)
	return token, nil
}

// TokenTTL is the lifetime of tokens returned by Login.
func (s *AccountService) TokenTTL() time.Duration {
	return s.creds.TTL()
}

// RequestPasswordReset returns a fresh reset token for email. Unknown addresses
// yield an empty token and no error, so callers cannot tell them apart.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email, ip string) (string, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Debug("Password reset requested for unknown email")
			return "", nil
		}
		return "", err
	}

	now := s.now().UTC()
	reset := models.PasswordReset{
		UserID:    user.ID,
		Token:     utils.GenerateResetToken(),
		ExpiresAt: now.Add(PasswordResetTTL),
		CreatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&reset).Error; err != nil {
		return "", err
	}

	s.audit.LogAction(&user.ID, ActionResetRequest, strconv.FormatUint(uint64(user.ID), 10), nil, ip)
	return reset.Token, nil
}

// ConfirmPasswordReset sets a new password and burns the token in one transaction.
func (s *AccountService) ConfirmPasswordReset(ctx context.Context, token, newPassword, ip string) error {
	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	var userID uint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reset models.PasswordReset
		if err := tx.Where("token = ?", token).First(&reset).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidOrExpiredToken
			}
			return err
		}
		if !reset.Redeemable(s.now()) {
			return ErrInvalidOrExpiredToken
		}

		// The is_used guard makes a concurrent redemption of the same token lose.
		res := tx.Model(&models.PasswordReset{}).
			Where("id = ? AND is_used = ?", reset.ID, false).
			Update("is_used", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidOrExpiredToken
		}

		res = tx.Model(&models.User{}).Where("id = ?", reset.UserID).Update("password_hash", hash)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidOrExpiredToken
		}

		userID = reset.UserID
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.LogAction(&userID, ActionResetConfirm, strconv.FormatUint(uint64(userID), 10), nil, ip)
	return nil
}

// RegenerateAPIKey replaces the user's key. The old key stops working at once.
func (s *AccountService) RegenerateAPIKey(ctx context.Context, user *models.User, ip string) (string, error) {
	key := utils.GenerateAPIKey()
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Update("api_key", key)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		return "", ErrUnauthorized
	}

	user.APIKey = &key
	s.audit.LogAction(&user.ID, ActionAPIKeyRotate, user.Username, nil, ip)
	return key, nil
}

// ResolveCurrentUser authenticates a request by bearer token, or by API key
// when no token is given.
func (s *AccountService) ResolveCurrentUser(ctx context.Context, bearerToken, apiKey string) (*models.User, error) {
	var user models.User

	switch {
	case bearerToken != "":
		userID, err := s.creds.VerifyToken(bearerToken)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
		}
		if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
			return nil, s.lookupError(err)
		}
	case apiKey != "":
		if err := s.db.WithContext(ctx).Where("api_key = ?", apiKey).First(&user).Error; err != nil {
			return nil, s.lookupError(err)
		}
	default:
		return nil, ErrUnauthorized
	}

	if !user.IsActive {
		return nil, ErrUnauthorized
	}
	return &user, nil
}

func (s *AccountService) lookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUnauthorized
	}
	return err
}
