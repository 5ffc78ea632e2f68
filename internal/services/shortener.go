package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/makingtheimpact/blnk-icu/internal/models"
	"github.com/makingtheimpact/blnk-icu/pkg/utils"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	maxCodeAttempts = 5
	linkCacheTTL    = 10 * time.Minute
)

// reservedCodes are top-level route names a short code must not shadow.
var reservedCodes = map[string]struct{}{
	"health":         {},
	"register":       {},
	"token":          {},
	"shorten":        {},
	"reset-password": {},
	"api-key":        {},
	"me":             {},
	"links":          {},
	"qr":             {},
	"q":              {},
}

func isReservedCode(code string) bool {
	_, ok := reservedCodes[code]
	return ok
}

type ShortenDTO struct {
	UserID      *uint
	OriginalURL string
	IPAddress   string // for the audit log
}

type ShortenerService struct {
	db            *gorm.DB
	rdb           *redis.Client
	auditService  *AuditService
	logger        *slog.Logger
	baseURL       string
	codeGenerator func(int) string
}

func NewShortenerService(db *gorm.DB, rdb *redis.Client, auditService *AuditService, logger *slog.Logger, baseURL string) *ShortenerService {
	return &ShortenerService{
		db:            db,
		rdb:           rdb,
		auditService:  auditService,
		logger:        logger,
		baseURL:       strings.TrimRight(baseURL, "/"),
		codeGenerator: utils.GenerateShortCode,
	}
}

// ShortURL is the public address of code.
func (s *ShortenerService) ShortURL(code string) string {
	return s.baseURL + "/" + code
}

// ValidateURL accepts absolute http and https URLs with a host.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrInvalidURL
	}
	return nil
}

// Shorten stores the URL under a fresh random code, regenerating the code when
// it collides with an existing one.
func (s *ShortenerService) Shorten(ctx context.Context, dto ShortenDTO) (*models.URL, error) {
	if err := ValidateURL(dto.OriginalURL); err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code := s.codeGenerator(utils.ShortCodeLength)
		if isReservedCode(code) {
			s.logger.Warn("Short code shadows a route, regenerating", "attempt", attempt)
			continue
		}

		link := models.URL{
			ShortCode:   code,
			OriginalURL: dto.OriginalURL,
			UserID:      dto.UserID,
			IsActive:    true,
			CreatedAt:   time.Now(),
		}

		err := s.db.WithContext(ctx).Create(&link).Error
		if err == nil {
			s.auditService.LogAction(dto.UserID, ActionCreateLink, link.ShortCode, map[string]interface{}{
				"original_url": dto.OriginalURL,
			}, dto.IPAddress)
			return &link, nil
		}
		if !isDuplicateKey(err) {
			return nil, err
		}
		s.logger.Warn("Short code collision, regenerating", "attempt", attempt)
	}
	return nil, ErrDuplicateCode
}

func cacheKey(code string) string {
	return "url:" + code
}

// Resolve returns the active link for code, reading through the cache.
func (s *ShortenerService) Resolve(ctx context.Context, code string) (*models.URL, error) {
	if link, ok := s.cached(ctx, code); ok {
		return link, nil
	}

	var link models.URL
	if err := s.db.WithContext(ctx).Where("short_code = ? AND is_active = ?", code, true).First(&link).Error; err != nil {
		return nil, notFound(err)
	}

	s.store(ctx, &link)
	return &link, nil
}

func (s *ShortenerService) cached(ctx context.Context, code string) (*models.URL, bool) {
	if s.rdb == nil {
		return nil, false
	}
	val, err := s.rdb.Get(ctx, cacheKey(code)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("Link cache read failed", "short_code", code, "error", err)
		}
		return nil, false
	}

	var link models.URL
	if err := json.Unmarshal([]byte(val), &link); err != nil {
		s.logger.Warn("Discarding malformed cache entry", "short_code", code, "error", err)
		return nil, false
	}
	return &link, true
}

func (s *ShortenerService) store(ctx context.Context, link *models.URL) {
	if s.rdb == nil {
		return
	}
	data, err := json.Marshal(link)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, cacheKey(link.ShortCode), data, linkCacheTTL).Err(); err != nil {
		s.logger.Warn("Link cache write failed", "short_code", link.ShortCode, "error", err)
	}
}

func (s *ShortenerService) evict(ctx context.Context, code string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, cacheKey(code)).Err(); err != nil {
		s.logger.Warn("Link cache eviction failed", "short_code", code, "error", err)
	}
}

// GetOwned returns the link for code if user owns it or is a superuser.
// Inactive links are included.
func (s *ShortenerService) GetOwned(ctx context.Context, code string, user *models.User) (*models.URL, error) {
	var link models.URL
	if err := s.db.WithContext(ctx).Where("short_code = ?", code).First(&link).Error; err != nil {
		return nil, notFound(err)
	}
	if !user.IsSuperuser && (link.UserID == nil || *link.UserID != user.ID) {
		return nil, ErrForbidden
	}
	return &link, nil
}

// Deactivate disables an owned link. Its code stays reserved.
func (s *ShortenerService) Deactivate(ctx context.Context, code string, user *models.User, ip string) error {
	link, err := s.GetOwned(ctx, code, user)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(link).Update("is_active", false).Error; err != nil {
		return err
	}
	s.evict(ctx, code)

	s.auditService.LogAction(&user.ID, ActionDeactivateLink, code, nil, ip)
	return nil
}

// ListByUser returns the user's links, newest first.
func (s *ShortenerService) ListByUser(ctx context.Context, userID uint) ([]models.URL, error) {
	var links []models.URL
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC").Find(&links).Error
	return links, err
}
