package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/makingtheimpact/blnk-icu/internal/config"
	"github.com/makingtheimpact/blnk-icu/internal/models"
	"github.com/makingtheimpact/blnk-icu/internal/services"

	"github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type stubVerifier struct {
	err   error
	token string
}

func (s *stubVerifier) Verify(_ context.Context, token, _ string) error {
	s.token = token
	return s.err
}

func setupTestHandler(t *testing.T) (*Handler, *gorm.DB) {
	t.Helper()
	return setupTestHandlerWith(t, services.NoopVerifier{})
}

func setupTestHandlerWith(t *testing.T, verifier services.BotVerifier) (*Handler, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{
		BaseURL:   "http://sho.rt",
		JWTSecret: "test-secret-12345678901234567890123456789012",
	}

	// Dummy redis client (not connected) with no retries
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:1", MaxRetries: -1})
	t.Cleanup(func() { rdb.Close() })

	creds := services.NewCredentialStore(cfg.JWTSecret, 30*time.Minute)
	audit := services.NewAuditService(db, log)
	geoIP := services.NewGeoIPService(cfg, log)
	stats := services.NewStatsService(db, log, geoIP)
	account := services.NewAccountService(db, creds, audit, log)
	shortener := services.NewShortenerService(db, rdb, audit, log, cfg.BaseURL)
	qr := services.NewQRService(db, cfg.BaseURL, stats, audit, log)

	return NewHandler(cfg, log, account, shortener, stats, qr, verifier), db
}

func setupTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return h.SetupRouter(Limiters{})
}

func postForm(r http.Handler, path string, form url.Values, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func postJSON(r http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(string(data)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doRequest(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

// registerAndLogin creates a user through the API and returns its bearer token.
func registerAndLogin(t *testing.T, r http.Handler, username string) string {
	t.Helper()
	w := postJSON(r, "/register", map[string]string{
		"email":    username + "@example.com",
		"username": username,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = postForm(r, "/token", url.Values{"username": {username}, "password": {"password123"}}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decodeBody(t, w)["access_token"].(string)
}

func shorten(t *testing.T, r http.Handler, original string, headers map[string]string) string {
	t.Helper()
	w := postForm(r, "/shorten", url.Values{"original_url": {original}}, headers)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody(t, w)["short_code"].(string)
}
