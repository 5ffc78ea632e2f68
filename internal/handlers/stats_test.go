package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/makingtheimpact/blnk-icu/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowStats(t *testing.T) {
	h, db := setupTestHandler(t)
	r := setupTestRouter(h)
	owner := registerAndLogin(t, r, "owner")
	stranger := registerAndLogin(t, r, "stranger")
	code := shorten(t, r, "https://example.com", bearer(owner))

	var link models.URL
	require.NoError(t, db.Where("short_code = ?", code).First(&link).Error)
	require.NoError(t, db.Create(&models.URLAnalytics{URLID: link.ID, Timestamp: time.Now(), Country: "Germany", Browser: "Chrome 91", DeviceType: "Desktop"}).Error)

	t.Run("Owner sees a summary", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/"+code+"/stats", bearer(owner))
		require.Equal(t, http.StatusOK, w.Code)

		body := decodeBody(t, w)
		assert.Equal(t, code, body["short_code"])
		assert.Equal(t, float64(1), body["total_clicks"])
		assert.Equal(t, float64(0), body["total_scans"])
	})

	t.Run("Stranger is forbidden", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/"+code+"/stats", bearer(stranger))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Unknown link", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/nope00/stats", bearer(owner))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
