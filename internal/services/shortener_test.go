package services

import (
	"errors"
	"regexp"
	"testing"

	"github.com/makingtheimpact/blnk-icu/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShortener(t *testing.T) *ShortenerService {
	t.Helper()
	return NewShortenerService(setupTestDB(t), nil, nil, testLogger(), "http://sho.rt/")
}

func TestValidateURL(t *testing.T) {
	valid := []string{"https://example.com", "http://example.com/a/b?c=1", "https://example.com:8443/#frag"}
	for _, u := range valid {
		assert.NoError(t, ValidateURL(u), u)
	}

	invalid := []string{"", "example.com", "ftp://example.com/file", "javascript:alert(1)", "https://", "http://%zz"}
	for _, u := range invalid {
		assert.ErrorIs(t, ValidateURL(u), ErrInvalidURL, u)
	}
}

func TestShortenerService_Shorten(t *testing.T) {
	ctx := t.Context()

	t.Run("Round trip preserves the URL exactly", func(t *testing.T) {
		service := newShortener(t)
		original := "https://example.com/a/b?c=1"

		link, err := service.Shorten(ctx, ShortenDTO{OriginalURL: original})
		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^[A-Za-z0-9]{6}$`), link.ShortCode)
		assert.Equal(t, "http://sho.rt/"+link.ShortCode, service.ShortURL(link.ShortCode))

		resolved, err := service.Resolve(ctx, link.ShortCode)
		require.NoError(t, err)
		assert.Equal(t, original, resolved.OriginalURL)
	})

	t.Run("Invalid URL", func(t *testing.T) {
		_, err := newShortener(t).Shorten(ctx, ShortenDTO{OriginalURL: "not a url"})
		assert.ErrorIs(t, err, ErrInvalidURL)
	})

	t.Run("Collision is retried", func(t *testing.T) {
		service := newShortener(t)
		codes := []string{"AAAAAA", "AAAAAA", "BBBBBB"}
		service.codeGenerator = func(int) string {
			code := codes[0]
			codes = codes[1:]
			return code
		}

		first, err := service.Shorten(ctx, ShortenDTO{OriginalURL: "https://one.example"})
		require.NoError(t, err)
		second, err := service.Shorten(ctx, ShortenDTO{OriginalURL: "https://two.example"})
		require.NoError(t, err)

		assert.Equal(t, "AAAAAA", first.ShortCode)
		assert.Equal(t, "BBBBBB", second.ShortCode)
	})

	t.Run("Route names are regenerated", func(t *testing.T) {
		service := newShortener(t)
		codes := []string{"health", "CCCCCC"}
		service.codeGenerator = func(int) string {
			code := codes[0]
			codes = codes[1:]
			return code
		}

		link, err := service.Shorten(ctx, ShortenDTO{OriginalURL: "https://one.example"})
		require.NoError(t, err)
		assert.Equal(t, "CCCCCC", link.ShortCode)
		assert.True(t, isReservedCode("health"))
		assert.False(t, isReservedCode("Health"))
	})

	t.Run("Gives up after repeated collisions", func(t *testing.T) {
		service := newShortener(t)
		calls := 0
		service.codeGenerator = func(int) string {
			calls++
			return "SAME01"
		}

		_, err := service.Shorten(ctx, ShortenDTO{OriginalURL: "https://one.example"})
		require.NoError(t, err)
		calls = 0

		_, err = service.Shorten(ctx, ShortenDTO{OriginalURL: "https://two.example"})
		assert.ErrorIs(t, err, ErrDuplicateCode)
		assert.Equal(t, maxCodeAttempts, calls)
	})

	t.Run("Owner is stored", func(t *testing.T) {
		service := newShortener(t)
		owner := uint(5)
		link, err := service.Shorten(ctx, ShortenDTO{OriginalURL: "https://example.com", UserID: &owner})
		require.NoError(t, err)
		require.NotNil(t, link.UserID)
		assert.Equal(t, owner, *link.UserID)
	})

	t.Run("DB Error", func(t *testing.T) {
		service := newShortener(t)
		require.NoError(t, service.db.Migrator().DropTable(&models.URL{}))
		_, err := service.Shorten(ctx, ShortenDTO{OriginalURL: "https://example.com"})
		assert.Error(t, err)
		assert.False(t, errors.Is(err, ErrDuplicateCode))
	})
}

func TestShortenerService_Resolve(t *testing.T) {
	ctx := t.Context()

	t.Run("Unknown code", func(t *testing.T) {
		_, err := newShortener(t).Resolve(ctx, "nope00")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Unreachable cache falls back to the database", func(t *testing.T) {
		service := newShortener(t)
		service.rdb = redis.NewClient(&redis.Options{Addr: "localhost:1", MaxRetries: -1})
		t.Cleanup(func() { service.rdb.Close() })

		link, err := service.Shorten(ctx, ShortenDTO{OriginalURL: "https://example.com"})
		require.NoError(t, err)

		resolved, err := service.Resolve(ctx, link.ShortCode)
		require.NoError(t, err)
		assert.Equal(t, link.ID, resolved.ID)
	})
}

func TestShortenerService_Ownership(t *testing.T) {
	ctx := t.Context()
	service := newShortener(t)
	owner := &models.User{ID: 1}
	stranger := &models.User{ID: 2}
	admin := &models.User{ID: 3, IsSuperuser: true}

	link, err := service.Shorten(ctx, ShortenDTO{OriginalURL: "https://example.com", UserID: &owner.ID})
	require.NoError(t, err)
	anonymous, err := service.Shorten(ctx, ShortenDTO{OriginalURL: "https://anon.example"})
	require.NoError(t, err)

	t.Run("Stranger cannot read or deactivate", func(t *testing.T) {
		_, err := service.GetOwned(ctx, link.ShortCode, stranger)
		assert.ErrorIs(t, err, ErrForbidden)
		assert.ErrorIs(t, service.Deactivate(ctx, link.ShortCode, stranger, ""), ErrForbidden)
		assert.ErrorIs(t, service.Deactivate(ctx, anonymous.ShortCode, stranger, ""), ErrForbidden)
	})

	t.Run("Superuser can read", func(t *testing.T) {
		got, err := service.GetOwned(ctx, link.ShortCode, admin)
		require.NoError(t, err)
		assert.Equal(t, link.ID, got.ID)
	})

	t.Run("List returns only the owner's links", func(t *testing.T) {
		links, err := service.ListByUser(ctx, owner.ID)
		require.NoError(t, err)
		require.Len(t, links, 1)
		assert.Equal(t, link.ShortCode, links[0].ShortCode)
	})

	t.Run("Deactivated link no longer resolves", func(t *testing.T) {
		require.NoError(t, service.Deactivate(ctx, link.ShortCode, owner, ""))

		_, err := service.Resolve(ctx, link.ShortCode)
		assert.ErrorIs(t, err, ErrNotFound)

		got, err := service.GetOwned(ctx, link.ShortCode, owner)
		require.NoError(t, err)
		assert.False(t, got.IsActive)
	})

	t.Run("Unknown code", func(t *testing.T) {
		assert.ErrorIs(t, service.Deactivate(ctx, "nope00", owner, ""), ErrNotFound)
	})
}
