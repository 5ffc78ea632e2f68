package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	return Config{
		AppEnv:             "local",
		Port:               "8080",
		BaseURL:            "http://localhost:8080",
		DatabaseURL:        "sqlite://:memory:",
		JWTSecret:          strings.Repeat("s", 32),
		TokenTTLMinutes:    30,
		RecaptchaSecret:    "captcha-secret",
		RecaptchaVerifyURL: "https://www.google.com/recaptcha/api/siteverify",
		RecaptchaMinScore:  0.5,
		RecaptchaTimeout:   5,
		ShortenPerMinute:   5,
		RedirectPerMinute:  30,
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("Default Values", func(t *testing.T) {
		cfg, err := LoadConfig()
		assert.NoError(t, err)
		assert.Equal(t, "local", cfg.AppEnv)
		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, 30, cfg.TokenTTLMinutes)
		assert.Equal(t, 0.5, cfg.RecaptchaMinScore)
		assert.Equal(t, 5, cfg.ShortenPerMinute)
		assert.Equal(t, 30, cfg.RedirectPerMinute)
		assert.Empty(t, cfg.TrustedProxies)
	})

	t.Run("Environment Variables", func(t *testing.T) {
		t.Setenv("PORT", "9999")
		t.Setenv("JWT_SECRET", "from-the-environment-0123456789abcdef")
		t.Setenv("RECAPTCHA_DISABLED", "true")

		cfg, err := LoadConfig()
		assert.NoError(t, err)
		assert.Equal(t, "9999", cfg.Port)
		assert.Equal(t, "from-the-environment-0123456789abcdef", cfg.JWTSecret)
		assert.True(t, cfg.RecaptchaDisabled)
	})

	t.Run("Trusted Proxies List", func(t *testing.T) {
		t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,192.168.1.1")

		cfg, err := LoadConfig()
		assert.NoError(t, err)
		assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.1"}, cfg.TrustedProxies)
	})
}

func TestConfig_Validate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	t.Run("Defaults Without Secret Fail", func(t *testing.T) {
		cfg, err := LoadConfig()
		assert.NoError(t, err)
		assert.Error(t, cfg.Validate())
	})

	t.Run("Short JWT Secret", func(t *testing.T) {
		cfg := validConfig()
		cfg.JWTSecret = "short"
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "JWTSecret")
	})

	t.Run("Missing Recaptcha Secret", func(t *testing.T) {
		cfg := validConfig()
		cfg.RecaptchaSecret = ""
		assert.Error(t, cfg.Validate())

		cfg.RecaptchaDisabled = true
		assert.NoError(t, cfg.Validate())
	})

	t.Run("Score Out Of Range", func(t *testing.T) {
		cfg := validConfig()
		cfg.RecaptchaMinScore = 1.5
		assert.Error(t, cfg.Validate())
	})

	t.Run("Trusted Proxies", func(t *testing.T) {
		cfg := validConfig()
		cfg.TrustedProxies = []string{"10.0.0.0/8", "192.168.1.1"}
		assert.NoError(t, cfg.Validate())

		cfg.TrustedProxies = []string{"not-a-proxy"}
		assert.Error(t, cfg.Validate())
	})

	t.Run("Bad Base URL", func(t *testing.T) {
		cfg := validConfig()
		cfg.BaseURL = "not a url"
		assert.Error(t, cfg.Validate())
	})
}

func TestConfig_Durations(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "30m0s", cfg.TokenTTL().String())
	assert.Equal(t, "5s", cfg.RecaptchaTimeoutDuration().String())
}
