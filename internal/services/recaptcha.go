package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// BotVerifier checks a client-supplied challenge token.
type BotVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// RecaptchaVerifier validates reCAPTCHA v3 tokens against the siteverify
// endpoint. Every failure to reach a verdict rejects the request.
type RecaptchaVerifier struct {
	secret    string
	verifyURL string
	minScore  float64
	timeout   time.Duration
	client    *http.Client
	logger    *slog.Logger
}

func NewRecaptchaVerifier(secret, verifyURL string, minScore float64, timeout time.Duration, logger *slog.Logger) *RecaptchaVerifier {
	return &RecaptchaVerifier{
		secret:    secret,
		verifyURL: verifyURL,
		minScore:  minScore,
		timeout:   timeout,
		client:    &http.Client{},
		logger:    logger,
	}
}

type recaptchaResponse struct {
	Success    bool     `json:"success"`
	Score      float64  `json:"score"`
	Action     string   `json:"action"`
	ErrorCodes []string `json:"error-codes"`
}

func (v *RecaptchaVerifier) Verify(ctx context.Context, token, remoteIP string) error {
	if token == "" {
		return ErrBotVerificationFailed
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExternalService, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		v.logger.Error("reCAPTCHA request failed", "error", err)
		return fmt.Errorf("%w: %v", ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		v.logger.Error("reCAPTCHA returned unexpected status", "status", resp.StatusCode)
		return fmt.Errorf("%w: verify status %d", ErrExternalService, resp.StatusCode)
	}

	var body recaptchaResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: malformed verify response: %v", ErrExternalService, err)
	}

	if !body.Success || body.Score <= v.minScore {
		v.logger.Info("Bot verification rejected", "success", body.Success, "score", body.Score, "errors", body.ErrorCodes)
		return ErrBotVerificationFailed
	}
	return nil
}

// NoopVerifier accepts every request. It is only wired when bot
// verification is explicitly disabled.
type NoopVerifier struct{}

func (NoopVerifier) Verify(context.Context, string, string) error {
	return nil
}
