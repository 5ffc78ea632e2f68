package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CredentialStore signs and verifies bearer tokens with a symmetric key.
// It is built from configuration so each server (and each test) owns its key.
type CredentialStore struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewCredentialStore(secret string, ttl time.Duration) *CredentialStore {
	return &CredentialStore{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL is the default lifetime of tokens issued by IssueAccessToken.
func (s *CredentialStore) TTL() time.Duration {
	return s.ttl
}

func (s *CredentialStore) IssueAccessToken(userID uint) (string, error) {
	return s.IssueToken(userID, s.ttl)
}

// IssueToken signs a token whose subject is userID and which expires after ttl.
func (s *CredentialStore) IssueToken(userID uint, ttl time.Duration) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// VerifyToken returns the user id carried by token.
func (s *CredentialStore) VerifyToken(token string) (uint, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return 0, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: malformed subject", ErrInvalidToken)
	}
	return uint(id), nil
}

// IsExpired reports whether err came from an expired token.
func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}
