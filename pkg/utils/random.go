package utils

import (
	"crypto/rand"
	"encoding/base64"
	"math/big"
)

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const (
	ShortCodeLength  = 6
	APIKeyLength     = 32
	resetTokenLength = 32
)

var charsetLen = big.NewInt(int64(len(charset)))

func randomString(length int) string {
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken.
			panic("utils: reading random source: " + err.Error())
		}
		b[i] = charset[n.Int64()]
	}
	return string(b)
}

// GenerateShortCode generates a random alphanumeric string of fixed length
func GenerateShortCode(length int) string {
	return randomString(length)
}

// GenerateAPIKey generates a 32 character alphanumeric API key.
func GenerateAPIKey() string {
	return randomString(APIKeyLength)
}

// GenerateResetToken returns a URL-safe token carrying 32 bytes of entropy.
func GenerateResetToken() string {
	b := make([]byte, resetTokenLength)
	if _, err := rand.Read(b); err != nil {
		panic("utils: reading random source: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
