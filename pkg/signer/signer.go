package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Signer creates and validates HMAC signed values of the form
// "<value>.<signature>".
type Signer struct {
	secret []byte
}

// New constructs a signer with the provided secret.
func New(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign returns value with its signature appended.
func (s *Signer) Sign(value string) (string, error) {
	if value == "" {
		return "", fmt.Errorf("value required")
	}
	if strings.Contains(value, ".") {
		return "", fmt.Errorf("value must not contain '.'")
	}
	if len(s.secret) == 0 {
		return "", fmt.Errorf("signing secret missing")
	}
	return value + "." + s.signature(value), nil
}

// Verify checks a signed token and returns the embedded value.
func (s *Signer) Verify(token string) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("signing secret missing")
	}
	value, signature, ok := strings.Cut(token, ".")
	if !ok || value == "" || signature == "" {
		return "", fmt.Errorf("invalid token format")
	}
	expected := s.signature(value)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return "", fmt.Errorf("invalid token signature")
	}
	return value, nil
}

func (s *Signer) signature(value string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}
