package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HMACAuthorizationService implements ports.AuthorizationService. Company
// records store only the HMAC-SHA256 digest of their pre-shared secret; a
// transfer's identity step must present the matching plaintext secret.
type HMACAuthorizationService struct {
	key []byte
}

// NewHMACAuthorizationService creates an authorization service keyed with the
// server-side HMAC key.
func NewHMACAuthorizationService(key string) *HMACAuthorizationService {
	return &HMACAuthorizationService{key: []byte(key)}
}

// Digest computes the hex-encoded HMAC-SHA256 digest of a company secret.
func (s *HMACAuthorizationService) Digest(secret string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(secret))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares a candidate secret against a stored digest in constant time.
func (s *HMACAuthorizationService) Verify(secret string, storedDigest string) bool {
	candidate := s.Digest(secret)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(storedDigest)) == 1
}
