package github

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// signaturePrefix is the scheme GitHub prepends to hex HMAC digests
const signaturePrefix = "sha256="

// ValidSignature verifies the x-hub-signature-256 header against the exact
// raw request bytes. With no secret configured verification always passes
// (open mode for local use); exposed deployments must configure a secret.
// A configured secret with a missing header always fails.
func ValidSignature(secret string, payload []byte, signatureHeader string) bool {
	if secret == "" {
		return true
	}

	if signatureHeader == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := signaturePrefix + hex.EncodeToString(mac.Sum(nil))

	// Length mismatch can be rejected up front; it leaks nothing the
	// header length does not already reveal.
	if len(expected) != len(signatureHeader) {
		return false
	}

	return hmac.Equal([]byte(expected), []byte(signatureHeader))
}
