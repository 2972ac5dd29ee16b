package pay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign returns the hex HMAC-SHA256 of body under key. Outgoing requests
// carry it in the SignedHash header; the processor signs webhook bodies
// the same way.
func Sign(body, key []byte) string {
	h := hmac.New(sha256.New, key)
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// VerifySignature checks a received signature against the expected HMAC
// of body in constant time.
func VerifySignature(body []byte, key []byte, received string) bool {
	expected := Sign(body, key)
	return hmac.Equal([]byte(received), []byte(expected))
}
