package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// SignatureHeader is the HTTP header carrying the webhook HMAC
const SignatureHeader = "X-Shopify-Hmac-Sha256"

// ComputeSignature returns the base64-encoded HMAC-SHA256 of body under
// secret, the scheme upstream webhooks are signed with.
func ComputeSignature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a webhook signature against the raw request body.
// The comparison is constant-time. An empty secret never verifies.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := ComputeSignature(secret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
