package shopify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"id":123,"email":"buyer@example.com"}`)
	signature := ComputeSignature(secret, body)

	assert.True(t, VerifySignature(secret, body, signature))

	t.Run("rejects tampered body", func(t *testing.T) {
		assert.False(t, VerifySignature(secret, []byte(`{"id":124}`), signature))
	})

	t.Run("rejects wrong secret", func(t *testing.T) {
		assert.False(t, VerifySignature("other", body, signature))
	})

	t.Run("rejects empty secret or signature", func(t *testing.T) {
		assert.False(t, VerifySignature("", body, signature))
		assert.False(t, VerifySignature(secret, body, ""))
	})
}
