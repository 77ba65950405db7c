package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func signOrderBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyOrderSignature(t *testing.T) {
	t.Setenv("ORDERS_WEBHOOK_SECRET", "test-secret")

	body := []byte(`{"type":"order.completed"}`)

	r := httptest.NewRequest("POST", "/api/v1/webhooks/orders", nil)
	r.Header.Set("X-Order-Signature", signOrderBody("test-secret", body))
	assert.True(t, verifyOrderSignature(r, body))

	r.Header.Set("X-Order-Signature", signOrderBody("wrong-secret", body))
	assert.False(t, verifyOrderSignature(r, body))

	r.Header.Del("X-Order-Signature")
	assert.False(t, verifyOrderSignature(r, body))

	// Tampered body fails against a valid signature.
	r.Header.Set("X-Order-Signature", signOrderBody("test-secret", body))
	assert.False(t, verifyOrderSignature(r, []byte(`{"type":"order.refunded"}`)))
}

func TestVerifyOrderSignatureNoSecretConfigured(t *testing.T) {
	t.Setenv("ORDERS_WEBHOOK_SECRET", "")

	r := httptest.NewRequest("POST", "/api/v1/webhooks/orders", nil)
	assert.True(t, verifyOrderSignature(r, []byte(`{}`)))
}

func TestVerifyClerkSignature(t *testing.T) {
	t.Setenv("CLERK_WEBHOOK_SECRET", "clerk-test-secret")

	body := []byte(`{"type":"user.created","data":{}}`)
	msgID := "msg_123"
	timestamp := "1756700000"

	mac := hmac.New(sha256.New, []byte("clerk-test-secret"))
	mac.Write([]byte(fmt.Sprintf("%s.%s.%s", msgID, timestamp, body)))
	sig := hex.EncodeToString(mac.Sum(nil))

	r := httptest.NewRequest("POST", "/api/v1/webhooks/clerk", nil)
	r.Header.Set("svix-id", msgID)
	r.Header.Set("svix-timestamp", timestamp)
	r.Header.Set("svix-signature", "v1,"+sig)
	assert.True(t, verifyClerkSignature(r, body))

	r.Header.Set("svix-signature", "v1,deadbeef")
	assert.False(t, verifyClerkSignature(r, body))
}
