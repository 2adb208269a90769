package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Outcome events are authenticated with an HMAC-SHA256 over the raw body,
// keyed by the shared webhook secret. Events failing the check are dropped
// before they can touch the ledger.

func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func VerifySignature(secret string, payload []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), provided)
}
