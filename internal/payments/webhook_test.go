package payments

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"medibook-backend/internal/models"
	"medibook-backend/internal/validation"
)

func TestSignatureRoundTrip(t *testing.T) {
	payload := []byte(`{"reference":"pi_1","outcome":"succeeded"}`)

	sig := Sign("secret", payload)
	if !VerifySignature("secret", payload, sig) {
		t.Fatal("valid signature rejected")
	}
	if VerifySignature("secret", []byte(`{"reference":"pi_2","outcome":"succeeded"}`), sig) {
		t.Error("signature accepted for a different payload")
	}
	if VerifySignature("other-secret", payload, sig) {
		t.Error("signature accepted under a different secret")
	}
	if VerifySignature("secret", payload, "not-hex") {
		t.Error("malformed signature accepted")
	}
	if VerifySignature("secret", payload, "") {
		t.Error("empty signature accepted")
	}
	if VerifySignature("", payload, sig) {
		t.Error("empty secret accepted")
	}
}

func webhookHandler(secret string) (*Handler, *fakeLedger) {
	ledger := newFakeLedger()
	svc := NewService(ledger, NewSyntheticProvider(), "INR")
	log := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewHandler(svc, validation.New(), log, secret), ledger
}

func postWebhook(h *Handler, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	h.Webhook(rec, req)
	return rec
}

func TestWebhookAppliesSignedOutcome(t *testing.T) {
	h, ledger := webhookHandler("secret")
	ledger.appointments["a1"] = &models.Appointment{
		ID:               "a1",
		PaymentReference: "pi_1",
		PaymentStatus:    models.PaymentStatusPending,
	}

	body := []byte(`{"reference":"pi_1","outcome":"succeeded"}`)
	rec := postWebhook(h, body, Sign("secret", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if got := ledger.appointments["a1"].PaymentStatus; got != models.PaymentStatusPaid {
		t.Errorf("paymentStatus = %q, want paid", got)
	}
}

func TestWebhookRejectsInvalidSignature(t *testing.T) {
	h, ledger := webhookHandler("secret")
	ledger.appointments["a1"] = &models.Appointment{
		ID:               "a1",
		PaymentReference: "pi_1",
		PaymentStatus:    models.PaymentStatusPending,
	}

	body := []byte(`{"reference":"pi_1","outcome":"succeeded"}`)
	for name, sig := range map[string]string{
		"missing":      "",
		"wrong secret": Sign("other-secret", body),
		"tampered":     Sign("secret", []byte(`{"reference":"pi_1","outcome":"failed"}`)),
	} {
		rec := postWebhook(h, body, sig)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s signature: status = %d, want 400", name, rec.Code)
		}
	}
	if got := ledger.appointments["a1"].PaymentStatus; got != models.PaymentStatusPending {
		t.Errorf("paymentStatus = %q, want pending untouched by unsigned events", got)
	}
}

func TestWebhookUnconfiguredSecret(t *testing.T) {
	h, _ := webhookHandler("")
	body := []byte(`{"reference":"pi_1","outcome":"succeeded"}`)
	rec := postWebhook(h, body, Sign("secret", body))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 when no webhook secret is configured", rec.Code)
	}
}

func TestWebhookUnknownReferenceAcked(t *testing.T) {
	h, _ := webhookHandler("secret")
	body := []byte(`{"reference":"pi_missing","outcome":"failed"}`)
	rec := postWebhook(h, body, Sign("secret", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 ack for unknown references", rec.Code)
	}
}
