package payment

import (
	"strings"
	"testing"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	key := "test-checksum-key"
	data := map[string]string{
		"orderCode":        "1748779200000123",
		"paymentRequestId": "pr_abc",
		"status":           "PAID",
	}

	sig := Sign(key, data)
	if sig == "" {
		t.Fatal("empty signature")
	}

	if !Verify(key, data, sig) {
		t.Fatal("signature should verify against the same data and key")
	}

	// Wire signatures may arrive uppercased.
	if !Verify(key, data, strings.ToUpper(sig)) {
		t.Fatal("verification should be case-insensitive on the hex digest")
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	key := "test-checksum-key"
	data := map[string]string{
		"orderCode":        "1748779200000123",
		"paymentRequestId": "pr_abc",
		"status":           "PAID",
	}
	sig := Sign(key, data)

	tampered := map[string]string{
		"orderCode":        "1748779200000123",
		"paymentRequestId": "pr_abc",
		"status":           "CANCELLED",
	}
	if Verify(key, tampered, sig) {
		t.Fatal("signature must not verify after the status was changed")
	}

	if Verify("other-key", data, sig) {
		t.Fatal("signature must not verify under a different key")
	}

	if Verify(key, data, "") {
		t.Fatal("empty signature must not verify")
	}
}

func TestSignIsOrderIndependent(t *testing.T) {
	key := "k"

	a := Sign(key, map[string]string{"b": "2", "a": "1", "c": "3"})
	b := Sign(key, map[string]string{"c": "3", "a": "1", "b": "2"})
	if a != b {
		t.Fatalf("signature depends on map iteration order: %s != %s", a, b)
	}
}

func TestSignatureData(t *testing.T) {
	d := WebhookData{
		OrderCode:        42,
		Status:           "PAID",
		PaymentRequestID: "pr_x",
	}

	got := signatureData(d)
	want := map[string]string{
		"orderCode":        "42",
		"paymentRequestId": "pr_x",
		"status":           "PAID",
	}

	if len(got) != len(want) {
		t.Fatalf("signatureData has %d keys, want %d", len(got), len(want))
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("signatureData[%q] = %q, want %q", k, got[k], v)
		}
	}
}
