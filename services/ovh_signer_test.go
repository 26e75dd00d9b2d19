package services

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	"ovhsms-backend/models"
)

func testCredentials() models.GatewayCredentials {
	return models.GatewayCredentials{
		ApplicationKey:    "app-key",
		ApplicationSecret: "app-secret",
		ConsumerKey:       "consumer-key",
		Endpoint:          "https://eu.api.ovh.com/1.0",
	}
}

func fixedClock(unix int64) func() time.Time {
	return func() time.Time { return time.Unix(unix, 0) }
}

func TestNewSignerFailsFast(t *testing.T) {
	t.Parallel()

	noSecret := testCredentials()
	noSecret.ApplicationSecret = ""
	if _, err := NewSigner(noSecret); err == nil {
		t.Error("expected error for missing application secret")
	}

	noConsumer := testCredentials()
	noConsumer.ConsumerKey = ""
	if _, err := NewSigner(noConsumer); err == nil {
		t.Error("expected error for missing consumer key")
	}

	var confErr *ConfigurationError
	_, err := NewSigner(models.GatewayCredentials{})
	if !errors.As(err, &confErr) {
		t.Errorf("expected a ConfigurationError, got %T", err)
	}
}

func TestSignComposition(t *testing.T) {
	t.Parallel()

	signer, err := NewSigner(testCredentials())
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	signer.now = fixedClock(1700000000)

	url := "https://eu.api.ovh.com/1.0/sms/sms-ab1234-1/jobs"
	body := `{"message":"test"}`
	sig := signer.Sign("POST", url, body)

	if sig.Timestamp != "1700000000" {
		t.Errorf("Timestamp = %q, want 1700000000", sig.Timestamp)
	}

	preHash := "app-secret+consumer-key+POST+" + url + "+" + body + "+1700000000"
	digest := sha1.Sum([]byte(preHash))
	want := "$1$" + hex.EncodeToString(digest[:])
	if sig.Signature != want {
		t.Errorf("Signature = %q, want %q", sig.Signature, want)
	}
}

func TestSignShape(t *testing.T) {
	t.Parallel()

	signer, err := NewSigner(testCredentials())
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	signer.now = fixedClock(1700000000)

	sig := signer.Sign("GET", "https://eu.api.ovh.com/1.0/me", "")
	if !strings.HasPrefix(sig.Signature, "$1$") {
		t.Errorf("signature %q missing $1$ prefix", sig.Signature)
	}
	if len(sig.Signature) != 3+40 {
		t.Errorf("signature length = %d, want 43", len(sig.Signature))
	}

	other := signer.Sign("GET", "https://eu.api.ovh.com/1.0/sms", "")
	if other.Signature == sig.Signature {
		t.Error("different URLs must produce different signatures")
	}
}

func TestSignClockOffset(t *testing.T) {
	t.Parallel()

	signer, err := NewSigner(testCredentials())
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	signer.now = fixedClock(1700000000)
	signer.SetClockOffset(-7 * time.Second)

	sig := signer.Sign("GET", "https://eu.api.ovh.com/1.0/me", "")
	if sig.Timestamp != "1699999993" {
		t.Errorf("Timestamp = %q, want drift-corrected 1699999993", sig.Timestamp)
	}
}
