package services

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ovhsms-backend/models"
)

func testSettings(endpoint string) *models.GatewaySettings {
	return &models.GatewaySettings{
		Enabled:           true,
		ApplicationKey:    "app-key",
		ApplicationSecret: "app-secret",
		ConsumerKey:       "consumer-key",
		Endpoint:          endpoint,
		AutoDetectService: true,
		AllowLocalClock:   true,
	}
}

// gatewayMux builds a fake OVH API with a working time endpoint.
func gatewayMux(t *testing.T) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/time", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("1700000000"))
	})
	return mux
}

func newTestClient(t *testing.T, mux *http.ServeMux) (*OVHClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := NewOVHClient(testSettings(server.URL))
	if err != nil {
		t.Fatalf("NewOVHClient: %v", err)
	}
	client.maxAttempts = 2
	client.retryBackoff = time.Millisecond
	return client, server
}

func TestClientSignsRequests(t *testing.T) {
	t.Parallel()

	mux := gatewayMux(t)

	var seen http.Header
	var seenURL string
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
		seenURL = "http://" + r.Host + r.URL.Path
		json.NewEncoder(w).Encode(map[string]string{"nichandle": "xx11111-ovh"})
	})

	client, _ := newTestClient(t, mux)

	account, err := client.GetAccount()
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if account.Nichandle != "xx11111-ovh" {
		t.Errorf("Nichandle = %q", account.Nichandle)
	}

	if seen.Get("X-Ovh-Application") != "app-key" {
		t.Errorf("X-Ovh-Application = %q", seen.Get("X-Ovh-Application"))
	}
	if seen.Get("X-Ovh-Consumer") != "consumer-key" {
		t.Errorf("X-Ovh-Consumer = %q", seen.Get("X-Ovh-Consumer"))
	}

	timestamp := seen.Get("X-Ovh-Timestamp")
	if timestamp == "" {
		t.Fatal("missing X-Ovh-Timestamp header")
	}

	preHash := "app-secret+consumer-key+GET+" + seenURL + "++" + timestamp
	digest := sha1.Sum([]byte(preHash))
	want := "$1$" + hex.EncodeToString(digest[:])
	if got := seen.Get("X-Ovh-Signature"); got != want {
		t.Errorf("X-Ovh-Signature = %q, want %q", got, want)
	}
}

func TestClientGatewayError(t *testing.T) {
	t.Parallel()

	mux := gatewayMux(t)
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"Invalid signature"}`))
	})

	client, _ := newTestClient(t, mux)

	_, err := client.GetAccount()
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected GatewayError, got %T: %v", err, err)
	}
	if gwErr.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d, want 403", gwErr.StatusCode)
	}
	if gwErr.Message != "Invalid signature" {
		t.Errorf("Message = %q", gwErr.Message)
	}
}

func TestClientRetriesTransportFailures(t *testing.T) {
	t.Parallel()

	mux := gatewayMux(t)
	client, server := newTestClient(t, mux)

	// Kill the server so every attempt fails at the transport level.
	server.Close()

	_, err := client.GetAccount()
	var trErr *TransportError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected TransportError after retries, got %T: %v", err, err)
	}
}

func TestClientClockSyncFailureIsFatalWithoutFallback(t *testing.T) {
	t.Parallel()

	dead := httptest.NewServer(http.NewServeMux())
	dead.Close()

	settings := testSettings(dead.URL)
	settings.AllowLocalClock = false

	_, err := NewOVHClient(settings)
	var confErr *ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("expected ConfigurationError, got %T: %v", err, err)
	}
}

func TestClientClockSyncFailureToleratedWithFallback(t *testing.T) {
	t.Parallel()

	dead := httptest.NewServer(http.NewServeMux())
	dead.Close()

	settings := testSettings(dead.URL)
	settings.AllowLocalClock = true

	if _, err := NewOVHClient(settings); err != nil {
		t.Fatalf("expected local clock fallback to succeed, got %v", err)
	}
}

func TestServiceNameAutoDetect(t *testing.T) {
	t.Parallel()

	mux := gatewayMux(t)
	calls := 0
	mux.HandleFunc("/sms", func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode([]string{"sms-ab1234-1", "sms-ab1234-2"})
	})

	client, _ := newTestClient(t, mux)

	name, err := client.ServiceName()
	if err != nil {
		t.Fatalf("ServiceName: %v", err)
	}
	if name != "sms-ab1234-1" {
		t.Errorf("ServiceName = %q, want first discovered", name)
	}

	if _, err := client.ServiceName(); err != nil {
		t.Fatalf("second ServiceName: %v", err)
	}
	if calls != 1 {
		t.Errorf("discovery calls = %d, want 1 (cached)", calls)
	}
}

func TestServiceNameNoneFound(t *testing.T) {
	t.Parallel()

	mux := gatewayMux(t)
	mux.HandleFunc("/sms", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	})

	client, _ := newTestClient(t, mux)

	if _, err := client.ServiceName(); !errors.Is(err, ErrNoServiceFound) {
		t.Errorf("expected ErrNoServiceFound, got %v", err)
	}
}

func TestServiceNameExplicitConfig(t *testing.T) {
	t.Parallel()

	mux := gatewayMux(t)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	settings := testSettings(server.URL)
	settings.AutoDetectService = false
	settings.ServiceName = "sms-configured-1"

	client, err := NewOVHClient(settings)
	if err != nil {
		t.Fatalf("NewOVHClient: %v", err)
	}

	name, err := client.ServiceName()
	if err != nil {
		t.Fatalf("ServiceName: %v", err)
	}
	if name != "sms-configured-1" {
		t.Errorf("ServiceName = %q, want configured value without discovery", name)
	}
}

func TestCreateSenderRejectsInvalidNames(t *testing.T) {
	t.Parallel()

	mux := gatewayMux(t)
	client, _ := newTestClient(t, mux)

	var confErr *ConfigurationError
	err := client.CreateSender("sms-ab1234-1", "Pas Valide!", "")
	if !errors.As(err, &confErr) {
		t.Errorf("expected client-side ConfigurationError, got %T: %v", err, err)
	}
}

func TestResolveSenderPrefersDefault(t *testing.T) {
	t.Parallel()

	mux := gatewayMux(t)
	mux.HandleFunc("/sms/sms-ab1234-1/senders", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]string{"MyShop", "Other"})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	settings := testSettings(server.URL)
	settings.DefaultSender = "MyShop"

	client, err := NewOVHClient(settings)
	if err != nil {
		t.Fatalf("NewOVHClient: %v", err)
	}

	sender, err := client.ResolveSender("sms-ab1234-1")
	if err != nil {
		t.Fatalf("ResolveSender: %v", err)
	}
	if sender != "MyShop" {
		t.Errorf("ResolveSender = %q, want the configured default", sender)
	}
}

func TestResolveSenderFallsBackToFirstRegistered(t *testing.T) {
	t.Parallel()

	mux := gatewayMux(t)
	mux.HandleFunc("/sms/sms-ab1234-1/senders", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]string{"ExistingOne"})
	})

	client, _ := newTestClient(t, mux)

	sender, err := client.ResolveSender("sms-ab1234-1")
	if err != nil {
		t.Fatalf("ResolveSender: %v", err)
	}
	if sender != "ExistingOne" {
		t.Errorf("ResolveSender = %q, want first registered sender", sender)
	}
}

func TestSendMessage(t *testing.T) {
	t.Parallel()

	mux := gatewayMux(t)
	mux.HandleFunc("/sms/sms-ab1234-1/senders", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]string{"MyShop"})
	})

	var payload map[string]interface{}
	mux.HandleFunc("/sms/sms-ab1234-1/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("jobs endpoint called with %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decoding job payload: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"ids":                 []int64{123456},
			"totalCreditsRemoved": 1.0,
			"validReceivers":      []string{"+33612345678"},
			"invalidReceivers":    []string{},
		})
	})

	client, _ := newTestClient(t, mux)

	result, err := client.SendMessage("sms-ab1234-1", "Bonjour", []string{"+33612345678"}, "MyShop", "")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if result.SenderUsed != "MyShop" {
		t.Errorf("SenderUsed = %q", result.SenderUsed)
	}
	if result.TotalCreditsRemoved != 1.0 {
		t.Errorf("TotalCreditsRemoved = %v", result.TotalCreditsRemoved)
	}
	if len(result.IDs) != 1 || result.IDs[0] != 123456 {
		t.Errorf("IDs = %v", result.IDs)
	}

	if payload["message"] != "Bonjour" {
		t.Errorf("payload message = %v", payload["message"])
	}
	if payload["priority"] != "high" {
		t.Errorf("payload priority = %v, want defaulted to high", payload["priority"])
	}
	if payload["noStopClause"] != false {
		t.Errorf("payload noStopClause = %v, want false", payload["noStopClause"])
	}
}

func TestSendMessageRequiresReceivers(t *testing.T) {
	t.Parallel()

	mux := gatewayMux(t)
	client, _ := newTestClient(t, mux)

	var confErr *ConfigurationError
	_, err := client.SendMessage("sms-ab1234-1", "Bonjour", nil, "MyShop", "")
	if !errors.As(err, &confErr) {
		t.Errorf("expected ConfigurationError, got %T: %v", err, err)
	}
}

func TestTestConnection(t *testing.T) {
	t.Parallel()

	mux := gatewayMux(t)
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"nichandle": "xx11111-ovh"})
	})
	mux.HandleFunc("/sms", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]string{"sms-ab1234-1"})
	})
	mux.HandleFunc("/sms/sms-ab1234-1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"name": "sms-ab1234-1", "creditsLeft": 42.5})
	})
	mux.HandleFunc("/sms/sms-ab1234-1/senders", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]string{"MyShop"})
	})

	client, _ := newTestClient(t, mux)

	ok, message := client.TestConnection()
	if !ok {
		t.Fatalf("TestConnection failed: %s", message)
	}
	for _, fragment := range []string{"xx11111-ovh", "sms-ab1234-1", "42.50", "MyShop"} {
		if !strings.Contains(message, fragment) {
			t.Errorf("message %q missing %q", message, fragment)
		}
	}
}

func TestTestConnectionNoService(t *testing.T) {
	t.Parallel()

	mux := gatewayMux(t)
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"nichandle": "xx11111-ovh"})
	})
	mux.HandleFunc("/sms", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	})

	client, _ := newTestClient(t, mux)

	ok, message := client.TestConnection()
	if ok {
		t.Fatal("expected TestConnection to fail with no SMS service")
	}
	if !strings.Contains(message, "no SMS service found") {
		t.Errorf("message = %q, want mention of missing service", message)
	}
}
