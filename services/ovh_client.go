package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ovhsms-backend/models"
	"ovhsms-backend/utils"
)

// ErrNoServiceFound is returned when the account has no SMS service and
// auto-detection cannot resolve one.
var ErrNoServiceFound = errors.New("no SMS service found on the account")

// Names the client tries to auto-provision, in order, when the account
// has no usable sender at all.
var fallbackSenderNames = []string{"OVHSMS", "Info", "Notify", "SMS"}

const (
	gatewayTimeout     = 30 * time.Second
	defaultMaxAttempts = 3
	defaultBackoff     = 500 * time.Millisecond
)

// OVHClient talks to the OVH SMS REST API. Every request is signed via
// the Signer and carries the application, consumer, signature and
// timestamp headers.
type OVHClient struct {
	creds  models.GatewayCredentials
	signer *Signer
	http   *http.Client

	autoDetect    bool
	serviceName   string
	defaultSender string

	cachedService string

	// transport-failure retry knobs
	maxAttempts  int
	retryBackoff time.Duration
}

// NewOVHClient builds a client from the settings document. The gateway
// clock is synced once here; when the time endpoint is unreachable the
// local clock is only used if the settings explicitly allow it.
func NewOVHClient(settings *models.GatewaySettings) (*OVHClient, error) {
	creds, err := settings.Credentials()
	if err != nil {
		return nil, &ConfigurationError{Reason: err.Error()}
	}

	signer, err := NewSigner(creds)
	if err != nil {
		return nil, err
	}

	c := &OVHClient{
		creds:         creds,
		signer:        signer,
		http:          &http.Client{Timeout: gatewayTimeout},
		autoDetect:    settings.AutoDetectService,
		serviceName:   settings.ServiceName,
		defaultSender: settings.DefaultSender,
		maxAttempts:   defaultMaxAttempts,
		retryBackoff:  defaultBackoff,
	}

	if err := c.syncClock(); err != nil {
		if !creds.AllowLocalClock {
			return nil, &ConfigurationError{Reason: fmt.Sprintf(
				"gateway time sync failed and local clock fallback is disabled: %v", err)}
		}
		log.Printf("OVH time sync failed, falling back to local clock: %v", err)
	}

	return c, nil
}

// syncClock fetches the gateway's clock and records the drift so signed
// timestamps stay inside the API's skew tolerance.
func (c *OVHClient) syncClock() error {
	resp, err := c.http.Get(c.creds.Endpoint + "/auth/time")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("time endpoint returned HTTP %d", resp.StatusCode)
	}

	remote, err := strconv.ParseInt(strings.TrimSpace(string(body)), 10, 64)
	if err != nil {
		return fmt.Errorf("unexpected time endpoint body %q", string(body))
	}

	c.signer.SetClockOffset(time.Unix(remote, 0).Sub(time.Now()))
	return nil
}

// do executes one signed request. Transport failures are retried with a
// bounded, jittered backoff; HTTP-level errors are not, since the
// gateway has already evaluated the signed request.
func (c *OVHClient) do(method, path string, payload interface{}, out interface{}) error {
	url := c.creds.Endpoint + path

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(attempt-1) * c.retryBackoff
			backoff += time.Duration(rand.Int63n(int64(c.retryBackoff)))
			time.Sleep(backoff)
		}

		sig := c.signer.Sign(method, url, string(body))

		req, err := http.NewRequest(method, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("X-Ovh-Application", c.creds.ApplicationKey)
		req.Header.Set("X-Ovh-Consumer", c.creds.ConsumerKey)
		req.Header.Set("X-Ovh-Signature", sig.Signature)
		req.Header.Set("X-Ovh-Timestamp", sig.Timestamp)
		if method == http.MethodPost {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = &TransportError{Err: err}
			continue
		}

		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = &TransportError{Err: readErr}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return &GatewayError{
				StatusCode: resp.StatusCode,
				Message:    parseGatewayMessage(data),
			}
		}

		if out != nil && len(data) > 0 {
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("failed to decode gateway response: %w body=%q", err, string(data))
			}
		}
		return nil
	}

	return lastErr
}

func parseGatewayMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(body))
}

// DiscoverServices lists the SMS services on the account.
func (c *OVHClient) DiscoverServices() ([]string, error) {
	var services []string
	if err := c.do(http.MethodGet, "/sms", nil, &services); err != nil {
		return nil, err
	}
	return services, nil
}

// ServiceDetails is the subset of the service record this system reads.
type ServiceDetails struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	CreditsLeft float64 `json:"creditsLeft"`
}

func (c *OVHClient) GetServiceDetails(service string) (*ServiceDetails, error) {
	var details ServiceDetails
	if err := c.do(http.MethodGet, "/sms/"+service, nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// ServiceName resolves the service to operate on: the configured name
// when auto-detection is off, otherwise the first discovered service.
// The discovery result is cached for the lifetime of the client.
func (c *OVHClient) ServiceName() (string, error) {
	if !c.autoDetect && c.serviceName != "" {
		return c.serviceName, nil
	}
	if c.cachedService != "" {
		return c.cachedService, nil
	}

	services, err := c.DiscoverServices()
	if err != nil {
		return "", err
	}
	if len(services) == 0 {
		return "", ErrNoServiceFound
	}

	c.cachedService = services[0]
	return c.cachedService, nil
}

func (c *OVHClient) ListSenders(service string) ([]string, error) {
	var senders []string
	if err := c.do(http.MethodGet, "/sms/"+service+"/senders", nil, &senders); err != nil {
		return nil, err
	}
	return senders, nil
}

// CreateSender registers a new sender name on the service. The name is
// validated client-side to avoid a wasted round trip.
func (c *OVHClient) CreateSender(service, sender, description string) error {
	if err := utils.ValidateSenderName(sender); err != nil {
		return &ConfigurationError{Reason: err.Error()}
	}
	if description == "" {
		description = "SMS gateway sender"
	}

	payload := map[string]string{
		"sender":      sender,
		"description": description,
	}
	return c.do(http.MethodPost, "/sms/"+service+"/senders", payload, nil)
}

// EnsureSender makes sure a sender is usable, creating it when absent.
// Returns whether a creation happened.
func (c *OVHClient) EnsureSender(service, sender string) (bool, error) {
	senders, err := c.ListSenders(service)
	if err != nil {
		return false, err
	}
	for _, s := range senders {
		if s == sender {
			return false, nil
		}
	}
	if err := c.CreateSender(service, sender, ""); err != nil {
		return false, err
	}
	return true, nil
}

// ResolveSender applies the sender-resolution policy: the configured
// default when valid or creatable, else the first registered sender,
// else an auto-provisioned fallback name, else ErrNoSenderAvailable.
func (c *OVHClient) ResolveSender(service string) (string, error) {
	if c.defaultSender != "" {
		if _, err := c.EnsureSender(service, c.defaultSender); err == nil {
			return c.defaultSender, nil
		} else {
			log.Printf("default sender %q unusable, trying alternatives: %v", c.defaultSender, err)
		}
	}

	senders, err := c.ListSenders(service)
	if err == nil && len(senders) > 0 {
		return senders[0], nil
	}

	for _, name := range fallbackSenderNames {
		if err := c.CreateSender(service, name, ""); err == nil {
			return name, nil
		}
	}

	return "", ErrNoSenderAvailable
}

// SendResult is the gateway's answer to a job submission.
type SendResult struct {
	IDs                 []int64  `json:"ids"`
	TotalCreditsRemoved float64  `json:"totalCreditsRemoved"`
	ValidReceivers      []string `json:"validReceivers"`
	InvalidReceivers    []string `json:"invalidReceivers"`

	SenderUsed string `json:"-"`
}

// SendMessage submits one SMS job. An empty sender triggers the
// sender-resolution policy; a provided one is ensured first and falls
// back to the policy when unusable.
func (c *OVHClient) SendMessage(service, message string, receivers []string, sender, priority string) (*SendResult, error) {
	if len(receivers) == 0 {
		return nil, &ConfigurationError{Reason: "at least one receiver is required"}
	}
	if priority == "" {
		priority = "high"
	}

	if sender == "" {
		resolved, err := c.ResolveSender(service)
		if err != nil {
			return nil, err
		}
		sender = resolved
	} else if _, err := c.EnsureSender(service, sender); err != nil {
		log.Printf("sender %q unavailable, falling back to resolution policy: %v", sender, err)
		resolved, rerr := c.ResolveSender(service)
		if rerr != nil {
			return nil, rerr
		}
		sender = resolved
	}

	payload := map[string]interface{}{
		"message":      message,
		"receivers":    receivers,
		"sender":       sender,
		"noStopClause": false,
		"priority":     priority,
	}

	var result SendResult
	if err := c.do(http.MethodPost, "/sms/"+service+"/jobs", payload, &result); err != nil {
		return nil, err
	}
	result.SenderUsed = sender
	return &result, nil
}

// GetBalance returns the credits left on a service.
func (c *OVHClient) GetBalance(service string) (float64, error) {
	details, err := c.GetServiceDetails(service)
	if err != nil {
		return 0, err
	}
	return details.CreditsLeft, nil
}

// Account is the subset of the /me record this system reads.
type Account struct {
	Nichandle string `json:"nichandle"`
	FirstName string `json:"firstname"`
	Name      string `json:"name"`
}

func (c *OVHClient) GetAccount() (*Account, error) {
	var account Account
	if err := c.do(http.MethodGet, "/me", nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// TestConnection checks account identity and service discovery, then
// best-effort service details and sender listing. Partial failures of
// the best-effort calls do not fail the overall test.
func (c *OVHClient) TestConnection() (bool, string) {
	account, err := c.GetAccount()
	if err != nil {
		return false, fmt.Sprintf("Connection failed: %v", err)
	}

	services, err := c.DiscoverServices()
	if err != nil {
		return false, fmt.Sprintf("Account OK (%s) but service discovery failed: %v", account.Nichandle, err)
	}
	if len(services) == 0 {
		return false, fmt.Sprintf("Connection OK (account %s) but no SMS service found", account.Nichandle)
	}

	lines := []string{
		"Connection successful!",
		"Account: " + account.Nichandle,
		"Service: " + services[0],
	}

	if details, err := c.GetServiceDetails(services[0]); err == nil {
		lines = append(lines, fmt.Sprintf("Credits: %.2f", details.CreditsLeft))
	} else {
		lines = append(lines, "Credits: unavailable")
	}

	if senders, err := c.ListSenders(services[0]); err == nil && len(senders) > 0 {
		max := len(senders)
		if max > 3 {
			max = 3
		}
		lines = append(lines, "Senders: "+strings.Join(senders[:max], ", "))
	} else {
		lines = append(lines, "Senders: none configured")
	}

	return true, strings.Join(lines, "\n")
}
