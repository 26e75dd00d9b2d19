package services

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"time"

	"ovhsms-backend/models"
)

// SignatureData carries the computed request signature and the
// timestamp it was computed for.
type SignatureData struct {
	Signature string
	Timestamp string
}

// Signer computes the OVH request signature: "$1$" followed by the hex
// SHA-1 of secret+"+"+consumerKey+"+"+method+"+"+url+"+"+body+"+"+timestamp.
type Signer struct {
	appSecret   string
	consumerKey string

	// offset between the gateway clock and the local clock, set after a
	// successful time sync
	clockOffset time.Duration

	now func() time.Time
}

// NewSigner builds a signer from resolved credentials. Missing secret or
// consumer key is a hard precondition failure; requests are never signed
// with empty strings.
func NewSigner(creds models.GatewayCredentials) (*Signer, error) {
	if creds.ApplicationSecret == "" {
		return nil, &ConfigurationError{Reason: "application secret is required for signing"}
	}
	if creds.ConsumerKey == "" {
		return nil, &ConfigurationError{Reason: "consumer key is required for signing"}
	}
	return &Signer{
		appSecret:   creds.ApplicationSecret,
		consumerKey: creds.ConsumerKey,
		now:         time.Now,
	}, nil
}

// SetClockOffset adjusts signing timestamps by the drift between the
// gateway clock and the local clock.
func (s *Signer) SetClockOffset(offset time.Duration) {
	s.clockOffset = offset
}

// Sign computes the signature for one request.
func (s *Signer) Sign(method, url, body string) SignatureData {
	timestamp := strconv.FormatInt(s.now().Add(s.clockOffset).Unix(), 10)

	preHash := s.appSecret + "+" + s.consumerKey + "+" + method + "+" + url + "+" + body + "+" + timestamp
	digest := sha1.Sum([]byte(preHash))

	return SignatureData{
		Signature: "$1$" + hex.EncodeToString(digest[:]),
		Timestamp: timestamp,
	}
}
