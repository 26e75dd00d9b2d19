package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GatewaySettings is the single configuration document for the OVH SMS
// gateway. Secret fields are excluded from every JSON serialization.
type GatewaySettings struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key"`
	Enabled bool      `gorm:"default:false"`

	ApplicationKey    string `gorm:"type:varchar(64)"`
	ApplicationSecret string `gorm:"type:varchar(64)" json:"-"`
	ConsumerKey       string `gorm:"type:varchar(64)" json:"-"`

	Endpoint          string `gorm:"type:varchar(255);default:'https://eu.api.ovh.com/1.0'"`
	AutoDetectService bool   `gorm:"default:true"`
	ServiceName       string `gorm:"type:varchar(64)"`
	DefaultSender     string `gorm:"type:varchar(11)"`

	// When the gateway time endpoint is unreachable, signing with the
	// local clock risks rejection if the clock has drifted. Off by
	// default so the failure is explicit rather than intermittent.
	AllowLocalClock bool `gorm:"default:false"`

	// Document-submit notifications
	EnableSalesOrderSMS    bool   `gorm:"default:false"`
	SalesOrderTemplate     string `gorm:"type:text"`
	EnablePaymentSMS       bool   `gorm:"default:false"`
	PaymentTemplate        string `gorm:"type:text"`
	EnableDeliverySMS      bool   `gorm:"default:false"`
	DeliveryTemplate       string `gorm:"type:text"`
	EnablePurchaseOrderSMS bool   `gorm:"default:false"`
	PurchaseOrderTemplate  string `gorm:"type:text"`

	// Usage statistics
	TotalSmsSent     int `gorm:"default:0"`
	SmsSentToday     int `gorm:"default:0"`
	TotalCreditsUsed int `gorm:"default:0"`
	LastSmsSent      *time.Time
	LastStatsUpdate  *time.Time
	SmsBalance       float64 `gorm:"default:0"`
	LastBalanceCheck *time.Time
	LastTestResult   string `gorm:"type:text"`
	AvailableSenders string `gorm:"type:text"`

	gorm.Model
}

func (s *GatewaySettings) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}

// GatewayCredentials is the injected credential set for the signed
// client. It is resolved through Credentials() only, so there is a
// single place deciding what a usable configuration looks like.
type GatewayCredentials struct {
	ApplicationKey    string
	ApplicationSecret string
	ConsumerKey       string
	Endpoint          string
	AllowLocalClock   bool
}

// Credentials resolves the credential set, failing fast on missing
// fields instead of signing requests with empty strings.
func (s *GatewaySettings) Credentials() (GatewayCredentials, error) {
	if !s.Enabled {
		return GatewayCredentials{}, errors.New("OVH SMS integration is not enabled")
	}
	if s.ApplicationKey == "" {
		return GatewayCredentials{}, errors.New("application key is required")
	}
	if s.ApplicationSecret == "" {
		return GatewayCredentials{}, errors.New("application secret is required")
	}
	if s.ConsumerKey == "" {
		return GatewayCredentials{}, errors.New("consumer key is required")
	}

	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = "https://eu.api.ovh.com/1.0"
	}

	return GatewayCredentials{
		ApplicationKey:    s.ApplicationKey,
		ApplicationSecret: s.ApplicationSecret,
		ConsumerKey:       s.ConsumerKey,
		Endpoint:          endpoint,
		AllowLocalClock:   s.AllowLocalClock,
	}, nil
}

// Validate checks the settings document before save.
func (s *GatewaySettings) Validate() error {
	if !s.Enabled {
		return nil
	}
	if s.ApplicationKey == "" {
		return errors.New("application key is required")
	}
	if s.ApplicationSecret == "" {
		return errors.New("application secret is required")
	}
	if s.ConsumerKey == "" {
		return errors.New("consumer key is required")
	}
	if !s.AutoDetectService && s.ServiceName == "" {
		return errors.New("service name is required when auto-detection is disabled")
	}
	return nil
}
