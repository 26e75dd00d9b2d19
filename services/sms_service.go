// services/sms_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"ovhsms-backend/models"
	"ovhsms-backend/utils"
)

// SmsService loads the gateway settings document once per operation,
// builds the signed client from it and keeps the usage statistics on the
// settings row up to date.
type SmsService struct {
	db *gorm.DB
}

func NewSmsService(db *gorm.DB) *SmsService {
	return &SmsService{db: db}
}

// Settings fetches the singleton gateway settings row, creating a
// disabled default on first access.
func (s *SmsService) Settings() (*models.GatewaySettings, error) {
	var settings models.GatewaySettings
	err := s.db.First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = models.GatewaySettings{}
		if err := s.db.Create(&settings).Error; err != nil {
			return nil, err
		}
		return &settings, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// Client builds a signed client from the current settings.
func (s *SmsService) Client() (*OVHClient, *models.GatewaySettings, error) {
	settings, err := s.Settings()
	if err != nil {
		return nil, nil, err
	}
	client, err := NewOVHClient(settings)
	if err != nil {
		return nil, nil, err
	}
	return client, settings, nil
}

// SendOutcome is the per-send result envelope. Failures are reported
// here rather than raised, so batch callers count and continue.
type SendOutcome struct {
	Success     bool    `json:"success"`
	Message     string  `json:"message"`
	SenderUsed  string  `json:"sender_used,omitempty"`
	SmsID       int64   `json:"sms_id,omitempty"`
	CreditsUsed float64 `json:"credits_used,omitempty"`
}

func failedOutcome(format string, args ...interface{}) *SendOutcome {
	return &SendOutcome{Success: false, Message: fmt.Sprintf(format, args...)}
}

// SendSMS normalizes the receiver, submits one message and records the
// usage statistics.
func (s *SmsService) SendSMS(message, receiver, sender string) *SendOutcome {
	client, settings, err := s.Client()
	if err != nil {
		return failedOutcome("gateway unavailable: %v", err)
	}

	normalized, err := utils.NormalizePhoneNumber(receiver)
	if err != nil {
		return failedOutcome("%v", err)
	}

	service, err := client.ServiceName()
	if err != nil {
		return failedOutcome("could not resolve SMS service: %v", err)
	}

	result, err := client.SendMessage(service, message, []string{normalized}, sender, "")
	if err != nil {
		return failedOutcome("send failed: %v", err)
	}

	s.recordSendStats(settings, result.TotalCreditsRemoved)

	outcome := &SendOutcome{
		Success:     true,
		Message:     "SMS sent to " + normalized,
		SenderUsed:  result.SenderUsed,
		CreditsUsed: result.TotalCreditsRemoved,
	}
	if len(result.IDs) > 0 {
		outcome.SmsID = result.IDs[0]
	}
	return outcome
}

// recordSendStats bumps the counters on the settings row, resetting the
// daily counter on the first send of a new day. Stats failures are
// logged, not surfaced; they must never block a send.
func (s *SmsService) recordSendStats(settings *models.GatewaySettings, creditsUsed float64) {
	now := time.Now()

	updates := map[string]interface{}{
		"total_sms_sent":     gorm.Expr("total_sms_sent + 1"),
		"total_credits_used": gorm.Expr("total_credits_used + ?", int(creditsUsed)),
		"last_sms_sent":      now,
		"last_stats_update":  now,
	}

	if settings.LastStatsUpdate != nil && utils.SameDay(*settings.LastStatsUpdate, now) {
		updates["sms_sent_today"] = gorm.Expr("sms_sent_today + 1")
	} else {
		updates["sms_sent_today"] = 1
	}

	if err := s.db.Model(&models.GatewaySettings{}).
		Where("id = ?", settings.ID).
		Updates(updates).Error; err != nil {
		log.Printf("failed to update SMS stats: %v", err)
	}
}

// TestConnection runs the composite gateway test and stores the result
// on the settings document.
func (s *SmsService) TestConnection() (bool, string) {
	settings, err := s.Settings()
	if err != nil {
		return false, fmt.Sprintf("could not load settings: %v", err)
	}
	if !settings.Enabled {
		return false, "OVH SMS integration is not enabled"
	}

	client, err := NewOVHClient(settings)
	if err != nil {
		return false, fmt.Sprintf("gateway unavailable: %v", err)
	}

	success, message := client.TestConnection()

	result := message
	if success {
		result = "OK: " + message
	}
	if err := s.db.Model(settings).Update("last_test_result",
		fmt.Sprintf("%s (%s)", result, time.Now().Format("02/01/2006 15:04:05"))).Error; err != nil {
		log.Printf("failed to store test result: %v", err)
	}

	return success, message
}

// Balance fetches the remaining credits and caches them on the
// settings row.
func (s *SmsService) Balance() (float64, string, error) {
	client, settings, err := s.Client()
	if err != nil {
		return 0, "", err
	}

	service, err := client.ServiceName()
	if err != nil {
		return 0, "", err
	}

	balance, err := client.GetBalance(service)
	if err != nil {
		return 0, service, err
	}

	now := time.Now()
	if err := s.db.Model(settings).Updates(map[string]interface{}{
		"sms_balance":        balance,
		"last_balance_check": now,
	}).Error; err != nil {
		log.Printf("failed to cache balance: %v", err)
	}

	return balance, service, nil
}

// Senders lists the registered senders and caches them on the
// settings row.
func (s *SmsService) Senders() ([]string, error) {
	client, settings, err := s.Client()
	if err != nil {
		return nil, err
	}

	service, err := client.ServiceName()
	if err != nil {
		return nil, err
	}

	senders, err := client.ListSenders(service)
	if err != nil {
		return nil, err
	}

	cached := "none configured"
	if len(senders) > 0 {
		cached = ""
		for i, sender := range senders {
			if i > 0 {
				cached += ", "
			}
			cached += sender
		}
	}
	if err := s.db.Model(settings).Update("available_senders", cached).Error; err != nil {
		log.Printf("failed to cache senders: %v", err)
	}

	return senders, nil
}

// CreateSender registers a new sender on the resolved service.
func (s *SmsService) CreateSender(name, description string) error {
	client, _, err := s.Client()
	if err != nil {
		return err
	}

	service, err := client.ServiceName()
	if err != nil {
		return err
	}

	return client.CreateSender(service, name, description)
}

// ResetDailyCounter zeroes the settings daily counter; called by the
// daily scheduled job.
func (s *SmsService) ResetDailyCounter() error {
	return s.db.Model(&models.GatewaySettings{}).
		Where("1 = 1").
		Update("sms_sent_today", 0).Error
}
