package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReminderPolicy is the configuration document governing which calendar
// events get an SMS reminder, at which lead times and to whom.
type ReminderPolicy struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key"`
	Enabled bool      `gorm:"default:false"`

	// Comma-separated list of event types to watch, matched against the
	// structured description type first, then against the subject.
	EventTypeFilter string `gorm:"type:varchar(255)"`

	ReminderHoursBefore     float64 `gorm:"default:24"`
	EnableMultipleReminders bool    `gorm:"default:false"`
	ReminderTimes           string  `gorm:"type:varchar(255)"` // e.g. "24,2,0.5"

	MinimumEventDuration int `gorm:"default:0"` // minutes, 0 = no filter

	BusinessHoursOnly bool   `gorm:"default:false"`
	BusinessStartTime string `gorm:"type:varchar(5)"` // "08:00"
	BusinessEndTime   string `gorm:"type:varchar(5)"` // "19:00"
	ExcludeWeekends   bool   `gorm:"default:false"`

	SkipPastEvents   bool `gorm:"default:true"`
	SkipAllDayEvents bool `gorm:"default:true"`

	SendToCustomer bool `gorm:"default:true"`
	SendToEmployee bool `gorm:"default:false"`

	DefaultTemplate  string `gorm:"type:text"`
	CustomerTemplate string `gorm:"type:text"`
	EmployeeTemplate string `gorm:"type:text"`

	MaxRemindersPerRun int `gorm:"default:50"` // 0 = unlimited

	// Run statistics
	TotalRemindersSent   int `gorm:"default:0"`
	RemindersSentToday   int `gorm:"default:0"`
	FailedRemindersCount int `gorm:"default:0"`
	LastReminderSent     *time.Time
	LastCheckTime        *time.Time

	gorm.Model
}

func (p *ReminderPolicy) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

// Validate checks the policy document before save.
func (p *ReminderPolicy) Validate() error {
	if !p.Enabled {
		return nil
	}
	if p.EventTypeFilter == "" {
		return errors.New("event type filter is required")
	}
	if p.ReminderHoursBefore <= 0 {
		return errors.New("hours before event must be positive")
	}
	if p.EnableMultipleReminders {
		if p.ReminderTimes == "" {
			return errors.New("reminder times are required when multiple reminders are enabled")
		}
		times, err := parseReminderTimes(p.ReminderTimes)
		if err != nil {
			return fmt.Errorf("invalid reminder times format (expected e.g. 24,2,0.5): %w", err)
		}
		for _, t := range times {
			if t <= 0 {
				return errors.New("all reminder times must be positive")
			}
		}
	}
	return nil
}

// GetReminderTimes returns the configured lead times in hours, in
// source order. A malformed list never aborts selection; it falls back
// to the single hours-before value.
func (p *ReminderPolicy) GetReminderTimes() []float64 {
	if p.EnableMultipleReminders && p.ReminderTimes != "" {
		times, err := parseReminderTimes(p.ReminderTimes)
		if err == nil {
			return times
		}
	}
	return []float64{p.ReminderHoursBefore}
}

func parseReminderTimes(raw string) ([]float64, error) {
	parts := strings.Split(raw, ",")
	times := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, err
		}
		times = append(times, v)
	}
	return times, nil
}

// MessageTemplate returns the template for a recipient type, falling
// back to the default template.
func (p *ReminderPolicy) MessageTemplate(recipientType string) string {
	switch recipientType {
	case "customer":
		if p.CustomerTemplate != "" {
			return p.CustomerTemplate
		}
	case "employee":
		if p.EmployeeTemplate != "" {
			return p.EmployeeTemplate
		}
	}
	return p.DefaultTemplate
}

// EventTypes returns the trimmed filter terms.
func (p *ReminderPolicy) EventTypes() []string {
	parts := strings.Split(p.EventTypeFilter, ",")
	types := make([]string, 0, len(parts))
	for _, part := range parts {
		if t := strings.TrimSpace(part); t != "" {
			types = append(types, t)
		}
	}
	return types
}

// ShouldSendNow gates a whole reminder batch on the business-hours
// window and the weekend exclusion.
func (p *ReminderPolicy) ShouldSendNow(now time.Time) bool {
	if p.BusinessHoursOnly {
		current := now.Format("15:04")
		if p.BusinessStartTime != "" && current < p.BusinessStartTime {
			return false
		}
		if p.BusinessEndTime != "" && current > p.BusinessEndTime {
			return false
		}
	}

	if p.ExcludeWeekends {
		if wd := now.Weekday(); wd == time.Saturday || wd == time.Sunday {
			return false
		}
	}

	return true
}

// SmsReminderLog records one reminder delivery attempt. A row with
// status "sent" for the same (event, lead bucket, recipient) key makes
// later scheduler runs inside the same window skip the recipient, so
// dispatch is idempotent across reruns. Failed rows stay retryable.
type SmsReminderLog struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	EventID       uuid.UUID `gorm:"type:uuid;index:idx_reminder_dedup"`
	LeadBucket    string    `gorm:"type:varchar(16);index:idx_reminder_dedup"` // lead time in hours, e.g. "24" or "0.5"
	Recipient     string    `gorm:"type:varchar(20);index:idx_reminder_dedup"`
	RecipientName string    `gorm:"type:varchar(140)"`
	RecipientType string    `gorm:"type:varchar(20)"` // customer, employee
	Message       string    `gorm:"type:text"`
	Status        string    `gorm:"type:varchar(20)"` // sent, failed
	ErrorMessage  string    `gorm:"type:text"`
	SentAt        time.Time

	gorm.Model
}

func (l *SmsReminderLog) BeforeCreate(tx *gorm.DB) (err error) {
	l.ID = uuid.New()
	return
}

// LeadBucketLabel formats a lead time for the dedup key.
func LeadBucketLabel(hours float64) string {
	return strconv.FormatFloat(hours, 'f', -1, 64)
}
