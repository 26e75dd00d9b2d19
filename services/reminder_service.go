// services/reminder_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ovhsms-backend/models"
	"ovhsms-backend/utils"
)

// Half-width of the selection window around each lead time. A single
// hourly check catches events at every configured offset without
// per-minute polling.
const reminderWindowMargin = 30 * time.Minute

type ReminderService struct {
	db  *gorm.DB
	sms *SmsService
}

func NewReminderService(db *gorm.DB) *ReminderService {
	return &ReminderService{db: db, sms: NewSmsService(db)}
}

// Policy fetches the singleton reminder policy document, creating a
// disabled default on first access.
func (s *ReminderService) Policy() (*models.ReminderPolicy, error) {
	var policy models.ReminderPolicy
	err := s.db.First(&policy).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		policy = models.ReminderPolicy{ReminderHoursBefore: 24}
		if err := s.db.Create(&policy).Error; err != nil {
			return nil, err
		}
		return &policy, nil
	}
	if err != nil {
		return nil, err
	}
	return &policy, nil
}

// ReminderCandidate is a qualifying event together with the lead-time
// bucket whose window matched it, used as part of the dedup key.
type ReminderCandidate struct {
	Event      models.Event
	LeadBucket string
}

// DueEvents queries confirmed events inside any of the policy's
// lead-time windows and applies the type and duration filters.
func (s *ReminderService) DueEvents(policy *models.ReminderPolicy, now time.Time) ([]ReminderCandidate, error) {
	leadTimes := policy.GetReminderTimes()

	windows := s.db.Session(&gorm.Session{NewDB: true})
	for i, hours := range leadTimes {
		target := now.Add(time.Duration(hours * float64(time.Hour)))
		start := target.Add(-reminderWindowMargin)
		end := target.Add(reminderWindowMargin)
		if i == 0 {
			windows = windows.Where("starts_on BETWEEN ? AND ?", start, end)
		} else {
			windows = windows.Or("starts_on BETWEEN ? AND ?", start, end)
		}
	}

	query := s.db.
		Where("status = ?", models.EventStatusConfirmed).
		Where(windows)

	if policy.SkipPastEvents {
		query = query.Where("starts_on > ?", now)
	}
	if policy.SkipAllDayEvents {
		query = query.Where("all_day = ?", false)
	}

	var events []models.Event
	if err := query.Preload("Participants").Order("starts_on").Find(&events).Error; err != nil {
		return nil, err
	}

	return selectCandidates(events, policy, now), nil
}

// selectCandidates applies the in-memory part of selection: lead-time
// bucket assignment, event-type matching and the minimum-duration
// filter. An event matched by several windows is kept once, with the
// first matching lead time.
func selectCandidates(events []models.Event, policy *models.ReminderPolicy, now time.Time) []ReminderCandidate {
	leadTimes := policy.GetReminderTimes()
	types := policy.EventTypes()

	candidates := make([]ReminderCandidate, 0, len(events))
	seen := make(map[uuid.UUID]struct{})

	for _, event := range events {
		if _, dup := seen[event.ID]; dup {
			continue
		}

		bucket, ok := leadBucketFor(event.StartsOn, leadTimes, now)
		if !ok {
			continue
		}
		if !matchesEventType(event, types) {
			continue
		}
		if policy.MinimumEventDuration > 0 && event.EndsOn != nil {
			if event.DurationMinutes() < float64(policy.MinimumEventDuration) {
				continue
			}
		}

		seen[event.ID] = struct{}{}
		candidates = append(candidates, ReminderCandidate{Event: event, LeadBucket: bucket})
	}

	return candidates
}

func leadBucketFor(startsOn time.Time, leadTimes []float64, now time.Time) (string, bool) {
	for _, hours := range leadTimes {
		target := now.Add(time.Duration(hours * float64(time.Hour)))
		if !startsOn.Before(target.Add(-reminderWindowMargin)) &&
			!startsOn.After(target.Add(reminderWindowMargin)) {
			return models.LeadBucketLabel(hours), true
		}
	}
	return "", false
}

// matchesEventType prefers the type embedded in the structured
// description and falls back to a substring match against the subject.
func matchesEventType(event models.Event, types []string) bool {
	if len(types) == 0 {
		return false
	}

	eventType := utils.ExtractEventType(event.Description)
	if eventType == "" {
		subject := strings.ToLower(event.Subject)
		for _, t := range types {
			if strings.Contains(subject, strings.ToLower(t)) {
				return true
			}
		}
		return false
	}

	lowered := strings.ToLower(eventType)
	for _, t := range types {
		if strings.Contains(lowered, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

type reminderRecipient struct {
	Name   string
	Mobile string
	Type   string // customer, employee
}

// eventRecipients resolves the event's participants to phone numbers,
// honoring the policy's recipient scope. Participants without a
// resolvable mobile are skipped here, at dispatch time.
func (s *ReminderService) eventRecipients(event *models.Event, policy *models.ReminderPolicy) []reminderRecipient {
	var recipients []reminderRecipient

	for _, participant := range event.Participants {
		switch participant.ReferenceType {
		case "customer":
			if !policy.SendToCustomer {
				continue
			}
			var customer models.Customer
			if err := s.db.First(&customer, "id = ?", participant.ReferenceID).Error; err != nil {
				log.Printf("event %s: could not load customer %s: %v", event.ID, participant.ReferenceID, err)
				continue
			}
			mobile := s.customerMobile(&customer)
			if mobile == "" {
				continue
			}
			recipients = append(recipients, reminderRecipient{Name: customer.Name, Mobile: mobile, Type: "customer"})

		case "employee":
			if !policy.SendToEmployee {
				continue
			}
			var employee models.Employee
			if err := s.db.First(&employee, "id = ?", participant.ReferenceID).Error; err != nil {
				log.Printf("event %s: could not load employee %s: %v", event.ID, participant.ReferenceID, err)
				continue
			}
			mobile := employee.Mobile()
			if mobile == "" {
				continue
			}
			recipients = append(recipients, reminderRecipient{Name: employee.Name, Mobile: mobile, Type: "employee"})
		}
	}

	return recipients
}

// customerMobile reads the customer's own mobile field, falling back to
// the first linked contact carrying a mobile or phone value.
func (s *ReminderService) customerMobile(customer *models.Customer) string {
	if customer.MobileNo != "" {
		return customer.MobileNo
	}

	var contact models.Contact
	err := s.db.
		Where("customer_id = ?", customer.ID).
		Where("mobile_no <> '' OR phone <> ''").
		First(&contact).Error
	if err != nil {
		return ""
	}

	if contact.MobileNo != "" {
		return contact.MobileNo
	}
	return contact.Phone
}

// messageContext assembles the template context for one event and
// recipient, merging the parsed structured description fields.
func messageContext(event *models.Event, recipientName, recipientType string) map[string]interface{} {
	context := map[string]interface{}{
		"subject":       event.Subject,
		"description":   event.Description,
		"event_name":    event.ID.String(),
		"start_date":    event.StartsOn.Format("02/01/2006"),
		"start_time":    event.StartsOn.Format("15:04"),
		"location":      event.Location,
		"customer_name": "",
		"employee_name": "",
	}

	if recipientType == "employee" {
		context["employee_name"] = recipientName
	} else {
		context["customer_name"] = recipientName
	}

	if event.EndsOn != nil {
		context["duration"] = int(event.DurationMinutes())
	} else {
		context["duration"] = ""
	}

	for key, value := range utils.ParseEventDescription(event.Description) {
		context[key] = value
	}

	return context
}

// ProcessReminders is the hourly entry point: select due events,
// resolve recipients, render and send, then update the run statistics.
// Per-recipient failures are counted and logged; the batch continues.
func (s *ReminderService) ProcessReminders() {
	policy, err := s.Policy()
	if err != nil {
		log.Printf("reminder run aborted, policy unreadable: %v", err)
		return
	}
	if !policy.Enabled {
		return
	}

	now := time.Now()
	if !policy.ShouldSendNow(now) {
		log.Println("reminder run skipped: outside configured sending hours")
		return
	}

	candidates, err := s.DueEvents(policy, now)
	if err != nil {
		log.Printf("reminder run aborted, event query failed: %v", err)
		return
	}

	sent, failed := 0, 0
	limit := policy.MaxRemindersPerRun

dispatch:
	for _, candidate := range candidates {
		event := candidate.Event
		for _, recipient := range s.eventRecipients(&event, policy) {
			if limit > 0 && sent+failed >= limit {
				log.Printf("reminder run stopped at the per-run limit of %d", limit)
				break dispatch
			}

			normalized, err := utils.NormalizePhoneNumber(recipient.Mobile)
			if err != nil {
				log.Printf("event %s: skipped %s: %v", event.ID, recipient.Name, err)
				continue
			}

			if s.alreadySent(event.ID, candidate.LeadBucket, normalized) {
				continue
			}

			template := policy.MessageTemplate(recipient.Type)
			message := utils.RenderTemplate(template, messageContext(&event, recipient.Name, recipient.Type))

			outcome := s.sms.SendSMS(message, recipient.Mobile, "")
			if outcome.Success {
				sent++
			} else {
				failed++
				log.Printf("event %s: reminder to %s failed: %s", event.ID, recipient.Name, outcome.Message)
			}
			s.logAttempt(&event, candidate.LeadBucket, normalized, recipient, message, outcome)
		}
	}

	s.updateStatistics(policy, sent, failed, now)

	if sent > 0 || failed > 0 {
		log.Printf("event reminders dispatched: %d sent, %d failed", sent, failed)
	}
}

// alreadySent reports whether a reminder for the same (event, lead
// bucket, recipient) key already went out. Failed attempts do not count;
// they stay retryable on the next run.
func (s *ReminderService) alreadySent(eventID uuid.UUID, bucket, recipient string) bool {
	var count int64
	err := s.db.Model(&models.SmsReminderLog{}).
		Where("event_id = ? AND lead_bucket = ? AND recipient = ? AND status = ?",
			eventID, bucket, recipient, "sent").
		Count(&count).Error
	if err != nil {
		log.Printf("dedup lookup failed for event %s: %v", eventID, err)
		return false
	}
	return count > 0
}

func (s *ReminderService) logAttempt(event *models.Event, bucket, recipient string, r reminderRecipient, message string, outcome *SendOutcome) {
	entry := models.SmsReminderLog{
		EventID:       event.ID,
		LeadBucket:    bucket,
		Recipient:     recipient,
		RecipientName: r.Name,
		RecipientType: r.Type,
		Message:       message,
		Status:        "sent",
		SentAt:        time.Now(),
	}
	if !outcome.Success {
		entry.Status = "failed"
		entry.ErrorMessage = outcome.Message
	}

	if err := s.db.Create(&entry).Error; err != nil {
		log.Printf("failed to log reminder for event %s: %v", event.ID, err)
	}
}

// updateStatistics persists the per-run counters, with the daily
// counter reset when the previous check was on an earlier day.
func (s *ReminderService) updateStatistics(policy *models.ReminderPolicy, sent, failed int, now time.Time) {
	updates := map[string]interface{}{
		"total_reminders_sent":   gorm.Expr("total_reminders_sent + ?", sent),
		"failed_reminders_count": gorm.Expr("failed_reminders_count + ?", failed),
		"last_check_time":        now,
	}

	if sent > 0 {
		updates["last_reminder_sent"] = now
	}

	if policy.LastCheckTime != nil && utils.SameDay(*policy.LastCheckTime, now) {
		updates["reminders_sent_today"] = gorm.Expr("reminders_sent_today + ?", sent)
	} else {
		updates["reminders_sent_today"] = sent
	}

	if err := s.db.Model(&models.ReminderPolicy{}).
		Where("id = ?", policy.ID).
		Updates(updates).Error; err != nil {
		log.Printf("failed to update reminder statistics: %v", err)
	}
}

// ResetDailyCounter zeroes the policy's daily counter; called by the
// daily scheduled job.
func (s *ReminderService) ResetDailyCounter() error {
	return s.db.Model(&models.ReminderPolicy{}).
		Where("1 = 1").
		Update("reminders_sent_today", 0).Error
}

// ReminderStatistics is the read model served to the configuration UI.
type ReminderStatistics struct {
	Enabled     bool       `json:"enabled"`
	TotalSent   int        `json:"total_sent"`
	SentToday   int        `json:"sent_today"`
	FailedCount int        `json:"failed_count"`
	LastSent    *time.Time `json:"last_sent"`
	LastCheck   *time.Time `json:"last_check"`
}

func (s *ReminderService) Statistics() (*ReminderStatistics, error) {
	policy, err := s.Policy()
	if err != nil {
		return nil, err
	}
	return &ReminderStatistics{
		Enabled:     policy.Enabled,
		TotalSent:   policy.TotalRemindersSent,
		SentToday:   policy.RemindersSentToday,
		FailedCount: policy.FailedRemindersCount,
		LastSent:    policy.LastReminderSent,
		LastCheck:   policy.LastCheckTime,
	}, nil
}

// TestReminderResult is one line of a manual test-reminder run.
type TestReminderResult struct {
	Recipient string `json:"recipient"`
	Mobile    string `json:"mobile"`
	Message   string `json:"message"`
	Success   bool   `json:"success"`
	Detail    string `json:"detail"`
}

// SendTestReminder renders and sends the configured templates for a
// chosen event to explicit test numbers, bypassing selection and dedup.
func (s *ReminderService) SendTestReminder(eventID uuid.UUID, customerMobile, employeeMobile string) ([]TestReminderResult, error) {
	policy, err := s.Policy()
	if err != nil {
		return nil, err
	}
	if !policy.Enabled {
		return nil, fmt.Errorf("event reminders are not enabled")
	}

	var event models.Event
	if err := s.db.First(&event, "id = ?", eventID).Error; err != nil {
		return nil, fmt.Errorf("test event not found: %w", err)
	}

	var results []TestReminderResult

	if customerMobile != "" {
		message := utils.RenderTemplate(policy.MessageTemplate("customer"),
			messageContext(&event, "Client Test", "customer"))
		outcome := s.sms.SendSMS(message, customerMobile, "")
		results = append(results, TestReminderResult{
			Recipient: "customer", Mobile: customerMobile, Message: message,
			Success: outcome.Success, Detail: outcome.Message,
		})
	}

	if employeeMobile != "" {
		message := utils.RenderTemplate(policy.MessageTemplate("employee"),
			messageContext(&event, "Employé Test", "employee"))
		outcome := s.sms.SendSMS(message, employeeMobile, "")
		results = append(results, TestReminderResult{
			Recipient: "employee", Mobile: employeeMobile, Message: message,
			Success: outcome.Success, Detail: outcome.Message,
		})
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("no test number provided")
	}

	return results, nil
}
