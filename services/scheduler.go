// services/scheduler.go
package services

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"ovhsms-backend/models"
)

const reminderLogRetention = 30 * 24 * time.Hour
const campaignRetention = 90 * 24 * time.Hour

// Scheduler owns the periodic entry points: hourly reminder check,
// daily counter reset and log cleanup, weekly report and campaign
// cleanup.
type Scheduler struct {
	db        *gorm.DB
	cron      *cron.Cron
	reminders *ReminderService
	sms       *SmsService
	campaigns *CampaignService
}

func NewScheduler(db *gorm.DB) *Scheduler {
	return &Scheduler{
		db:        db,
		cron:      cron.New(),
		reminders: NewReminderService(db),
		sms:       NewSmsService(db),
		campaigns: NewCampaignService(db),
	}
}

// Start registers the jobs and runs the cron loop. Every job is wrapped
// so a failure is logged and never escapes into the cron runner.
func (s *Scheduler) Start() {
	s.cron.AddFunc("0 * * * *", func() { s.guard("reminder check", s.RunReminderCheck) })
	s.cron.AddFunc("5 0 * * *", func() { s.guard("daily counter reset", s.ResetDailyCounters) })
	s.cron.AddFunc("0 2 * * *", func() { s.guard("log cleanup", s.CleanupOldLogs) })
	s.cron.AddFunc("0 7 * * 1", func() { s.guard("weekly report", s.GenerateWeeklyReport) })
	s.cron.AddFunc("30 3 * * 0", func() { s.guard("campaign cleanup", s.CleanupOldCampaigns) })

	s.cron.Start()
	log.Println("SMS scheduler started")
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) guard(name string, job func() error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("scheduled job %q panicked: %v", name, r)
		}
	}()

	if err := job(); err != nil {
		log.Printf("scheduled job %q failed: %v", name, err)
	}
}

// RunReminderCheck is the hourly reminder entry point.
func (s *Scheduler) RunReminderCheck() error {
	s.reminders.ProcessReminders()
	return nil
}

// ResetDailyCounters zeroes the daily counters on both the gateway
// settings and the reminder policy.
func (s *Scheduler) ResetDailyCounters() error {
	if err := s.sms.ResetDailyCounter(); err != nil {
		return fmt.Errorf("settings counter: %w", err)
	}
	if err := s.reminders.ResetDailyCounter(); err != nil {
		return fmt.Errorf("policy counter: %w", err)
	}
	log.Println("daily SMS counters reset")
	return nil
}

// CleanupOldLogs removes reminder logs past the retention window.
func (s *Scheduler) CleanupOldLogs() error {
	cutoff := time.Now().Add(-reminderLogRetention)
	result := s.db.Unscoped().
		Where("created_at < ?", cutoff).
		Delete(&models.SmsReminderLog{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		log.Printf("removed %d reminder logs older than 30 days", result.RowsAffected)
	}
	return nil
}

// CleanupOldCampaigns drops fully-sent campaigns past retention.
func (s *Scheduler) CleanupOldCampaigns() error {
	removed, err := s.campaigns.CleanupOldCampaigns(campaignRetention)
	if err != nil {
		return err
	}
	if removed > 0 {
		log.Printf("removed %d fully-sent campaigns", removed)
	}
	return nil
}

// GenerateWeeklyReport summarizes the last week's reminder activity and
// persists it. The host ERP used to mail this; here it is stored and
// served over the API.
func (s *Scheduler) GenerateWeeklyReport() error {
	now := time.Now()
	weekAgo := now.Add(-7 * 24 * time.Hour)

	policy, err := s.reminders.Policy()
	if err != nil {
		return err
	}

	var eventsScheduled int64
	if err := s.db.Model(&models.Event{}).
		Where("starts_on BETWEEN ? AND ?", weekAgo, now).
		Where("status = ?", models.EventStatusConfirmed).
		Count(&eventsScheduled).Error; err != nil {
		return err
	}

	var sentThisWeek, failedThisWeek int64
	s.db.Model(&models.SmsReminderLog{}).
		Where("sent_at >= ? AND status = ?", weekAgo, "sent").
		Count(&sentThisWeek)
	s.db.Model(&models.SmsReminderLog{}).
		Where("sent_at >= ? AND status = ?", weekAgo, "failed").
		Count(&failedThisWeek)

	content := fmt.Sprintf(
		"Weekly SMS reminder report %s - %s\n"+
			"Events scheduled: %d\n"+
			"Reminders sent: %d\n"+
			"Reminders failed: %d\n"+
			"Total reminders to date: %d",
		weekAgo.Format("02/01/2006"), now.Format("02/01/2006"),
		eventsScheduled, sentThisWeek, failedThisWeek, policy.TotalRemindersSent)

	report := models.WeeklyReport{
		WeekStart:       weekAgo,
		WeekEnd:         now,
		EventsScheduled: int(eventsScheduled),
		RemindersSent:   int(sentThisWeek),
		RemindersFailed: int(failedThisWeek),
		TotalReminders:  policy.TotalRemindersSent,
		Content:         content,
	}
	if err := s.db.Create(&report).Error; err != nil {
		return err
	}

	log.Println("weekly reminder report generated")
	return nil
}

// CheckHealth inspects the configuration and the gateway connection and
// returns the list of problems found. An empty list means healthy.
func CheckHealth(db *gorm.DB) []string {
	var issues []string

	sms := NewSmsService(db)
	settings, err := sms.Settings()
	switch {
	case err != nil:
		issues = append(issues, fmt.Sprintf("gateway settings unreadable: %v", err))
	case !settings.Enabled:
		issues = append(issues, "OVH SMS integration is disabled")
	default:
		if ok, message := sms.TestConnection(); !ok {
			issues = append(issues, "gateway connection problem: "+message)
		}
	}

	reminders := NewReminderService(db)
	policy, err := reminders.Policy()
	switch {
	case err != nil:
		issues = append(issues, fmt.Sprintf("reminder policy unreadable: %v", err))
	case !policy.Enabled:
		issues = append(issues, "event reminders are disabled")
	case policy.EventTypeFilter == "":
		issues = append(issues, "no event type filter configured")
	}

	return issues
}
