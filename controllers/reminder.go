// controllers/reminder.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ovhsms-backend/config"
	"ovhsms-backend/models"
	"ovhsms-backend/services"
	"ovhsms-backend/utils"
)

// UpdateReminderPolicyInput covers the editable policy fields.
type UpdateReminderPolicyInput struct {
	Enabled                 *bool    `json:"enabled"`
	EventTypeFilter         *string  `json:"eventTypeFilter"`
	ReminderHoursBefore     *float64 `json:"reminderHoursBefore"`
	EnableMultipleReminders *bool    `json:"enableMultipleReminders"`
	ReminderTimes           *string  `json:"reminderTimes"`
	MinimumEventDuration    *int     `json:"minimumEventDuration"`
	BusinessHoursOnly       *bool    `json:"businessHoursOnly"`
	BusinessStartTime       *string  `json:"businessStartTime"`
	BusinessEndTime         *string  `json:"businessEndTime"`
	ExcludeWeekends         *bool    `json:"excludeWeekends"`
	SkipPastEvents          *bool    `json:"skipPastEvents"`
	SkipAllDayEvents        *bool    `json:"skipAllDayEvents"`
	SendToCustomer          *bool    `json:"sendToCustomer"`
	SendToEmployee          *bool    `json:"sendToEmployee"`
	DefaultTemplate         *string  `json:"defaultTemplate"`
	CustomerTemplate        *string  `json:"customerTemplate"`
	EmployeeTemplate        *string  `json:"employeeTemplate"`
	MaxRemindersPerRun      *int     `json:"maxRemindersPerRun"`
}

// GetReminderPolicy returns the reminder policy document.
func GetReminderPolicy(c *gin.Context) {
	svc := services.NewReminderService(config.DB)
	policy, err := svc.Policy()
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load reminder policy")
		return
	}
	c.JSON(http.StatusOK, policy)
}

// UpdateReminderPolicy applies a partial update and re-validates.
func UpdateReminderPolicy(c *gin.Context) {
	var input UpdateReminderPolicyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	svc := services.NewReminderService(config.DB)
	policy, err := svc.Policy()
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load reminder policy")
		return
	}

	applyPolicyInput(policy, &input)

	if err := policy.Validate(); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := config.DB.Save(policy).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to save reminder policy")
		return
	}

	c.JSON(http.StatusOK, policy)
}

func applyPolicyInput(policy *models.ReminderPolicy, input *UpdateReminderPolicyInput) {
	if input.Enabled != nil {
		policy.Enabled = *input.Enabled
	}
	if input.EventTypeFilter != nil {
		policy.EventTypeFilter = *input.EventTypeFilter
	}
	if input.ReminderHoursBefore != nil {
		policy.ReminderHoursBefore = *input.ReminderHoursBefore
	}
	if input.EnableMultipleReminders != nil {
		policy.EnableMultipleReminders = *input.EnableMultipleReminders
	}
	if input.ReminderTimes != nil {
		policy.ReminderTimes = *input.ReminderTimes
	}
	if input.MinimumEventDuration != nil {
		policy.MinimumEventDuration = *input.MinimumEventDuration
	}
	if input.BusinessHoursOnly != nil {
		policy.BusinessHoursOnly = *input.BusinessHoursOnly
	}
	if input.BusinessStartTime != nil {
		policy.BusinessStartTime = *input.BusinessStartTime
	}
	if input.BusinessEndTime != nil {
		policy.BusinessEndTime = *input.BusinessEndTime
	}
	if input.ExcludeWeekends != nil {
		policy.ExcludeWeekends = *input.ExcludeWeekends
	}
	if input.SkipPastEvents != nil {
		policy.SkipPastEvents = *input.SkipPastEvents
	}
	if input.SkipAllDayEvents != nil {
		policy.SkipAllDayEvents = *input.SkipAllDayEvents
	}
	if input.SendToCustomer != nil {
		policy.SendToCustomer = *input.SendToCustomer
	}
	if input.SendToEmployee != nil {
		policy.SendToEmployee = *input.SendToEmployee
	}
	if input.DefaultTemplate != nil {
		policy.DefaultTemplate = *input.DefaultTemplate
	}
	if input.CustomerTemplate != nil {
		policy.CustomerTemplate = *input.CustomerTemplate
	}
	if input.EmployeeTemplate != nil {
		policy.EmployeeTemplate = *input.EmployeeTemplate
	}
	if input.MaxRemindersPerRun != nil {
		policy.MaxRemindersPerRun = *input.MaxRemindersPerRun
	}
}

// GetReminderStatistics returns the run counters.
func GetReminderStatistics(c *gin.Context) {
	svc := services.NewReminderService(config.DB)
	stats, err := svc.Statistics()
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load statistics")
		return
	}
	c.JSON(http.StatusOK, stats)
}

type TestReminderInput struct {
	EventID        string `json:"eventId" binding:"required"`
	CustomerMobile string `json:"customerMobile"`
	EmployeeMobile string `json:"employeeMobile"`
}

// SendTestReminder renders and sends the configured templates for a
// chosen event to explicit test numbers.
func SendTestReminder(c *gin.Context) {
	var input TestReminderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Event ID is required")
		return
	}

	eventID, err := uuid.Parse(input.EventID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid event ID")
		return
	}

	svc := services.NewReminderService(config.DB)
	results, err := svc.SendTestReminder(eventID, input.CustomerMobile, input.EmployeeMobile)
	if err != nil {
		utils.RespondWithResult(c, http.StatusOK, false, err.Error(), nil)
		return
	}

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}

	utils.RespondWithResult(c, http.StatusOK, succeeded > 0,
		"", gin.H{"results": results, "sent": succeeded})
}

// RunReminderCheck triggers the hourly check on demand.
func RunReminderCheck(c *gin.Context) {
	svc := services.NewReminderService(config.DB)
	svc.ProcessReminders()
	utils.RespondWithResult(c, http.StatusOK, true, "Reminder check executed", nil)
}

// GetWeeklyReports lists the stored weekly activity reports.
func GetWeeklyReports(c *gin.Context) {
	var reports []models.WeeklyReport
	if err := config.DB.Order("week_end desc").Limit(12).Find(&reports).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load reports")
		return
	}
	c.JSON(http.StatusOK, reports)
}
