package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"ovhsms-backend/config"
	"ovhsms-backend/models"
	"ovhsms-backend/utils"
)

// EventParticipantInput references a customer or employee attached to
// an event
type EventParticipantInput struct {
	ReferenceType string    `json:"referenceType" binding:"required,oneof=customer employee"`
	ReferenceID   uuid.UUID `json:"referenceId" binding:"required"`
}

// CreateEventInput defines the expected JSON structure for creating an event
type CreateEventInput struct {
	Subject      string                  `json:"subject" binding:"required"`
	Description  string                  `json:"description"`
	StartsOn     time.Time               `json:"startsOn" binding:"required"`
	EndsOn       *time.Time              `json:"endsOn"`
	AllDay       bool                    `json:"allDay"`
	Location     string                  `json:"location"`
	Participants []EventParticipantInput `json:"participants"`
}

// UpdateEventInput defines the expected JSON structure for updating an event
type UpdateEventInput struct {
	Subject     *string    `json:"subject"`
	Description *string    `json:"description"`
	StartsOn    *time.Time `json:"startsOn"`
	EndsOn      *time.Time `json:"endsOn"`
	AllDay      *bool      `json:"allDay"`
	Location    *string    `json:"location"`
}

// CreateEvent creates a new calendar event in draft status
func CreateEvent(c *gin.Context) {
	var input CreateEventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if input.EndsOn != nil && input.EndsOn.Before(input.StartsOn) {
		utils.RespondWithError(c, http.StatusBadRequest, "Event cannot end before it starts")
		return
	}

	event := models.Event{
		ID:          uuid.New(),
		Subject:     input.Subject,
		Description: input.Description,
		StartsOn:    input.StartsOn,
		EndsOn:      input.EndsOn,
		AllDay:      input.AllDay,
		Location:    input.Location,
		Status:      models.EventStatusDraft,
	}
	for _, p := range input.Participants {
		event.Participants = append(event.Participants, models.EventParticipant{
			ID:            uuid.New(),
			ReferenceType: p.ReferenceType,
			ReferenceID:   p.ReferenceID,
		})
	}

	if err := config.DB.Create(&event).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create event")
		return
	}

	c.JSON(http.StatusCreated, event)
}

// GetEvents lists events, optionally filtered by status and date range
func GetEvents(c *gin.Context) {
	query := config.DB.Preload("Participants").Order("starts_on asc")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if from := c.Query("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			query = query.Where("starts_on >= ?", t)
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			query = query.Where("starts_on <= ?", t)
		}
	}

	var events []models.Event
	if err := query.Find(&events).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve events")
		return
	}

	c.JSON(http.StatusOK, events)
}

func eventFromPath(c *gin.Context) (*models.Event, bool) {
	eventUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid event ID format")
		return nil, false
	}

	var event models.Event
	if err := config.DB.Preload("Participants").
		Where("id = ?", eventUUID).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Event not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return nil, false
	}
	return &event, true
}

// GetEvent retrieves a specific event by ID
func GetEvent(c *gin.Context) {
	event, ok := eventFromPath(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, event)
}

// UpdateEvent updates an existing event
func UpdateEvent(c *gin.Context) {
	event, ok := eventFromPath(c)
	if !ok {
		return
	}

	var input UpdateEventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if input.Subject != nil {
		event.Subject = *input.Subject
	}
	if input.Description != nil {
		event.Description = *input.Description
	}
	if input.StartsOn != nil {
		event.StartsOn = *input.StartsOn
	}
	if input.EndsOn != nil {
		event.EndsOn = input.EndsOn
	}
	if input.AllDay != nil {
		event.AllDay = *input.AllDay
	}
	if input.Location != nil {
		event.Location = *input.Location
	}

	if event.EndsOn != nil && event.EndsOn.Before(event.StartsOn) {
		utils.RespondWithError(c, http.StatusBadRequest, "Event cannot end before it starts")
		return
	}

	if err := config.DB.Save(event).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update event")
		return
	}

	c.JSON(http.StatusOK, event)
}

// ConfirmEvent moves an event to confirmed status, making it eligible
// for reminders
func ConfirmEvent(c *gin.Context) {
	event, ok := eventFromPath(c)
	if !ok {
		return
	}

	if event.Status == models.EventStatusCancelled {
		utils.RespondWithError(c, http.StatusConflict, "Cancelled events cannot be confirmed")
		return
	}

	if err := config.DB.Model(event).Update("status", models.EventStatusConfirmed).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to confirm event")
		return
	}

	event.Status = models.EventStatusConfirmed
	c.JSON(http.StatusOK, event)
}

// CancelEvent moves an event to cancelled status
func CancelEvent(c *gin.Context) {
	event, ok := eventFromPath(c)
	if !ok {
		return
	}

	if err := config.DB.Model(event).Update("status", models.EventStatusCancelled).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to cancel event")
		return
	}

	event.Status = models.EventStatusCancelled
	c.JSON(http.StatusOK, event)
}

// DeleteEvent removes an event and its participants
func DeleteEvent(c *gin.Context) {
	event, ok := eventFromPath(c)
	if !ok {
		return
	}

	if err := config.DB.Where("event_id = ?", event.ID).Delete(&models.EventParticipant{}).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete event participants")
		return
	}
	if err := config.DB.Delete(event).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete event")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully"})
}
