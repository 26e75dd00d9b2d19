package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event statuses mirror the document lifecycle of the host ERP: only
// confirmed (submitted) events qualify for reminders.
const (
	EventStatusDraft     = "draft"
	EventStatusConfirmed = "confirmed"
	EventStatusCancelled = "cancelled"
)

// Event is a calendar record. The description may embed structured
// "Key: value" lines carrying domain fields (see utils.ParseEventDescription).
type Event struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	Subject     string    `gorm:"type:varchar(255);not null"`
	Description string    `gorm:"type:text"`
	StartsOn    time.Time `gorm:"index;not null"`
	EndsOn      *time.Time
	AllDay      bool   `gorm:"default:false"`
	Location    string `gorm:"type:varchar(255)"`
	Status      string `gorm:"type:varchar(20);default:'draft'"`

	Participants []EventParticipant `gorm:"foreignKey:EventID"`

	gorm.Model
}

func (e *Event) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return
}

// DurationMinutes returns end - start in minutes, or 0 when the event
// has no end time.
func (e *Event) DurationMinutes() float64 {
	if e.EndsOn == nil {
		return 0
	}
	return e.EndsOn.Sub(e.StartsOn).Minutes()
}

type EventParticipant struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	EventID       uuid.UUID `gorm:"type:uuid;index;not null"`
	ReferenceType string    `gorm:"type:varchar(20);not null"` // customer, employee
	ReferenceID   uuid.UUID `gorm:"type:uuid;not null"`

	gorm.Model
}

func (p *EventParticipant) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

type Customer struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key"`
	Name     string    `gorm:"not null"`
	MobileNo string    `gorm:"type:varchar(20)"`
	Email    string
	IsActive bool `gorm:"default:true"`

	gorm.Model
}

func (c *Customer) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}

type Employee struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	Name          string    `gorm:"not null"`
	CellNumber    string    `gorm:"type:varchar(20)"`
	PersonalPhone string    `gorm:"type:varchar(20)"`
	Phone         string    `gorm:"type:varchar(20)"`
	IsActive      bool      `gorm:"default:true"`

	gorm.Model
}

func (e *Employee) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return
}

// Mobile returns the first populated phone field of an employee.
func (e *Employee) Mobile() string {
	for _, number := range []string{e.CellNumber, e.PersonalPhone, e.Phone} {
		if number != "" {
			return number
		}
	}
	return ""
}

// Contact is a phone record linked to a customer, used as a fallback
// when the customer document itself carries no mobile number.
type Contact struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	CustomerID uuid.UUID `gorm:"type:uuid;index;not null"`
	MobileNo   string    `gorm:"type:varchar(20)"`
	Phone      string    `gorm:"type:varchar(20)"`

	gorm.Model
}

func (c *Contact) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}
