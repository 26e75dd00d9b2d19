package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WeeklyReport is the persisted weekly reminder-activity summary. The
// host ERP used to mail this to administrators; here it is stored and
// served over the API instead.
type WeeklyReport struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	WeekStart time.Time
	WeekEnd   time.Time

	EventsScheduled int `gorm:"default:0"`
	RemindersSent   int `gorm:"default:0"`
	RemindersFailed int `gorm:"default:0"`
	TotalReminders  int `gorm:"default:0"`

	Content string `gorm:"type:text"`

	gorm.Model
}

func (r *WeeklyReport) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
