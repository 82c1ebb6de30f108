package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Outreach lifecycle states. An email moves Not Responded -> Send Reminder
// after the follow-up window, and to a terminal state once the prospect
// replies or clicks a decision link.
const (
	OutreachNotResponded  = "Not Responded"
	OutreachInterested    = "Interested"
	OutreachNotInterested = "Not Interested"
	OutreachSendReminder  = "Send Reminder"
	OutreachResponded     = "Responded"
)

// EmailStatus tracks one outreach email end to end: who it went to, what
// was sent, and every signal that came back (opens, clicks, replies).
type EmailStatus struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DMName      string    `gorm:"not null" json:"dm_name"`
	CompanyName string    `gorm:"not null;index" json:"company_name"`
	DMPosition  string    `json:"dm_position"`
	EmailID     string    `gorm:"not null;index" json:"email_id"`
	Subject     string    `json:"subject"`
	Body        string    `gorm:"type:text" json:"body"`

	Status     string     `gorm:"default:'Not Responded';index" json:"status"`
	DateSent   time.Time  `json:"date_sent"`
	DateOpened *time.Time `json:"date_opened,omitempty"`

	// First lines of the prospect's reply, captured by the reply worker.
	ReplyExcerpt string `gorm:"type:text" json:"reply_excerpt,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (e *EmailStatus) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Status == "" {
		e.Status = OutreachNotResponded
	}
	return nil
}

// FollowupStatus records each reminder sent for an outreach email, so the
// follow-up worker never double-sends within a window.
type FollowupStatus struct {
	gorm.Model
	EmailStatusID uuid.UUID `gorm:"type:uuid;not null;index" json:"email_status_id"`
	ReminderCount int       `gorm:"default:0" json:"reminder_count"`
	LastSentAt    time.Time `json:"last_sent_at"`

	EmailStatus EmailStatus `gorm:"foreignKey:EmailStatusID" json:"-"`
}
