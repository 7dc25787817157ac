package outbox

import (
	"time"

	"gorm.io/gorm"
)

// OutboxEmail is a pending (or sent) notification email. Rows survive process
// restarts so a crashed dispatcher resumes where it left off.
type OutboxEmail struct {
	gorm.Model
	Recipient     string `gorm:"not null"`
	Subject       string `gorm:"not null"`
	Template      string `gorm:"not null"`
	Data          string
	Attempts      int       `gorm:"default:0"`
	NextAttemptAt time.Time `gorm:"index;not null"`
	LastError     string
	SentAt        *time.Time
}

func (OutboxEmail) TableName() string {
	return "outbox_emails"
}
