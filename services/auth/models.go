package auth

import (
	"time"

	"gorm.io/gorm"
)

// Account is an admin account. Unverified accounts hold a pending numeric
// verification code; verified accounts have both code fields cleared and the
// transition is one-way.
type Account struct {
	gorm.Model
	Name                      string     `json:"name" gorm:"not null"`
	Email                     string     `json:"email" gorm:"uniqueIndex;not null"`
	Password                  string     `json:"-" gorm:"not null"`
	Verified                  bool       `json:"verified" gorm:"default:false"`
	VerificationCode          *string    `json:"-"`
	VerificationCodeExpiresAt *time.Time `json:"-"`
}

func (Account) TableName() string {
	return "accounts"
}

// Projection is the single account shape returned to clients by verify, login
// and check-auth.
type Projection struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
