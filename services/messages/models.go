package messages

import "gorm.io/gorm"

// ContactMessage is a message submitted through the public contact form.
type ContactMessage struct {
	gorm.Model
	FullName string `json:"FullName" gorm:"not null"`
	Email    string `json:"Email" gorm:"not null"`
	Subject  string `json:"Subject" gorm:"not null"`
	Body     string `json:"Message" gorm:"not null"`
}

func (ContactMessage) TableName() string {
	return "contact_messages"
}
