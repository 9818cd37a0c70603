package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContactMessage is a message left through the public contact form.
type ContactMessage struct {
	ID        string    `gorm:"size:36;primaryKey" json:"id"`
	Reference string    `gorm:"size:32;uniqueIndex;not null" json:"reference"`
	Name      string    `gorm:"size:200;not null" json:"name" validate:"required"`
	Email     string    `gorm:"size:255;not null;index" json:"email" validate:"required,email"`
	Phone     string    `gorm:"size:32" json:"phone,omitempty"`
	Subject   string    `gorm:"size:255" json:"subject"`
	Message   string    `gorm:"type:text;not null" json:"message" validate:"required,max=5000"`
	IsRead    bool      `gorm:"default:false;index" json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (m *ContactMessage) BeforeSave(tx *gorm.DB) error {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.ToLower(strings.TrimSpace(m.Email))
	m.Phone = strings.TrimSpace(m.Phone)
	m.Subject = strings.TrimSpace(m.Subject)
	m.Message = strings.TrimSpace(m.Message)
	return Validate(m)
}

func (m *ContactMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
