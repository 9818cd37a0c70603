package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Workshop struct {
	ID          string    `gorm:"size:36;primaryKey" json:"id"`
	Title       string    `gorm:"size:200;not null" json:"title" validate:"required"`
	Description string    `gorm:"type:text" json:"description"`
	Date        time.Time `json:"date" validate:"required"`
	Location    string    `gorm:"size:255" json:"location"`
	Capacity    int       `json:"capacity" validate:"min=0"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (w *Workshop) BeforeSave(tx *gorm.DB) error {
	w.Title = strings.TrimSpace(w.Title)
	w.Description = strings.TrimSpace(w.Description)
	w.Location = strings.TrimSpace(w.Location)
	return Validate(w)
}

func (w *Workshop) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}
