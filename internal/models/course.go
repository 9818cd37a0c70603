package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Course struct {
	ID          string         `gorm:"size:36;primaryKey" json:"id"`
	Code        string         `gorm:"size:32;uniqueIndex;not null" json:"code" validate:"required"`
	Title       string         `gorm:"size:200;not null" json:"title" validate:"required"`
	Description string         `gorm:"type:text" json:"description"`
	Duration    string         `gorm:"size:64" json:"duration"`
	Fee         float64        `json:"fee" validate:"min=0"`
	Modules     datatypes.JSON `json:"modules"`
	IsActive    bool           `json:"isActive"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

func (c *Course) BeforeSave(tx *gorm.DB) error {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	c.Title = strings.TrimSpace(c.Title)
	c.Description = strings.TrimSpace(c.Description)
	c.Duration = strings.TrimSpace(c.Duration)
	if len(c.Modules) == 0 {
		c.Modules = datatypes.JSON("[]")
	}
	return Validate(c)
}

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
