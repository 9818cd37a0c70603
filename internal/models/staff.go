package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Director and Employee share the staff profile shape.
type Director struct {
	ID             string    `gorm:"size:36;primaryKey" json:"id"`
	Name           string    `gorm:"size:200;not null" json:"name" validate:"required"`
	Email          string    `gorm:"size:255;uniqueIndex;not null" json:"email" validate:"required,email"`
	Phone          string    `gorm:"size:32" json:"phone"`
	Position       string    `gorm:"size:120" json:"position"`
	Bio            string    `gorm:"type:text" json:"bio"`
	ProfilePicture string    `gorm:"size:512" json:"profilePicture,omitempty"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type Employee struct {
	ID             string    `gorm:"size:36;primaryKey" json:"id"`
	Name           string    `gorm:"size:200;not null" json:"name" validate:"required"`
	Email          string    `gorm:"size:255;uniqueIndex;not null" json:"email" validate:"required,email"`
	Phone          string    `gorm:"size:32" json:"phone"`
	Position       string    `gorm:"size:120" json:"position"`
	Department     string    `gorm:"size:120" json:"department"`
	ProfilePicture string    `gorm:"size:512" json:"profilePicture,omitempty"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (d *Director) BeforeSave(tx *gorm.DB) error {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.Phone = strings.TrimSpace(d.Phone)
	d.Position = strings.TrimSpace(d.Position)
	d.Bio = strings.TrimSpace(d.Bio)
	return Validate(d)
}

func (d *Director) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

func (e *Employee) BeforeSave(tx *gorm.DB) error {
	e.Name = strings.TrimSpace(e.Name)
	e.Email = strings.ToLower(strings.TrimSpace(e.Email))
	e.Phone = strings.TrimSpace(e.Phone)
	e.Position = strings.TrimSpace(e.Position)
	e.Department = strings.TrimSpace(e.Department)
	return Validate(e)
}

func (e *Employee) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
