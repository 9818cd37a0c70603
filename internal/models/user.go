package models

import (
	"strings"
	"time"
)

const (
	RoleAdmin    = "admin"
	RoleDirector = "director"
	RoleAuditor  = "auditor"
	RoleUser     = "user"
)

// User is a dashboard account.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"size:36;uniqueIndex" json:"userId"`
	FullName  string    `gorm:"size:200" json:"fullName"`
	Email     string    `gorm:"size:255;uniqueIndex" json:"email"`
	Password  string    `json:"-"`
	Role      string    `gorm:"size:16;index" json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) Normalize() {
	u.FullName = strings.TrimSpace(u.FullName)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Role = strings.ToLower(strings.TrimSpace(u.Role))
}
