package models

import (
	"time"

	"gorm.io/gorm"
)

// User is either an administrator or a project participant.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	FirstName string         `gorm:"size:100;not null" json:"first_name"`
	LastName  string         `gorm:"size:100;not null" json:"last_name"`
	Phone     string         `gorm:"uniqueIndex;size:30;not null" json:"phone"`
	Password  string         `gorm:"size:255" json:"-"` // bcrypt hash
	Role      string         `gorm:"size:20;default:participant" json:"role"` // admin, participant
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	LastLogin *time.Time     `json:"last_login"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }
