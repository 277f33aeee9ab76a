package models

import (
	"time"
)

// PaymentMethod describes how participants can pay into a project.
// Payload is a JSON document encrypted at rest (pix key, bank account, etc).
type PaymentMethod struct {
	ID        uint               `gorm:"primaryKey" json:"id"`
	ProjectID uint               `gorm:"index:idx_method_project_active;not null" json:"project_id"`
	Project   *CollectiveProject `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"project,omitempty"`
	Type      string             `gorm:"size:30;not null" json:"payment_method_type"` // pix, bank_transfer
	Payload   string             `gorm:"type:text;not null" json:"-"`
	Label     string             `gorm:"size:80" json:"label"`
	IsActive  bool               `gorm:"index:idx_method_project_active;default:true" json:"is_active"`
	SortOrder int                `gorm:"default:1" json:"sort_order"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func (PaymentMethod) TableName() string { return "collective_project_payment_methods" }
