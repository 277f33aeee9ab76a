package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment interval values. Interval and PaymentsPerInterval together fully
// determine the obligation slot shape for any reporting scope.
const (
	IntervalWeek  = "week"
	IntervalMonth = "month"
	IntervalYear  = "year"
)

// CollectiveProject is a rotating-contribution project: a capped group of
// participants each owing PaymentsPerInterval payments per PaymentInterval.
type CollectiveProject struct {
	ID                   uint            `gorm:"primaryKey" json:"id"`
	Title                string          `gorm:"size:150;not null" json:"title"`
	Slug                 string          `gorm:"uniqueIndex;size:180;not null" json:"slug"`
	Description          string          `gorm:"type:text" json:"description"`
	ParticipantLimit     int             `gorm:"not null" json:"participant_limit"`
	AmountPerParticipant decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount_per_participant"`
	PaymentInterval      string          `gorm:"size:10;not null" json:"payment_interval"` // week, month, year
	PaymentsPerInterval  int             `gorm:"default:1" json:"payments_per_interval"`
	IsActive             bool            `gorm:"default:true" json:"is_active"`
	CreatedBy            uint            `json:"created_by"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
	DeletedAt            gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (CollectiveProject) TableName() string { return "collective_projects" }

// ValidInterval reports whether v is one of the supported payment intervals.
func ValidInterval(v string) bool {
	return v == IntervalWeek || v == IntervalMonth || v == IntervalYear
}
