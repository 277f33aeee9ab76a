package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProjectPayment records one payment against an obligation slot. PeriodMonth
// and PeriodWeek use 0 as the "not applicable" sentinel for coarser intervals.
// The composite unique index allows at most one logical payment per slot.
type ProjectPayment struct {
	ID          uint               `gorm:"primaryKey" json:"id"`
	ProjectID   uint               `gorm:"uniqueIndex:uniq_payment_slot;not null" json:"project_id"`
	Project     *CollectiveProject `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"project,omitempty"`
	UserID      uint               `gorm:"uniqueIndex:uniq_payment_slot;not null" json:"user_id"`
	PeriodYear  int                `gorm:"uniqueIndex:uniq_payment_slot;not null" json:"period_year"`
	PeriodMonth int                `gorm:"uniqueIndex:uniq_payment_slot;default:0" json:"period_month"` // 0 or 1..12
	PeriodWeek  int                `gorm:"uniqueIndex:uniq_payment_slot;default:0" json:"period_week_of_month"` // 0 or 1..6
	Sequence    int                `gorm:"uniqueIndex:uniq_payment_slot;default:1" json:"sequence_in_period"` // 1..N
	Amount      decimal.Decimal    `gorm:"type:decimal(12,2);not null" json:"amount"` // snapshot at payment time
	PaidAt      time.Time          `gorm:"index:idx_payment_user_paid_at;not null" json:"paid_at"`
	ReceiptPath string             `gorm:"size:500" json:"receipt_path"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func (ProjectPayment) TableName() string { return "collective_project_payments" }
