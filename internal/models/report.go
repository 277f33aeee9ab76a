package models

import (
	"time"
)

// ReportStatus lifecycle: pending -> ready | failed. Terminal states are
// final; a stuck pending report is re-submitted as a brand-new report.
type ReportStatus string

const (
	ReportPending ReportStatus = "pending"
	ReportReady   ReportStatus = "ready"
	ReportFailed  ReportStatus = "failed"
)

// ReportTypePaymentStatus is the payment-period reconciliation report.
const ReportTypePaymentStatus = "payment_status"

// ProjectReport tracks one asynchronous report generation job and, once
// ready, where its output file lives.
type ProjectReport struct {
	ID           uint               `gorm:"primaryKey" json:"id"`
	ProjectID    uint               `gorm:"index:idx_report_project_status;not null" json:"project_id"`
	Project      *CollectiveProject `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"project,omitempty"`
	CreatedBy    *uint              `json:"created_by"`
	Type         string             `gorm:"size:50;not null" json:"type"`
	Status       ReportStatus       `gorm:"size:20;default:pending;index:idx_report_project_status" json:"status"`
	Filters      string             `gorm:"type:text" json:"filters"` // JSON-encoded report filters
	Path         string             `gorm:"size:600" json:"path"`
	FileName     string             `gorm:"size:255" json:"file_name"`
	MimeType     string             `gorm:"size:120" json:"mime_type"`
	FileSize     int64              `json:"file_size"`
	GeneratedAt  *time.Time         `json:"generated_at"`
	ErrorMessage string             `gorm:"type:text" json:"error_message"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

func (ProjectReport) TableName() string { return "collective_project_reports" }
