package services

import (
	"errors"
	"time"

	"github.com/coletiva/backend/internal/models"
	"github.com/coletiva/backend/internal/reconcile"
	"github.com/coletiva/backend/pkg/logger"
	"github.com/coletiva/backend/pkg/response"
	"gorm.io/gorm"
)

// PaymentService records contribution payments and answers period queries.
type PaymentService struct {
	db          *gorm.DB
	memberships *MembershipService
	now         func() time.Time
}

func NewPaymentService(db *gorm.DB, memberships *MembershipService) *PaymentService {
	return &PaymentService{db: db, memberships: memberships, now: time.Now}
}

// RecordPaymentInput selects the slot a participant is paying for.
// ReceiptPath is set by the handler after storing an uploaded receipt.
type RecordPaymentInput struct {
	Year        int    `json:"year" binding:"required"`
	Month       int    `json:"month"`
	WeekOfMonth int    `json:"week_of_month"`
	Sequence    int    `json:"sequence"`
	ReceiptPath string `json:"-"`
}

// Record stores one payment for the caller's own membership. Each slot can be
// paid exactly once; the unique slot index is the final arbiter and a
// duplicate surfaces as a 409.
func (s *PaymentService) Record(projectID, userID uint, in *RecordPaymentInput) (*models.ProjectPayment, error) {
	project, err := s.loadActiveProject(projectID)
	if err != nil {
		return nil, err
	}
	if _, err := s.memberships.RequireAccepted(projectID, userID); err != nil {
		return nil, err
	}

	if in.Sequence == 0 {
		in.Sequence = 1
	}
	if in.Sequence < 1 || in.Sequence > project.PaymentsPerInterval {
		return nil, response.NewBadRequest("sequence out of range for this project")
	}
	if err := validatePeriod(project, in.Year, in.Month, in.WeekOfMonth, true); err != nil {
		return nil, err
	}
	month, week := normalizePeriod(project, in.Month, in.WeekOfMonth)

	payment := models.ProjectPayment{
		ProjectID:   projectID,
		UserID:      userID,
		PeriodYear:  in.Year,
		PeriodMonth: month,
		PeriodWeek:  week,
		Sequence:    in.Sequence,
		Amount:      project.AmountPerParticipant,
		PaidAt:      s.now(),
		ReceiptPath: in.ReceiptPath,
	}

	if err := s.db.Create(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, response.NewConflict("payment already recorded for this period")
		}
		return nil, err
	}

	logger.Info().
		Uint("project_id", projectID).
		Uint("user_id", userID).
		Str("slot", reconcile.SlotKey(in.Year, month, week, in.Sequence)).
		Msg("payment recorded")
	return &payment, nil
}

// List returns the caller's own payments in a project, newest first.
func (s *PaymentService) List(projectID, userID uint, page, pageSize int) ([]models.ProjectPayment, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	q := s.db.Model(&models.ProjectPayment{}).
		Where("project_id = ? AND user_id = ?", projectID, userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var payments []models.ProjectPayment
	err := q.Order("paid_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&payments).Error
	if err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

// WeekOption is one selectable week of a month, with its deadline.
type WeekOption struct {
	Week     int       `json:"week"`
	Label    string    `json:"label"`
	Deadline time.Time `json:"deadline"`
}

// PeriodOptions describes which slot fields a payment form needs for a
// project, plus the computed weeks when the project is weekly.
type PeriodOptions struct {
	Interval            string       `json:"interval"`
	PaymentsPerInterval int          `json:"payments_per_interval"`
	Weeks               []WeekOption `json:"weeks,omitempty"`
}

// Options returns the period selection metadata for a project. year and month
// are only consulted for weekly projects, where the week count depends on the
// calendar.
func (s *PaymentService) Options(projectID uint, year, month int) (*PeriodOptions, error) {
	project, err := s.loadActiveProject(projectID)
	if err != nil {
		return nil, err
	}

	opts := &PeriodOptions{
		Interval:            project.PaymentInterval,
		PaymentsPerInterval: project.PaymentsPerInterval,
	}

	if project.PaymentInterval == models.IntervalWeek {
		if err := validatePeriod(project, year, month, 0, false); err != nil {
			return nil, err
		}
		slots := reconcile.BuildSlots(models.IntervalWeek, 1, year, month, 0, time.UTC)
		for _, slot := range slots {
			opts.Weeks = append(opts.Weeks, WeekOption{
				Week:     slot.Week,
				Label:    slot.Label,
				Deadline: slot.End,
			})
		}
	}

	return opts, nil
}

func (s *PaymentService) loadActiveProject(projectID uint) (*models.CollectiveProject, error) {
	var project models.CollectiveProject
	err := s.db.Where("is_active = ?", true).First(&project, projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewNotFound("project not found")
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}
