package reconcile

import (
	"fmt"

	"github.com/coletiva/backend/internal/models"
	"gorm.io/gorm"
)

// PaymentIndex maps user ID -> slot key -> latest payment evidence.
// It is rebuilt once per membership batch so the pass issues a bounded number
// of payment queries regardless of project size.
type PaymentIndex map[uint]map[string]Evidence

// Lookup returns the evidence for (userID, slotKey), or nil when the slot has
// no matching payment.
func (idx PaymentIndex) Lookup(userID uint, slotKey string) *Evidence {
	if byKey, ok := idx[userID]; ok {
		if ev, ok := byKey[slotKey]; ok {
			return &ev
		}
	}
	return nil
}

// LoadPaymentIndex loads every payment matching the reporting scope for one
// batch of users. month and week follow the sentinel convention: exact match
// for the interval's own granularity, 0 for coarser intervals, and week = 0
// on a week interval means "any week".
//
// The schema's unique slot index should prevent duplicates, but it is not
// assumed: when two rows land on the same (user, slot key) the one with the
// latest paid-at wins.
func LoadPaymentIndex(db *gorm.DB, projectID uint, interval string, year, month, week int, userIDs []uint) (PaymentIndex, error) {
	idx := make(PaymentIndex, len(userIDs))
	if len(userIDs) == 0 {
		return idx, nil
	}

	q := db.Model(&models.ProjectPayment{}).
		Where("project_id = ?", projectID).
		Where("user_id IN ?", userIDs).
		Where("period_year = ?", year)

	if interval == models.IntervalWeek || interval == models.IntervalMonth {
		q = q.Where("period_month = ?", month)
	} else {
		q = q.Where("period_month = 0")
	}

	if interval == models.IntervalWeek {
		if week > 0 {
			q = q.Where("period_week = ?", week)
		}
	} else {
		q = q.Where("period_week = 0")
	}

	var payments []models.ProjectPayment
	if err := q.Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("load payments: %w", err)
	}

	for _, p := range payments {
		key := SlotKey(p.PeriodYear, p.PeriodMonth, p.PeriodWeek, p.Sequence)
		byKey, ok := idx[p.UserID]
		if !ok {
			byKey = make(map[string]Evidence)
			idx[p.UserID] = byKey
		}
		if cur, ok := byKey[key]; ok && !p.PaidAt.After(cur.PaidAt) {
			continue
		}
		byKey[key] = Evidence{PaidAt: p.PaidAt, ReceiptPath: p.ReceiptPath}
	}

	return idx, nil
}
