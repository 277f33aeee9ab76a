package reconcile

import (
	"time"

	"github.com/coletiva/backend/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Row is one line of a payment status report.
type Row struct {
	FirstName   string
	LastName    string
	Phone       string
	PeriodLabel string
	Sequence    int
	Status      Status
	PaidAt      *time.Time
	ReceiptPath string
	Amount      decimal.Decimal // project's current per-participant amount, a display snapshot
}

// Params select the reporting scope for one reconciliation pass.
type Params struct {
	Year  int
	Month int // 0 when interval = year
	Week  int // 0 = every week of the month
	Scope StatusScope
	Mode  Mode
}

// Reconciler streams payment status rows for one project: slots are computed
// once, memberships are paged through a keyset cursor, and the payment index
// is rebuilt once per batch. The pass is single-threaded and read-only; every
// call to Each re-runs the whole pipeline from scratch.
type Reconciler struct {
	DB        *gorm.DB
	Project   *models.CollectiveProject
	Params    Params
	BatchSize int
	Loc       *time.Location
	Now       func() time.Time
}

// Each invokes fn for every report row in deterministic order: membership id
// ascending outer, slot order inner. It stops at the first error, either from
// fn or from the persistence layer.
func (r *Reconciler) Each(fn func(Row) error) error {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	loc := r.Loc
	if loc == nil {
		loc = time.UTC
	}

	slots := BuildSlots(r.Project.PaymentInterval, r.Project.PaymentsPerInterval,
		r.Params.Year, r.Params.Month, r.Params.Week, loc)

	cursor := NewMembershipCursor(r.DB, r.Project.ID, r.Params.Scope, r.BatchSize)

	for {
		batch, err := cursor.Next()
		if err != nil {
			return err
		}
		if batch == nil {
			return nil
		}

		userIDs := make([]uint, 0, len(batch))
		for _, m := range batch {
			userIDs = append(userIDs, m.UserID)
		}

		idx, err := LoadPaymentIndex(r.DB, r.Project.ID, r.Project.PaymentInterval,
			r.Params.Year, r.Params.Month, r.Params.Week, userIDs)
		if err != nil {
			return err
		}

		at := now()
		for _, m := range batch {
			for _, slot := range slots {
				ev := idx.Lookup(m.UserID, slot.Key)
				status := Classify(r.Params.Mode, m.AcceptedAt, slot, ev, at)

				row := Row{
					FirstName:   m.FirstName,
					LastName:    m.LastName,
					Phone:       m.Phone,
					PeriodLabel: slot.Label,
					Sequence:    slot.Sequence,
					Status:      status,
					Amount:      r.Project.AmountPerParticipant,
				}
				// A not-applicable slot shows no payment even when a stray
				// payment row exists for it.
				if ev != nil && status != StatusNotApplicable {
					paidAt := ev.PaidAt
					row.PaidAt = &paidAt
					row.ReceiptPath = ev.ReceiptPath
				}

				if err := fn(row); err != nil {
					return err
				}
			}
		}
	}
}
