package reconcile

import (
	"time"
)

// Mode selects the classification variant. Strict mode is compliance-centric
// and checks deadlines and acceptance timing; simple mode is evidence-centric
// and only distinguishes paid from pending.
type Mode string

const (
	ModeStrict Mode = "strict"
	ModeSimple Mode = "simple"
)

// ValidMode reports whether v names a supported report mode.
func ValidMode(v Mode) bool {
	return v == ModeStrict || v == ModeSimple
}

// Status of one member × slot pair.
type Status string

const (
	StatusPaid          Status = "paid"
	StatusPending       Status = "pending"
	StatusOverdue       Status = "overdue"
	StatusNotApplicable Status = "not_applicable"
)

// Evidence is the latest recorded payment for a (member, slot) pair.
type Evidence struct {
	PaidAt      time.Time
	ReceiptPath string
}

// Classify determines the report status for a slot. acceptedAt is the
// member's acceptance instant (nil while pending), ev is nil when no payment
// matched the slot, and now is the injected report clock.
func Classify(mode Mode, acceptedAt *time.Time, slot Slot, ev *Evidence, now time.Time) Status {
	if mode == ModeSimple {
		if ev != nil {
			return StatusPaid
		}
		return StatusPending
	}

	// Member was accepted after the slot closed: the obligation never existed.
	if acceptedAt != nil && acceptedAt.After(slot.End) {
		return StatusNotApplicable
	}
	if ev != nil {
		return StatusPaid
	}
	if now.After(slot.End) {
		return StatusOverdue
	}
	return StatusPending
}

// LocalizeStatus maps a status to the participant-facing label used in
// exported reports.
func LocalizeStatus(s Status) string {
	switch s {
	case StatusPaid:
		return "Pago"
	case StatusOverdue:
		return "Em atraso"
	case StatusPending:
		return "Pendente"
	case StatusNotApplicable:
		return "Nao se aplica"
	default:
		return string(s)
	}
}
