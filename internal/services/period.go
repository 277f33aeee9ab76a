package services

import (
	"fmt"
	"time"

	"github.com/coletiva/backend/internal/models"
	"github.com/coletiva/backend/internal/reconcile"
	"github.com/coletiva/backend/pkg/response"
)

// validatePeriod checks a period selection against a project's payment
// interval. weekRequired distinguishes payments (one concrete week) from
// reports, where week 0 means "every week of the month".
//
// Rules per interval:
//
//	year:  month and week must be absent
//	month: month 1..12 required, week must be absent
//	week:  month 1..12 required, week 1..weeks-in-month (or 0 when optional)
func validatePeriod(project *models.CollectiveProject, year, month, week int, weekRequired bool) error {
	if year < 2000 || year > 2100 {
		return response.NewBadRequest("year must be between 2000 and 2100")
	}

	switch project.PaymentInterval {
	case models.IntervalYear:
		if month != 0 {
			return response.NewBadRequest("month does not apply to a yearly project")
		}
		if week != 0 {
			return response.NewBadRequest("week does not apply to a yearly project")
		}

	case models.IntervalMonth:
		if month < 1 || month > 12 {
			return response.NewBadRequest("month must be between 1 and 12")
		}
		if week != 0 {
			return response.NewBadRequest("week does not apply to a monthly project")
		}

	case models.IntervalWeek:
		if month < 1 || month > 12 {
			return response.NewBadRequest("month must be between 1 and 12")
		}
		if week == 0 && !weekRequired {
			return nil
		}
		weeks := reconcile.WeeksInMonth(year, month, time.UTC)
		if week < 1 || week > weeks {
			return response.NewBadRequest(
				fmt.Sprintf("week must be between 1 and %d for %04d-%02d", weeks, year, month))
		}

	default:
		return response.NewBadRequest("project has an unknown payment interval")
	}

	return nil
}

// normalizePeriod rewrites the sentinel fields so persisted slot tuples always
// match computed slot keys: month 0 for yearly projects, week 0 for anything
// coarser than weekly.
func normalizePeriod(project *models.CollectiveProject, month, week int) (int, int) {
	switch project.PaymentInterval {
	case models.IntervalYear:
		return 0, 0
	case models.IntervalMonth:
		return month, 0
	default:
		return month, week
	}
}
