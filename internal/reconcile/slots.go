package reconcile

import (
	"fmt"
	"time"

	"github.com/coletiva/backend/internal/models"
)

// Slot is one computed payment obligation, identified by
// (year, month-or-0, week-or-0, sequence). Slots are derived from the project
// schedule on every run and never persisted.
type Slot struct {
	Key      string
	Label    string
	Year     int
	Month    int // 0 when the interval is coarser than a month
	Week     int // 0 when the interval is coarser than a week
	Sequence int // 1..payments-per-interval
	End      time.Time // end-of-period deadline
}

// SlotKey builds the stable lookup key for a slot tuple. The same tuple always
// produces the same key, so payment rows can be matched against computed slots.
func SlotKey(year, month, week, sequence int) string {
	return fmt.Sprintf("%d|%d|%d|%d", year, month, week, sequence)
}

// WeeksInMonth returns how many week partitions the month has.
//
// Week partition policy: ISO-offset. The month is split into 7-day windows
// anchored at day 1, and the count accounts for the ISO weekday offset of
// day 1: ceil((offset + daysInMonth) / 7). Reports generated under a
// Sunday-boundary partition will not line up with this one.
func WeeksInMonth(year, month int, loc *time.Location) int {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	days := first.AddDate(0, 1, -1).Day()
	offset := isoWeekday(first) - 1
	return (offset + days + 6) / 7
}

// WeekStart returns the first instant of the given week-of-month:
// day 1 plus (week-1)*7 days.
func WeekStart(year, month, week int, loc *time.Location) time.Time {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc).AddDate(0, 0, (week-1)*7)
}

// BuildSlots derives the ordered obligation slots for one reporting scope.
// month is required for week and month intervals; week > 0 narrows a week
// interval to a single week-of-month. Invalid input is a programming error:
// callers validate filters before reaching the calculator.
func BuildSlots(interval string, perInterval, year, month, week int, loc *time.Location) []Slot {
	if perInterval < 1 {
		perInterval = 1
	}
	if loc == nil {
		loc = time.UTC
	}

	var slots []Slot

	switch interval {
	case models.IntervalWeek:
		weeks := WeeksInMonth(year, month, loc)
		from, to := 1, weeks
		if week > 0 {
			from, to = week, week
		}
		for w := from; w <= to; w++ {
			start := WeekStart(year, month, w, loc)
			end := endOfDay(start.AddDate(0, 0, 6))
			for seq := 1; seq <= perInterval; seq++ {
				slots = append(slots, Slot{
					Key:      SlotKey(year, month, w, seq),
					Label:    fmt.Sprintf("%04d-%02d / Semana %d", year, month, w),
					Year:     year,
					Month:    month,
					Week:     w,
					Sequence: seq,
					End:      end,
				})
			}
		}

	case models.IntervalMonth:
		first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
		end := endOfDay(first.AddDate(0, 1, -1))
		for seq := 1; seq <= perInterval; seq++ {
			slots = append(slots, Slot{
				Key:      SlotKey(year, month, 0, seq),
				Label:    fmt.Sprintf("%04d-%02d", year, month),
				Year:     year,
				Month:    month,
				Sequence: seq,
				End:      end,
			})
		}

	case models.IntervalYear:
		end := endOfDay(time.Date(year, time.December, 31, 0, 0, 0, 0, loc))
		for seq := 1; seq <= perInterval; seq++ {
			slots = append(slots, Slot{
				Key:      SlotKey(year, 0, 0, seq),
				Label:    fmt.Sprintf("%04d", year),
				Year:     year,
				Sequence: seq,
				End:      end,
			})
		}
	}

	return slots
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
