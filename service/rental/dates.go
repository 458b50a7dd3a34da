package rentalsvc

import (
	"fmt"
	"time"

	"bookcatalog/model"
)

// Dates for a lease: when it starts, when it ends, and when the reminder
// fires. Pure calendar arithmetic, no I/O.
type Dates struct {
	StartAt        time.Time
	EndAt          time.Time
	AutoReminderAt time.Time
}

// CalcDates computes the lease window. TWO_WEEKS adds exactly 14 days;
// the month durations use calendar months via AddDate, which normalizes
// overflow forward (Jan 31 + 1 month lands on Mar 2 or Mar 3) instead of
// ever producing an invalid date. The reminder sits lead before the end.
func CalcDates(duration model.RentalDuration, startAt time.Time, lead time.Duration) (Dates, error) {
	var endAt time.Time
	switch duration {
	case model.TwoWeeks:
		endAt = startAt.AddDate(0, 0, 14)
	case model.OneMonth:
		endAt = startAt.AddDate(0, 1, 0)
	case model.ThreeMonths:
		endAt = startAt.AddDate(0, 3, 0)
	default:
		return Dates{}, fmt.Errorf("unsupported rental duration: %q", duration)
	}

	return Dates{
		StartAt:        startAt,
		EndAt:          endAt,
		AutoReminderAt: endAt.Add(-lead),
	}, nil
}
