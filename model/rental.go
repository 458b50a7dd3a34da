// model/rental.go
package model

import "time"

type RentalDuration string

const (
	TwoWeeks    RentalDuration = "TWO_WEEKS"
	OneMonth    RentalDuration = "ONE_MONTH"
	ThreeMonths RentalDuration = "THREE_MONTHS"
)

func (d RentalDuration) Valid() bool {
	switch d {
	case TwoWeeks, OneMonth, ThreeMonths:
		return true
	}
	return false
}

// Rental is the lease produced by a RENTAL order: exactly one per such
// order. IsActive flips true->false exactly once, on return.
type Rental struct {
	ID             string         `json:"id"`
	OrderID        string         `json:"order_id"`
	UserID         string         `json:"user_id"`
	BookID         string         `json:"book_id"`
	Duration       RentalDuration `json:"duration"`
	StartAt        time.Time      `json:"start_at"`
	EndAt          time.Time      `json:"end_at"`
	AutoReminderAt time.Time      `json:"auto_reminder_at"`
	IsActive       bool           `json:"is_active"`
	CreatedAt      time.Time      `json:"created_at"`

	Book  *Book  `json:"book,omitempty"`
	Order *Order `json:"order,omitempty"`
}
