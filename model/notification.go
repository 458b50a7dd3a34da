package model

import "time"

// Notification rows are produced by the external reminder dispatcher;
// this service only lists them and tracks the read flag.
type Notification struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	RentalID  *string    `json:"rental_id,omitempty"`
	Message   string     `json:"message"`
	Read      bool       `json:"read"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
