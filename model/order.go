// model/order.go
package model

import "time"

type OrderType string

const (
	OrderPurchase OrderType = "PURCHASE"
	OrderRental   OrderType = "RENTAL"
)

func (t OrderType) Valid() bool {
	return t == OrderPurchase || t == OrderRental
}

// Order is immutable once created. It has no status column: its effect
// lives entirely in the Book transition and the Rental it may have produced.
type Order struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	BookID    string    `json:"book_id"`
	Type      OrderType `json:"type"`
	CreatedAt time.Time `json:"created_at"`

	Book   *Book   `json:"book,omitempty"`
	Rental *Rental `json:"rental,omitempty"`
}

// CreateOrderReq represents the order creation payload
// swagger:model CreateOrderReq
type CreateOrderReq struct {
	BookID string `json:"book_id" validate:"required,uuid4"`
	Type   string `json:"type" validate:"required,oneof=PURCHASE RENTAL"`
	// Required for RENTAL orders, ignored otherwise.
	Duration string `json:"duration,omitempty" validate:"omitempty,oneof=TWO_WEEKS ONE_MONTH THREE_MONTHS"`
}
