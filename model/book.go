// model/book.go
package model

import "time"

type BookStatus string

const (
	BookAvailable   BookStatus = "AVAILABLE"
	BookRented      BookStatus = "RENTED"
	BookSold        BookStatus = "SOLD"
	BookReserved    BookStatus = "RESERVED"
	BookMaintenance BookStatus = "MAINTENANCE"
)

func (s BookStatus) Valid() bool {
	switch s {
	case BookAvailable, BookRented, BookSold, BookReserved, BookMaintenance:
		return true
	}
	return false
}

// Book.Available is a projection of Status kept for fast filtering:
// it is true exactly when Status == AVAILABLE. Both columns are only
// written together, inside order/return transactions or catalog updates.
type Book struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    *string    `json:"description,omitempty"`
	AuthorID       string     `json:"author_id"`
	CategoryID     string     `json:"category_id"`
	Year           int        `json:"year"`
	PriceCents     int64      `json:"price_cents"`
	RentPriceCents int64      `json:"rent_price_cents"`
	Status         BookStatus `json:"status"`
	Available      bool       `json:"available"`
	CoverURL       *string    `json:"cover_url,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// CreateBookReq represents the admin book creation payload
// swagger:model CreateBookReq
type CreateBookReq struct {
	Title          string  `json:"title" validate:"required"`
	Description    *string `json:"description,omitempty"`
	AuthorID       string  `json:"author_id" validate:"required,uuid4"`
	CategoryID     string  `json:"category_id" validate:"required,uuid4"`
	Year           int     `json:"year" validate:"required,gte=1000,lte=2100"`
	PriceCents     int64   `json:"price_cents" validate:"gte=0"`
	RentPriceCents int64   `json:"rent_price_cents" validate:"gte=0"`
	CoverURL       *string `json:"cover_url,omitempty" validate:"omitempty,url"`
}

// UpdateBookReq represents a partial book update
// swagger:model UpdateBookReq
type UpdateBookReq struct {
	Title          *string     `json:"title,omitempty"`
	Description    *string     `json:"description,omitempty"`
	AuthorID       *string     `json:"author_id,omitempty" validate:"omitempty,uuid4"`
	CategoryID     *string     `json:"category_id,omitempty" validate:"omitempty,uuid4"`
	Year           *int        `json:"year,omitempty" validate:"omitempty,gte=1000,lte=2100"`
	PriceCents     *int64      `json:"price_cents,omitempty" validate:"omitempty,gte=0"`
	RentPriceCents *int64      `json:"rent_price_cents,omitempty" validate:"omitempty,gte=0"`
	Status         *BookStatus `json:"status,omitempty"`
	CoverURL       *string     `json:"cover_url,omitempty" validate:"omitempty,url"`
}
