package model

import "time"

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	BookCount int64     `json:"book_count"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateCategoryReq represents the category creation payload
// swagger:model CreateCategoryReq
type CreateCategoryReq struct {
	Name string `json:"name" validate:"required"`
}

// UpdateCategoryReq represents a category rename
// swagger:model UpdateCategoryReq
type UpdateCategoryReq struct {
	Name string `json:"name" validate:"required"`
}
