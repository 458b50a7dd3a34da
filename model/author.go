package model

import "time"

type Author struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Bio       *string   `json:"bio,omitempty"`
	BookCount int64     `json:"book_count"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateAuthorReq represents the author creation payload
// swagger:model CreateAuthorReq
type CreateAuthorReq struct {
	Name string  `json:"name" validate:"required"`
	Bio  *string `json:"bio,omitempty"`
}

// UpdateAuthorReq represents a partial author update
// swagger:model UpdateAuthorReq
type UpdateAuthorReq struct {
	Name *string `json:"name,omitempty"`
	Bio  *string `json:"bio,omitempty"`
}
