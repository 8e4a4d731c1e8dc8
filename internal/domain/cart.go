package domain

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one line of a user's cart, keyed by (user, variant).
type CartItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	VariantID uuid.UUID `json:"variant_id" db:"variant_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// WishlistItem marks a variant a user wants to keep an eye on.
type WishlistItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	VariantID uuid.UUID `json:"variant_id" db:"variant_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
