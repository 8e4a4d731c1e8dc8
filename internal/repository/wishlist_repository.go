package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shopfront/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrWishlistItemNotFound = errors.New("wishlist item not found")
)

// WishlistRepository defines the interface for wishlist entry data access
type WishlistRepository interface {
	Add(ctx context.Context, item *domain.WishlistItem) error
	Remove(ctx context.Context, userID, variantID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.WishlistItem, error)
	DeleteByProduct(ctx context.Context, productID uuid.UUID) error
	WithTx(tx *sql.Tx) WishlistRepository
}

type wishlistRepository struct {
	db DBTX
}

// NewWishlistRepository creates a new instance of WishlistRepository
func NewWishlistRepository(db *sql.DB) WishlistRepository {
	return &wishlistRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *wishlistRepository) WithTx(tx *sql.Tx) WishlistRepository {
	return &wishlistRepository{db: tx}
}

// Add records a wishlist entry; adding the same variant twice is a no-op.
func (r *wishlistRepository) Add(ctx context.Context, item *domain.WishlistItem) error {
	query := `
		INSERT INTO wishlist_items (id, user_id, variant_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, variant_id) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, item.ID, item.UserID, item.VariantID, item.CreatedAt); err != nil {
		return fmt.Errorf("failed to add wishlist item: %w", err)
	}

	return nil
}

// Remove deletes one wishlist entry
func (r *wishlistRepository) Remove(ctx context.Context, userID, variantID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM wishlist_items WHERE user_id = $1 AND variant_id = $2`, userID, variantID)
	if err != nil {
		return fmt.Errorf("failed to remove wishlist item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrWishlistItemNotFound
	}

	return nil
}

// ListByUser retrieves the user's wishlist ordered by recency
func (r *wishlistRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.WishlistItem, error) {
	query := `
		SELECT id, user_id, variant_id, created_at
		FROM wishlist_items
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlist items: %w", err)
	}
	defer rows.Close()

	items := []*domain.WishlistItem{}
	for rows.Next() {
		item := &domain.WishlistItem{}
		if err := rows.Scan(&item.ID, &item.UserID, &item.VariantID, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wishlist item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wishlist items: %w", err)
	}

	return items, nil
}

// DeleteByProduct removes every wishlist entry referencing any variant of the
// product. Part of the manual cascade performed on product hard delete.
func (r *wishlistRepository) DeleteByProduct(ctx context.Context, productID uuid.UUID) error {
	query := `
		DELETE FROM wishlist_items
		WHERE variant_id IN (SELECT id FROM variants WHERE product_id = $1)
	`

	if _, err := r.db.ExecContext(ctx, query, productID); err != nil {
		return fmt.Errorf("failed to delete wishlist items for product: %w", err)
	}

	return nil
}
