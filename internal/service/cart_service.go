package service

import (
	"context"
	"errors"
	"time"

	"shopfront/internal/domain"
	"shopfront/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// CartService manages per-user cart line items and wishlist entries.
type CartService interface {
	AddToCart(ctx context.Context, userID, variantID uuid.UUID, quantity int) (*domain.CartItem, error)
	SetQuantity(ctx context.Context, userID, variantID uuid.UUID, quantity int) error
	RemoveFromCart(ctx context.Context, userID, variantID uuid.UUID) error
	GetCart(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error)

	AddToWishlist(ctx context.Context, userID, variantID uuid.UUID) (*domain.WishlistItem, error)
	RemoveFromWishlist(ctx context.Context, userID, variantID uuid.UUID) error
	GetWishlist(ctx context.Context, userID uuid.UUID) ([]*domain.WishlistItem, error)
}

type cartService struct {
	cart     repository.CartRepository
	wishlist repository.WishlistRepository
}

// NewCartService creates a new instance of CartService
func NewCartService(cart repository.CartRepository, wishlist repository.WishlistRepository) CartService {
	return &cartService{cart: cart, wishlist: wishlist}
}

// AddToCart upserts a line item; adding an already-carted variant accumulates
// its quantity.
func (s *cartService) AddToCart(ctx context.Context, userID, variantID uuid.UUID, quantity int) (*domain.CartItem, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	now := time.Now().UTC()
	item := &domain.CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		VariantID: variantID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.cart.Upsert(ctx, item); err != nil {
		return nil, err
	}

	return item, nil
}

// SetQuantity replaces a line item's quantity; zero removes the line.
func (s *cartService) SetQuantity(ctx context.Context, userID, variantID uuid.UUID, quantity int) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	if quantity == 0 {
		return s.cart.Remove(ctx, userID, variantID)
	}
	return s.cart.SetQuantity(ctx, userID, variantID, quantity)
}

// RemoveFromCart deletes a line item
func (s *cartService) RemoveFromCart(ctx context.Context, userID, variantID uuid.UUID) error {
	return s.cart.Remove(ctx, userID, variantID)
}

// GetCart retrieves the user's cart
func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error) {
	return s.cart.ListByUser(ctx, userID)
}

// AddToWishlist records a wishlist entry; duplicates are a no-op
func (s *cartService) AddToWishlist(ctx context.Context, userID, variantID uuid.UUID) (*domain.WishlistItem, error) {
	item := &domain.WishlistItem{
		ID:        uuid.New(),
		UserID:    userID,
		VariantID: variantID,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.wishlist.Add(ctx, item); err != nil {
		return nil, err
	}

	return item, nil
}

// RemoveFromWishlist deletes a wishlist entry
func (s *cartService) RemoveFromWishlist(ctx context.Context, userID, variantID uuid.UUID) error {
	return s.wishlist.Remove(ctx, userID, variantID)
}

// GetWishlist retrieves the user's wishlist
func (s *cartService) GetWishlist(ctx context.Context, userID uuid.UUID) ([]*domain.WishlistItem, error) {
	return s.wishlist.ListByUser(ctx, userID)
}
