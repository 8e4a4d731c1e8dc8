package transport

import (
	"net/http"

	"shopfront/internal/middleware"
	"shopfront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartItemRequest is the add-to-cart payload.
type CartItemRequest struct {
	VariantID string `json:"variant_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// CartQuantityRequest updates a line item's quantity. Zero removes the line.
type CartQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// WishlistItemRequest is the add-to-wishlist payload.
type WishlistItemRequest struct {
	VariantID string `json:"variant_id" validate:"required,uuid"`
}

// CartHandler handles cart and wishlist HTTP requests for the signed-in user.
type CartHandler struct {
	cart   service.CartService
	logger *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cart service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{cart: cart, logger: logger}
}

// RegisterRoutes registers cart and wishlist routes behind authentication
func (h *CartHandler) RegisterRoutes(r chi.Router, authenticated func(http.Handler) http.Handler) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Use(authenticated)
		r.Get("/", h.GetCart)
		r.Post("/", h.AddToCart)
		r.Put("/{variantID}", h.SetQuantity)
		r.Delete("/{variantID}", h.RemoveFromCart)
	})

	r.Route("/api/wishlist", func(r chi.Router) {
		r.Use(authenticated)
		r.Get("/", h.GetWishlist)
		r.Post("/", h.AddToWishlist)
		r.Delete("/{variantID}", h.RemoveFromWishlist)
	})
}

func currentUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(raw)
	if err != nil {
		middleware.RespondWithError(w, http.StatusUnauthorized, "Invalid user identity")
		return uuid.Nil, false
	}

	return userID, true
}

func pathVariantID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	variantID, err := uuid.Parse(chi.URLParam(r, "variantID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid variant ID")
		return uuid.Nil, false
	}
	return variantID, true
}

// GetCart lists the user's cart items
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	items, err := h.cart.GetCart(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to get cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, items)
}

// AddToCart adds a variant to the cart, accumulating quantity on repeat adds
func (h *CartHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req CartItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}

	variantID, err := uuid.Parse(req.VariantID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid variant ID")
		return
	}

	item, err := h.cart.AddToCart(r.Context(), userID, variantID, req.Quantity)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to add to cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, item)
}

// SetQuantity updates one line item's quantity
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	variantID, ok := pathVariantID(w, r)
	if !ok {
		return
	}

	var req CartQuantityRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}

	if err := h.cart.SetQuantity(r.Context(), userID, variantID, req.Quantity); err != nil {
		respondServiceError(w, h.logger, err, "failed to update cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "cart updated"})
}

// RemoveFromCart deletes one line item
func (h *CartHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	variantID, ok := pathVariantID(w, r)
	if !ok {
		return
	}

	if err := h.cart.RemoveFromCart(r.Context(), userID, variantID); err != nil {
		respondServiceError(w, h.logger, err, "failed to remove from cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "item removed"})
}

// GetWishlist lists the user's wishlist
func (h *CartHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	items, err := h.cart.GetWishlist(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to get wishlist")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, items)
}

// AddToWishlist adds a variant to the wishlist; duplicates are a no-op
func (h *CartHandler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req WishlistItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}

	variantID, err := uuid.Parse(req.VariantID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid variant ID")
		return
	}

	item, err := h.cart.AddToWishlist(r.Context(), userID, variantID)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to add to wishlist")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, item)
}

// RemoveFromWishlist deletes a wishlist entry
func (h *CartHandler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	variantID, ok := pathVariantID(w, r)
	if !ok {
		return
	}

	if err := h.cart.RemoveFromWishlist(r.Context(), userID, variantID); err != nil {
		respondServiceError(w, h.logger, err, "failed to remove from wishlist")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "item removed"})
}
