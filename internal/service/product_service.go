package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"shopfront/internal/database"
	"shopfront/internal/domain"
	"shopfront/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrProductNeedsVariant         = errors.New("product requires at least one variant")
	ErrDuplicateVariantCombination = errors.New("two variants share the same attribute combination")
	ErrRepeatedAttribute           = errors.New("variant tags the same attribute more than once")
)

// VariantInput describes one variant of a product create/update request.
type VariantInput struct {
	SKU           string
	Price         float64
	StockQuantity int
	Tags          []domain.VariantTag
}

// ProductInput describes a product create/update request. Variants and images
// always replace the stored sets; they have no lifecycle of their own.
type ProductInput struct {
	CategoryID    uuid.UUID
	SubcategoryID *uuid.UUID
	Name          string
	Description   string
	Variants      []VariantInput
	ImageURLs     []string
}

// ResolveResult is the outcome of matching a selection against a product's
// variants. A nil Variant is a valid "no match yet" state.
type ResolveResult struct {
	Variant         *domain.Variant           `json:"variant"`
	HasEnough       bool                      `json:"has_enough_selections"`
	AvailableValues map[uuid.UUID][]uuid.UUID `json:"available_values"`
}

// ProductCache is a read-through cache for storefront product detail. Misses
// and cache trouble are both just misses; the database remains the source of
// truth. The redis cache implements it; a nil cache disables caching.
type ProductCache interface {
	GetProduct(ctx context.Context, slug string) (*domain.Product, bool)
	SetProduct(ctx context.Context, slug string, product *domain.Product)
	InvalidateProduct(ctx context.Context, slug string)
}

// ProductService owns product CRUD, soft-delete toggling, hard deletion with
// its manual cart/wishlist cascade, and storefront variant resolution.
type ProductService interface {
	Create(ctx context.Context, input ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error)
	ToggleDeleted(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	HardDelete(ctx context.Context, id uuid.UUID) (*DeletedRecord, error)
	Resolve(ctx context.Context, id uuid.UUID, selections Selections) (*ResolveResult, error)
}

type productService struct {
	tx          database.Transactor
	products    repository.ProductRepository
	categories  repository.CategoryRepository
	cart        repository.CartRepository
	wishlist    repository.WishlistRepository
	cache       ProductCache
}

// NewProductService creates a new instance of ProductService
func NewProductService(
	tx database.Transactor,
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	cart repository.CartRepository,
	wishlist repository.WishlistRepository,
	cache ProductCache,
) ProductService {
	return &productService{
		tx:          tx,
		products:    products,
		categories:  categories,
		cart:        cart,
		wishlist:    wishlist,
		cache:       cache,
	}
}

// Create validates the variant set and inserts the product with its variants
// and images in one transaction.
func (s *productService) Create(ctx context.Context, input ProductInput) (*domain.Product, error) {
	if err := validateVariants(input.Variants); err != nil {
		return nil, err
	}
	if _, err := s.categories.FindByID(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	product := buildProduct(uuid.New(), input)

	err := s.tx.InTx(ctx, func(tx *sql.Tx) error {
		return s.products.WithTx(tx).Create(ctx, product)
	})
	if err != nil {
		return nil, err
	}

	return product, nil
}

// Update validates the variant set and replaces the product's row, variants
// and images in one transaction, then invalidates the cached detail.
func (s *productService) Update(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error) {
	if err := validateVariants(input.Variants); err != nil {
		return nil, err
	}

	existing, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	product := buildProduct(id, input)
	product.CreatedAt = existing.CreatedAt
	product.IsDeleted = existing.IsDeleted
	product.DeletedAt = existing.DeletedAt

	err = s.tx.InTx(ctx, func(tx *sql.Tx) error {
		return s.products.WithTx(tx).Update(ctx, product)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, existing.Slug, product.Slug)
	return product, nil
}

func buildProduct(id uuid.UUID, input ProductInput) *domain.Product {
	now := time.Now().UTC()
	product := &domain.Product{
		ID:            id,
		CategoryID:    input.CategoryID,
		SubcategoryID: input.SubcategoryID,
		Name:          input.Name,
		Slug:          Slugify(input.Name),
		Description:   input.Description,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	for _, v := range input.Variants {
		product.Variants = append(product.Variants, &domain.Variant{
			ID:            uuid.New(),
			ProductID:     id,
			SKU:           v.SKU,
			Price:         v.Price,
			StockQuantity: v.StockQuantity,
			Tags:          v.Tags,
		})
	}

	for i, url := range input.ImageURLs {
		product.Images = append(product.Images, &domain.ProductImage{
			ID:        uuid.New(),
			ProductID: id,
			URL:       url,
			Position:  i,
		})
	}

	return product
}

// validateVariants rejects empty variant sets, repeated SKUs, tag sets that
// pin the same attribute twice, and two variants carrying an identical
// attribute-value combination.
func validateVariants(variants []VariantInput) error {
	if len(variants) == 0 {
		return ErrProductNeedsVariant
	}

	skus := map[string]bool{}
	combinations := map[string]bool{}

	for _, variant := range variants {
		sku := strings.TrimSpace(variant.SKU)
		if skus[sku] {
			return repository.ErrDuplicateSKU
		}
		skus[sku] = true

		attributes := map[uuid.UUID]bool{}
		for _, tag := range variant.Tags {
			if attributes[tag.AttributeID] {
				return ErrRepeatedAttribute
			}
			attributes[tag.AttributeID] = true
		}

		key := combinationKey(variant.Tags)
		if combinations[key] {
			return ErrDuplicateVariantCombination
		}
		combinations[key] = true
	}

	return nil
}

// combinationKey canonicalizes a tag set so order does not matter.
func combinationKey(tags []domain.VariantTag) string {
	parts := make([]string, 0, len(tags))
	for _, tag := range tags {
		parts = append(parts, tag.AttributeID.String()+"="+tag.AttributeValueID.String())
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}

// Get retrieves a product with variants and images
func (s *productService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.products.FindByID(ctx, id)
}

// GetBySlug retrieves a product by slug with variants and images, serving
// from the cache when possible.
func (s *productService) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	if s.cache != nil {
		if product, ok := s.cache.GetProduct(ctx, slug); ok {
			return product, nil
		}
	}

	product, err := s.products.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.SetProduct(ctx, slug, product)
	}

	return product, nil
}

// List retrieves products matching the filter
func (s *productService) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	return s.products.List(ctx, filter)
}

// ToggleDeleted flips the soft-delete state of a single product. Products own
// no cascading children of their own.
func (s *productService) ToggleDeleted(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	deleted := !product.IsDeleted
	var deletedAt *time.Time
	if deleted {
		now := time.Now().UTC()
		deletedAt = &now
	}

	if err := s.products.SetDeleted(ctx, id, deleted, deletedAt); err != nil {
		return nil, err
	}

	product.IsDeleted = deleted
	product.DeletedAt = deletedAt
	s.invalidate(ctx, product.Slug)
	return product, nil
}

// HardDelete permanently removes a product. Cart line items and wishlist
// entries referencing the product's variants are removed first; the whole
// cascade is manual and runs inside one transaction.
func (s *productService) HardDelete(ctx context.Context, id uuid.UUID) (*DeletedRecord, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.tx.InTx(ctx, func(tx *sql.Tx) error {
		if err := s.cart.WithTx(tx).DeleteByProduct(ctx, id); err != nil {
			return err
		}
		if err := s.wishlist.WithTx(tx).DeleteByProduct(ctx, id); err != nil {
			return err
		}
		return s.products.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to hard delete product: %w", err)
	}

	s.invalidate(ctx, product.Slug)
	return &DeletedRecord{ID: product.ID, Name: product.Name}, nil
}

// Resolve matches a selection against the product's variants and reports the
// still-choosable values for every attribute the product varies on.
func (s *productService) Resolve(ctx context.Context, id uuid.UUID, selections Selections) (*ResolveResult, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	matched := FindMatchingVariant(product.Variants, selections)

	attributes := map[uuid.UUID]bool{}
	for _, variant := range product.Variants {
		for _, tag := range variant.Tags {
			attributes[tag.AttributeID] = true
		}
	}

	available := map[uuid.UUID][]uuid.UUID{}
	for attributeID := range attributes {
		values := AvailableValues(product.Variants, attributeID, selections)
		ids := make([]uuid.UUID, 0, len(values))
		for valueID := range values {
			ids = append(ids, valueID)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
		available[attributeID] = ids
	}

	return &ResolveResult{
		Variant:         matched,
		HasEnough:       HasEnoughSelections(matched, selections),
		AvailableValues: available,
	}, nil
}

func (s *productService) invalidate(ctx context.Context, slugs ...string) {
	if s.cache == nil {
		return
	}
	seen := map[string]bool{}
	for _, slug := range slugs {
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		s.cache.InvalidateProduct(ctx, slug)
	}
}
