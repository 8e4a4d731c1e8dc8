package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"shopfront/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrProductSlugExists  = errors.New("product with this slug already exists")
	ErrDuplicateSKU       = errors.New("variant with this SKU already exists")
	ErrVariantTagConflict = errors.New("variant tags the same attribute twice")
)

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "ASC"
	SortOrderDesc SortOrder = "DESC"
)

// ProductFilter narrows storefront and admin product listings.
type ProductFilter struct {
	CategoryID     *uuid.UUID
	SubcategoryID  *uuid.UUID
	MinPrice       *float64
	MaxPrice       *float64
	Query          string
	IncludeDeleted bool
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      SortOrder
}

// ProductRepository defines the interface for product data access. Create,
// Update and Delete also maintain the product's variant, tag and image rows.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, int, error)
	SetDeleted(ctx context.Context, id uuid.UUID, deleted bool, deletedAt *time.Time) error
	SetDeletedByCategory(ctx context.Context, categoryID uuid.UUID, deleted bool, deletedAt *time.Time) error
	SetDeletedBySubcategory(ctx context.Context, subcategoryID uuid.UUID, deleted bool, deletedAt *time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	WithTx(tx *sql.Tx) ProductRepository
}

type productRepository struct {
	db DBTX
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *productRepository) WithTx(tx *sql.Tx) ProductRepository {
	return &productRepository{db: tx}
}

const productColumns = `id, category_id, subcategory_id, name, slug, description, is_deleted, deleted_at, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*domain.Product, error) {
	product := &domain.Product{}
	err := row.Scan(
		&product.ID,
		&product.CategoryID,
		&product.SubcategoryID,
		&product.Name,
		&product.Slug,
		&product.Description,
		&product.IsDeleted,
		&product.DeletedAt,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return product, nil
}

// Create inserts a product together with its variants, tags and images.
// Callers that need atomicity with other writes bind the repository to a
// transaction via WithTx.
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, category_id, subcategory_id, name, slug, description, is_deleted, deleted_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.CategoryID,
		product.SubcategoryID,
		product.Name,
		product.Slug,
		product.Description,
		product.IsDeleted,
		product.DeletedAt,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, "products_slug_key") {
			return ErrProductSlugExists
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	if err := r.insertVariants(ctx, product.ID, product.Variants); err != nil {
		return err
	}

	return r.insertImages(ctx, product.ID, product.Images)
}

// Update updates the product row and replaces its variants and images with
// the supplied sets.
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET category_id = $2, subcategory_id = $3, name = $4, slug = $5, description = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.CategoryID,
		product.SubcategoryID,
		product.Name,
		product.Slug,
		product.Description,
		product.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, "products_slug_key") {
			return ErrProductSlugExists
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	if err := r.deleteVariants(ctx, product.ID); err != nil {
		return err
	}
	if err := r.insertVariants(ctx, product.ID, product.Variants); err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM product_images WHERE product_id = $1`, product.ID); err != nil {
		return fmt.Errorf("failed to delete product images: %w", err)
	}

	return r.insertImages(ctx, product.ID, product.Images)
}

func (r *productRepository) insertVariants(ctx context.Context, productID uuid.UUID, variants []*domain.Variant) error {
	variantQuery := `
		INSERT INTO variants (id, product_id, sku, price, stock_quantity)
		VALUES ($1, $2, $3, $4, $5)
	`
	tagQuery := `
		INSERT INTO variant_attribute_values (variant_id, attribute_id, attribute_value_id)
		VALUES ($1, $2, $3)
	`

	for _, variant := range variants {
		_, err := r.db.ExecContext(ctx, variantQuery, variant.ID, productID, variant.SKU, variant.Price, variant.StockQuantity)
		if err != nil {
			if isUniqueViolation(err, "variants_sku_key") {
				return ErrDuplicateSKU
			}
			return fmt.Errorf("failed to create variant: %w", err)
		}

		for _, tag := range variant.Tags {
			_, err := r.db.ExecContext(ctx, tagQuery, variant.ID, tag.AttributeID, tag.AttributeValueID)
			if err != nil {
				if isUniqueViolation(err, "variant_attribute_values_pkey") {
					return ErrVariantTagConflict
				}
				return fmt.Errorf("failed to tag variant: %w", err)
			}
		}
	}

	return nil
}

func (r *productRepository) insertImages(ctx context.Context, productID uuid.UUID, images []*domain.ProductImage) error {
	query := `
		INSERT INTO product_images (id, product_id, url, position)
		VALUES ($1, $2, $3, $4)
	`

	for _, image := range images {
		if _, err := r.db.ExecContext(ctx, query, image.ID, productID, image.URL, image.Position); err != nil {
			return fmt.Errorf("failed to create product image: %w", err)
		}
	}

	return nil
}

func (r *productRepository) deleteVariants(ctx context.Context, productID uuid.UUID) error {
	tagQuery := `
		DELETE FROM variant_attribute_values
		WHERE variant_id IN (SELECT id FROM variants WHERE product_id = $1)
	`
	if _, err := r.db.ExecContext(ctx, tagQuery, productID); err != nil {
		return fmt.Errorf("failed to delete variant tags: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM variants WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("failed to delete variants: %w", err)
	}

	return nil
}

// FindByID retrieves a product with its variants, tags and images
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)
	return r.findOne(ctx, query, id)
}

// FindBySlug retrieves a product by its slug with variants, tags and images
func (r *productRepository) FindBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE slug = $1`, productColumns)
	return r.findOne(ctx, query, slug)
}

func (r *productRepository) findOne(ctx context.Context, query string, arg any) (*domain.Product, error) {
	product, err := scanProduct(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	if product.Variants, err = r.loadVariants(ctx, product.ID); err != nil {
		return nil, err
	}
	if product.Images, err = r.loadImages(ctx, product.ID); err != nil {
		return nil, err
	}

	return product, nil
}

func (r *productRepository) loadVariants(ctx context.Context, productID uuid.UUID) ([]*domain.Variant, error) {
	query := `
		SELECT id, product_id, sku, price, stock_quantity
		FROM variants
		WHERE product_id = $1
		ORDER BY sku ASC
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load variants: %w", err)
	}
	defer rows.Close()

	variants := []*domain.Variant{}
	byID := map[uuid.UUID]*domain.Variant{}
	for rows.Next() {
		variant := &domain.Variant{}
		if err := rows.Scan(&variant.ID, &variant.ProductID, &variant.SKU, &variant.Price, &variant.StockQuantity); err != nil {
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}
		variants = append(variants, variant)
		byID[variant.ID] = variant
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating variants: %w", err)
	}

	tagQuery := `
		SELECT vav.variant_id, vav.attribute_id, vav.attribute_value_id
		FROM variant_attribute_values vav
		JOIN variants v ON v.id = vav.variant_id
		WHERE v.product_id = $1
	`

	tagRows, err := r.db.QueryContext(ctx, tagQuery, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load variant tags: %w", err)
	}
	defer tagRows.Close()

	for tagRows.Next() {
		var variantID uuid.UUID
		var tag domain.VariantTag
		if err := tagRows.Scan(&variantID, &tag.AttributeID, &tag.AttributeValueID); err != nil {
			return nil, fmt.Errorf("failed to scan variant tag: %w", err)
		}
		if variant, ok := byID[variantID]; ok {
			variant.Tags = append(variant.Tags, tag)
		}
	}
	if err = tagRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating variant tags: %w", err)
	}

	return variants, nil
}

func (r *productRepository) loadImages(ctx context.Context, productID uuid.UUID) ([]*domain.ProductImage, error) {
	query := `
		SELECT id, product_id, url, position
		FROM product_images
		WHERE product_id = $1
		ORDER BY position ASC
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product images: %w", err)
	}
	defer rows.Close()

	images := []*domain.ProductImage{}
	for rows.Next() {
		image := &domain.ProductImage{}
		if err := rows.Scan(&image.ID, &image.ProductID, &image.URL, &image.Position); err != nil {
			return nil, fmt.Errorf("failed to scan product image: %w", err)
		}
		images = append(images, image)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product images: %w", err)
	}

	return images, nil
}

// List retrieves products matching the filter with pagination and sorting.
// Price bounds match products that have at least one variant inside the range.
func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]*domain.Product, int, error) {
	// Validate sort field to prevent SQL injection
	validSortFields := map[string]bool{
		"name":       true,
		"created_at": true,
	}
	sortBy := filter.SortBy
	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}

	sortOrder := filter.SortOrder
	if sortOrder != SortOrderAsc && sortOrder != SortOrderDesc {
		sortOrder = SortOrderDesc
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	conditions := []string{}
	args := []any{}
	argIndex := 1

	if !filter.IncludeDeleted {
		conditions = append(conditions, "is_deleted = FALSE")
	}
	if filter.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("category_id = $%d", argIndex))
		args = append(args, *filter.CategoryID)
		argIndex++
	}
	if filter.SubcategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("subcategory_id = $%d", argIndex))
		args = append(args, *filter.SubcategoryID)
		argIndex++
	}
	if filter.MinPrice != nil {
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM variants v WHERE v.product_id = products.id AND v.price >= $%d)", argIndex))
		args = append(args, *filter.MinPrice)
		argIndex++
	}
	if filter.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM variants v WHERE v.product_id = products.id AND v.price <= $%d)", argIndex))
		args = append(args, *filter.MaxPrice)
		argIndex++
	}
	if strings.TrimSpace(filter.Query) != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+strings.TrimSpace(filter.Query)+"%")
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM products %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		%s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, productColumns, whereClause, sortBy, sortOrder, argIndex, argIndex+1)

	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating products: %w", err)
	}

	return products, total, nil
}

// SetDeleted flips the soft-delete flag of a single product
func (r *productRepository) SetDeleted(ctx context.Context, id uuid.UUID, deleted bool, deletedAt *time.Time) error {
	query := `
		UPDATE products
		SET is_deleted = $2, deleted_at = $3, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, deleted, deletedAt)
	if err != nil {
		return fmt.Errorf("failed to set product deleted state: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// SetDeletedByCategory flips the soft-delete flag of every product owned by
// the category, whether directly or through one of its subcategories.
func (r *productRepository) SetDeletedByCategory(ctx context.Context, categoryID uuid.UUID, deleted bool, deletedAt *time.Time) error {
	query := `
		UPDATE products
		SET is_deleted = $2, deleted_at = $3, updated_at = NOW()
		WHERE category_id = $1
	`

	if _, err := r.db.ExecContext(ctx, query, categoryID, deleted, deletedAt); err != nil {
		return fmt.Errorf("failed to cascade product deleted state by category: %w", err)
	}

	return nil
}

// SetDeletedBySubcategory flips the soft-delete flag of every product owned
// by the subcategory.
func (r *productRepository) SetDeletedBySubcategory(ctx context.Context, subcategoryID uuid.UUID, deleted bool, deletedAt *time.Time) error {
	query := `
		UPDATE products
		SET is_deleted = $2, deleted_at = $3, updated_at = NOW()
		WHERE subcategory_id = $1
	`

	if _, err := r.db.ExecContext(ctx, query, subcategoryID, deleted, deletedAt); err != nil {
		return fmt.Errorf("failed to cascade product deleted state by subcategory: %w", err)
	}

	return nil
}

// Delete removes the product row along with its variants, tags and images.
// Cart and wishlist references must already be gone; the service removes them
// inside the same transaction.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.deleteVariants(ctx, id); err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM product_images WHERE product_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete product images: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}
