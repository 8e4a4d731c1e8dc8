package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shopfront/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrCategoryNotFound   = errors.New("category not found")
	ErrCategorySlugExists = errors.New("category with this slug already exists")
)

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	Update(ctx context.Context, category *domain.Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	List(ctx context.Context, includeDeleted bool) ([]*domain.Category, error)
	SetDeleted(ctx context.Context, id uuid.UUID, deleted bool, deletedAt *time.Time) error
	CountChildren(ctx context.Context, id uuid.UUID) (subcategories, products int, err error)
	Delete(ctx context.Context, id uuid.UUID) error
	WithTx(tx *sql.Tx) CategoryRepository
}

type categoryRepository struct {
	db DBTX
}

// NewCategoryRepository creates a new instance of CategoryRepository
func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *categoryRepository) WithTx(tx *sql.Tx) CategoryRepository {
	return &categoryRepository{db: tx}
}

const categoryColumns = `id, name, slug, image_url, is_deleted, deleted_at, created_at, updated_at`

// Create inserts a new category using parameterized queries
func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (id, name, slug, image_url, is_deleted, deleted_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		category.ID,
		category.Name,
		category.Slug,
		category.ImageURL,
		category.IsDeleted,
		category.DeletedAt,
		category.CreatedAt,
		category.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, "categories_slug_key") {
			return ErrCategorySlugExists
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

// Update updates name, slug and image of an existing category
func (r *categoryRepository) Update(ctx context.Context, category *domain.Category) error {
	query := `
		UPDATE categories
		SET name = $2, slug = $3, image_url = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		category.ID,
		category.Name,
		category.Slug,
		category.ImageURL,
		category.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, "categories_slug_key") {
			return ErrCategorySlugExists
		}
		return fmt.Errorf("failed to update category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

// FindByID retrieves a category by ID
func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	query := fmt.Sprintf(`SELECT %s FROM categories WHERE id = $1`, categoryColumns)

	category := &domain.Category{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&category.Slug,
		&category.ImageURL,
		&category.IsDeleted,
		&category.DeletedAt,
		&category.CreatedAt,
		&category.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category by ID: %w", err)
	}

	return category, nil
}

// List retrieves all categories, optionally including soft-deleted ones
func (r *categoryRepository) List(ctx context.Context, includeDeleted bool) ([]*domain.Category, error) {
	query := fmt.Sprintf(`SELECT %s FROM categories`, categoryColumns)
	if !includeDeleted {
		query += ` WHERE is_deleted = FALSE`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		category := &domain.Category{}
		err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.Slug,
			&category.ImageURL,
			&category.IsDeleted,
			&category.DeletedAt,
			&category.CreatedAt,
			&category.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// SetDeleted flips the soft-delete flag of a single category
func (r *categoryRepository) SetDeleted(ctx context.Context, id uuid.UUID, deleted bool, deletedAt *time.Time) error {
	query := `
		UPDATE categories
		SET is_deleted = $2, deleted_at = $3, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, deleted, deletedAt)
	if err != nil {
		return fmt.Errorf("failed to set category deleted state: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

// CountChildren counts all subcategories and products owned by the category,
// soft-deleted rows included. Hard deletion is blocked while either is nonzero.
func (r *categoryRepository) CountChildren(ctx context.Context, id uuid.UUID) (int, int, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM subcategories WHERE category_id = $1),
			(SELECT COUNT(*) FROM products WHERE category_id = $1)
	`

	var subcategories, products int
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&subcategories, &products); err != nil {
		return 0, 0, fmt.Errorf("failed to count category children: %w", err)
	}

	return subcategories, products, nil
}

// Delete removes a category row permanently
func (r *categoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCategoryNotFound
	}

	return nil
}
