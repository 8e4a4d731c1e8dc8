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
	ErrSubcategoryNotFound   = errors.New("subcategory not found")
	ErrSubcategorySlugExists = errors.New("subcategory with this slug already exists")
)

// SubcategoryRepository defines the interface for subcategory data access
type SubcategoryRepository interface {
	Create(ctx context.Context, subcategory *domain.Subcategory) error
	Update(ctx context.Context, subcategory *domain.Subcategory) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Subcategory, error)
	ListByCategory(ctx context.Context, categoryID uuid.UUID, includeDeleted bool) ([]*domain.Subcategory, error)
	SetDeleted(ctx context.Context, id uuid.UUID, deleted bool, deletedAt *time.Time) error
	SetDeletedByCategory(ctx context.Context, categoryID uuid.UUID, deleted bool, deletedAt *time.Time) error
	CountProducts(ctx context.Context, id uuid.UUID) (int, error)
	Delete(ctx context.Context, id uuid.UUID) error
	WithTx(tx *sql.Tx) SubcategoryRepository
}

type subcategoryRepository struct {
	db DBTX
}

// NewSubcategoryRepository creates a new instance of SubcategoryRepository
func NewSubcategoryRepository(db *sql.DB) SubcategoryRepository {
	return &subcategoryRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *subcategoryRepository) WithTx(tx *sql.Tx) SubcategoryRepository {
	return &subcategoryRepository{db: tx}
}

const subcategoryColumns = `id, category_id, name, slug, image_url, is_deleted, deleted_at, created_at, updated_at`

func scanSubcategory(row interface{ Scan(...any) error }) (*domain.Subcategory, error) {
	subcategory := &domain.Subcategory{}
	err := row.Scan(
		&subcategory.ID,
		&subcategory.CategoryID,
		&subcategory.Name,
		&subcategory.Slug,
		&subcategory.ImageURL,
		&subcategory.IsDeleted,
		&subcategory.DeletedAt,
		&subcategory.CreatedAt,
		&subcategory.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return subcategory, nil
}

// Create inserts a new subcategory using parameterized queries
func (r *subcategoryRepository) Create(ctx context.Context, subcategory *domain.Subcategory) error {
	query := `
		INSERT INTO subcategories (id, category_id, name, slug, image_url, is_deleted, deleted_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		subcategory.ID,
		subcategory.CategoryID,
		subcategory.Name,
		subcategory.Slug,
		subcategory.ImageURL,
		subcategory.IsDeleted,
		subcategory.DeletedAt,
		subcategory.CreatedAt,
		subcategory.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, "subcategories_slug_key") {
			return ErrSubcategorySlugExists
		}
		return fmt.Errorf("failed to create subcategory: %w", err)
	}

	return nil
}

// Update updates name, slug and image of an existing subcategory
func (r *subcategoryRepository) Update(ctx context.Context, subcategory *domain.Subcategory) error {
	query := `
		UPDATE subcategories
		SET name = $2, slug = $3, image_url = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		subcategory.ID,
		subcategory.Name,
		subcategory.Slug,
		subcategory.ImageURL,
		subcategory.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, "subcategories_slug_key") {
			return ErrSubcategorySlugExists
		}
		return fmt.Errorf("failed to update subcategory: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrSubcategoryNotFound
	}

	return nil
}

// FindByID retrieves a subcategory by ID
func (r *subcategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Subcategory, error) {
	query := fmt.Sprintf(`SELECT %s FROM subcategories WHERE id = $1`, subcategoryColumns)

	subcategory, err := scanSubcategory(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSubcategoryNotFound
		}
		return nil, fmt.Errorf("failed to find subcategory by ID: %w", err)
	}

	return subcategory, nil
}

// ListByCategory retrieves subcategories owned by the given category
func (r *subcategoryRepository) ListByCategory(ctx context.Context, categoryID uuid.UUID, includeDeleted bool) ([]*domain.Subcategory, error) {
	query := fmt.Sprintf(`SELECT %s FROM subcategories WHERE category_id = $1`, subcategoryColumns)
	if !includeDeleted {
		query += ` AND is_deleted = FALSE`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subcategories: %w", err)
	}
	defer rows.Close()

	subcategories := []*domain.Subcategory{}
	for rows.Next() {
		subcategory, err := scanSubcategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subcategory: %w", err)
		}
		subcategories = append(subcategories, subcategory)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subcategories: %w", err)
	}

	return subcategories, nil
}

// SetDeleted flips the soft-delete flag of a single subcategory
func (r *subcategoryRepository) SetDeleted(ctx context.Context, id uuid.UUID, deleted bool, deletedAt *time.Time) error {
	query := `
		UPDATE subcategories
		SET is_deleted = $2, deleted_at = $3, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, deleted, deletedAt)
	if err != nil {
		return fmt.Errorf("failed to set subcategory deleted state: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrSubcategoryNotFound
	}

	return nil
}

// SetDeletedByCategory flips the soft-delete flag of every subcategory owned
// by the given category. Affecting zero rows is not an error.
func (r *subcategoryRepository) SetDeletedByCategory(ctx context.Context, categoryID uuid.UUID, deleted bool, deletedAt *time.Time) error {
	query := `
		UPDATE subcategories
		SET is_deleted = $2, deleted_at = $3, updated_at = NOW()
		WHERE category_id = $1
	`

	if _, err := r.db.ExecContext(ctx, query, categoryID, deleted, deletedAt); err != nil {
		return fmt.Errorf("failed to cascade subcategory deleted state: %w", err)
	}

	return nil
}

// CountProducts counts all products owned by the subcategory, soft-deleted
// rows included.
func (r *subcategoryRepository) CountProducts(ctx context.Context, id uuid.UUID) (int, error) {
	var products int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE subcategory_id = $1`, id).Scan(&products)
	if err != nil {
		return 0, fmt.Errorf("failed to count subcategory products: %w", err)
	}

	return products, nil
}

// Delete removes a subcategory row permanently
func (r *subcategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM subcategories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete subcategory: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrSubcategoryNotFound
	}

	return nil
}
