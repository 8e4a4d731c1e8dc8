package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shopfront/internal/database"
	"shopfront/internal/domain"
	"shopfront/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrCategoryHasChildren    = errors.New("category still owns subcategories or products")
	ErrSubcategoryHasProducts = errors.New("subcategory still owns products")
	ErrParentCategoryDeleted  = errors.New("cannot restore a subcategory under a deleted category")
)

// BatchToggleResult reports the outcome of a batch toggle. The three sets are
// disjoint and cover every requested id: Toggled counts successful flips,
// NotFound collects unknown ids, Blocked collects ids rejected by the
// restore-under-deleted-parent precondition.
type BatchToggleResult struct {
	Toggled  int         `json:"toggled"`
	NotFound []uuid.UUID `json:"not_found"`
	Blocked  []uuid.UUID `json:"blocked"`
}

// DeletedRecord identifies a hard-deleted row for confirmation messaging.
type DeletedRecord struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// CatalogService maintains the deleted/active invariant across the
// category -> subcategory -> product ownership chain. Every mutating call
// runs inside a single transaction: the parent and all cascaded children
// update together or not at all.
type CatalogService interface {
	CreateCategory(ctx context.Context, name, imageURL string) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, name, imageURL string) (*domain.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	ListCategories(ctx context.Context, includeDeleted bool) ([]*domain.Category, error)
	ToggleCategoryDeleted(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	BatchToggleCategories(ctx context.Context, ids []uuid.UUID) (*BatchToggleResult, error)
	HardDeleteCategory(ctx context.Context, id uuid.UUID) (*DeletedRecord, error)

	CreateSubcategory(ctx context.Context, categoryID uuid.UUID, name, imageURL string) (*domain.Subcategory, error)
	UpdateSubcategory(ctx context.Context, id uuid.UUID, name, imageURL string) (*domain.Subcategory, error)
	GetSubcategory(ctx context.Context, id uuid.UUID) (*domain.Subcategory, error)
	ListSubcategories(ctx context.Context, categoryID uuid.UUID, includeDeleted bool) ([]*domain.Subcategory, error)
	ToggleSubcategoryDeleted(ctx context.Context, id uuid.UUID) (*domain.Subcategory, error)
	BatchToggleSubcategories(ctx context.Context, ids []uuid.UUID) (*BatchToggleResult, error)
	HardDeleteSubcategory(ctx context.Context, id uuid.UUID) (*DeletedRecord, error)

	CreateAttribute(ctx context.Context, name string) (*domain.Attribute, error)
	CreateAttributeValue(ctx context.Context, attributeID uuid.UUID, value string) (*domain.AttributeValue, error)
	ListAttributes(ctx context.Context) ([]*domain.Attribute, error)
	ListAttributeValues(ctx context.Context, attributeID uuid.UUID) ([]*domain.AttributeValue, error)
}

type catalogService struct {
	tx            database.Transactor
	categories    repository.CategoryRepository
	subcategories repository.SubcategoryRepository
	products      repository.ProductRepository
	attributes    repository.AttributeRepository
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(
	tx database.Transactor,
	categories repository.CategoryRepository,
	subcategories repository.SubcategoryRepository,
	products repository.ProductRepository,
	attributes repository.AttributeRepository,
) CatalogService {
	return &catalogService{
		tx:            tx,
		categories:    categories,
		subcategories: subcategories,
		products:      products,
		attributes:    attributes,
	}
}

// CreateCategory creates an active category with a slug derived from its name
func (s *catalogService) CreateCategory(ctx context.Context, name, imageURL string) (*domain.Category, error) {
	now := time.Now().UTC()
	category := &domain.Category{
		ID:        uuid.New(),
		Name:      name,
		Slug:      Slugify(name),
		ImageURL:  imageURL,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

// UpdateCategory renames a category, re-deriving its slug
func (s *catalogService) UpdateCategory(ctx context.Context, id uuid.UUID, name, imageURL string) (*domain.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	category.Name = name
	category.Slug = Slugify(name)
	category.ImageURL = imageURL
	category.UpdatedAt = time.Now().UTC()

	if err := s.categories.Update(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

// GetCategory retrieves a single category
func (s *catalogService) GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	return s.categories.FindByID(ctx, id)
}

// ListCategories retrieves categories
func (s *catalogService) ListCategories(ctx context.Context, includeDeleted bool) ([]*domain.Category, error) {
	return s.categories.List(ctx, includeDeleted)
}

// ToggleCategoryDeleted flips a category's deleted state and cascades to all
// of its subcategories and products. Deleting marks every child deleted;
// restoring revives every child unconditionally.
func (s *catalogService) ToggleCategoryDeleted(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	var updated *domain.Category

	err := s.tx.InTx(ctx, func(tx *sql.Tx) error {
		category, err := s.toggleCategoryInTx(ctx, tx, id)
		if err != nil {
			return err
		}
		updated = category
		return nil
	})

	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *catalogService) toggleCategoryInTx(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Category, error) {
	categories := s.categories.WithTx(tx)
	subcategories := s.subcategories.WithTx(tx)
	products := s.products.WithTx(tx)

	category, err := categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	deleted := !category.IsDeleted
	var deletedAt *time.Time
	if deleted {
		now := time.Now().UTC()
		deletedAt = &now
	}

	if err := categories.SetDeleted(ctx, id, deleted, deletedAt); err != nil {
		return nil, err
	}
	if err := subcategories.SetDeletedByCategory(ctx, id, deleted, deletedAt); err != nil {
		return nil, err
	}
	// Covers products owned directly and through subcategories: both carry
	// the category id, and on delete every subcategory was just deleted too.
	if err := products.SetDeletedByCategory(ctx, id, deleted, deletedAt); err != nil {
		return nil, err
	}

	category.IsDeleted = deleted
	category.DeletedAt = deletedAt
	return category, nil
}

// BatchToggleCategories applies the single-category toggle to each id inside
// one transaction, reporting per-id outcomes instead of aborting.
func (s *catalogService) BatchToggleCategories(ctx context.Context, ids []uuid.UUID) (*BatchToggleResult, error) {
	result := &BatchToggleResult{NotFound: []uuid.UUID{}, Blocked: []uuid.UUID{}}

	err := s.tx.InTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			_, err := s.toggleCategoryInTx(ctx, tx, id)
			switch {
			case err == nil:
				result.Toggled++
			case errors.Is(err, repository.ErrCategoryNotFound):
				result.NotFound = append(result.NotFound, id)
			default:
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("batch category toggle failed: %w", err)
	}

	return result, nil
}

// HardDeleteCategory permanently removes a childless category. Any remaining
// subcategory or product row, soft-deleted or not, blocks the delete.
func (s *catalogService) HardDeleteCategory(ctx context.Context, id uuid.UUID) (*DeletedRecord, error) {
	var record *DeletedRecord

	err := s.tx.InTx(ctx, func(tx *sql.Tx) error {
		categories := s.categories.WithTx(tx)

		category, err := categories.FindByID(ctx, id)
		if err != nil {
			return err
		}

		subcategories, products, err := categories.CountChildren(ctx, id)
		if err != nil {
			return err
		}
		if subcategories > 0 || products > 0 {
			return ErrCategoryHasChildren
		}

		if err := categories.Delete(ctx, id); err != nil {
			return err
		}

		record = &DeletedRecord{ID: category.ID, Name: category.Name}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return record, nil
}

// CreateSubcategory creates an active subcategory under an existing category
func (s *catalogService) CreateSubcategory(ctx context.Context, categoryID uuid.UUID, name, imageURL string) (*domain.Subcategory, error) {
	if _, err := s.categories.FindByID(ctx, categoryID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	subcategory := &domain.Subcategory{
		ID:         uuid.New(),
		CategoryID: categoryID,
		Name:       name,
		Slug:       Slugify(name),
		ImageURL:   imageURL,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.subcategories.Create(ctx, subcategory); err != nil {
		return nil, err
	}

	return subcategory, nil
}

// UpdateSubcategory renames a subcategory, re-deriving its slug
func (s *catalogService) UpdateSubcategory(ctx context.Context, id uuid.UUID, name, imageURL string) (*domain.Subcategory, error) {
	subcategory, err := s.subcategories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	subcategory.Name = name
	subcategory.Slug = Slugify(name)
	subcategory.ImageURL = imageURL
	subcategory.UpdatedAt = time.Now().UTC()

	if err := s.subcategories.Update(ctx, subcategory); err != nil {
		return nil, err
	}

	return subcategory, nil
}

// GetSubcategory retrieves a single subcategory
func (s *catalogService) GetSubcategory(ctx context.Context, id uuid.UUID) (*domain.Subcategory, error) {
	return s.subcategories.FindByID(ctx, id)
}

// ListSubcategories retrieves the subcategories of a category
func (s *catalogService) ListSubcategories(ctx context.Context, categoryID uuid.UUID, includeDeleted bool) ([]*domain.Subcategory, error) {
	return s.subcategories.ListByCategory(ctx, categoryID, includeDeleted)
}

// ToggleSubcategoryDeleted flips a subcategory's deleted state. Deleting
// cascades to the subcategory's products; restoring leaves products deleted
// and is rejected while the parent category is itself deleted.
func (s *catalogService) ToggleSubcategoryDeleted(ctx context.Context, id uuid.UUID) (*domain.Subcategory, error) {
	var updated *domain.Subcategory

	err := s.tx.InTx(ctx, func(tx *sql.Tx) error {
		subcategory, err := s.toggleSubcategoryInTx(ctx, tx, id)
		if err != nil {
			return err
		}
		updated = subcategory
		return nil
	})

	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *catalogService) toggleSubcategoryInTx(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Subcategory, error) {
	categories := s.categories.WithTx(tx)
	subcategories := s.subcategories.WithTx(tx)
	products := s.products.WithTx(tx)

	subcategory, err := subcategories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	deleted := !subcategory.IsDeleted

	if !deleted {
		// Restore path: blocked while the parent category is deleted.
		parent, err := categories.FindByID(ctx, subcategory.CategoryID)
		if err != nil {
			return nil, err
		}
		if parent.IsDeleted {
			return nil, ErrParentCategoryDeleted
		}
	}

	var deletedAt *time.Time
	if deleted {
		now := time.Now().UTC()
		deletedAt = &now
	}

	if err := subcategories.SetDeleted(ctx, id, deleted, deletedAt); err != nil {
		return nil, err
	}

	if deleted {
		if err := products.SetDeletedBySubcategory(ctx, id, true, deletedAt); err != nil {
			return nil, err
		}
	}
	// Restoring a subcategory does not restore its products; only a category
	// restore does.

	subcategory.IsDeleted = deleted
	subcategory.DeletedAt = deletedAt
	return subcategory, nil
}

// BatchToggleSubcategories applies the single-subcategory toggle to each id
// inside one transaction. Precondition violations are collected, not fatal.
func (s *catalogService) BatchToggleSubcategories(ctx context.Context, ids []uuid.UUID) (*BatchToggleResult, error) {
	result := &BatchToggleResult{NotFound: []uuid.UUID{}, Blocked: []uuid.UUID{}}

	err := s.tx.InTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			_, err := s.toggleSubcategoryInTx(ctx, tx, id)
			switch {
			case err == nil:
				result.Toggled++
			case errors.Is(err, repository.ErrSubcategoryNotFound):
				result.NotFound = append(result.NotFound, id)
			case errors.Is(err, ErrParentCategoryDeleted):
				result.Blocked = append(result.Blocked, id)
			default:
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("batch subcategory toggle failed: %w", err)
	}

	return result, nil
}

// HardDeleteSubcategory permanently removes a subcategory that owns no
// products, soft-deleted or not.
func (s *catalogService) HardDeleteSubcategory(ctx context.Context, id uuid.UUID) (*DeletedRecord, error) {
	var record *DeletedRecord

	err := s.tx.InTx(ctx, func(tx *sql.Tx) error {
		subcategories := s.subcategories.WithTx(tx)

		subcategory, err := subcategories.FindByID(ctx, id)
		if err != nil {
			return err
		}

		products, err := subcategories.CountProducts(ctx, id)
		if err != nil {
			return err
		}
		if products > 0 {
			return ErrSubcategoryHasProducts
		}

		if err := subcategories.Delete(ctx, id); err != nil {
			return err
		}

		record = &DeletedRecord{ID: subcategory.ID, Name: subcategory.Name}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return record, nil
}

// CreateAttribute registers a new variation dimension, e.g. "Color"
func (s *catalogService) CreateAttribute(ctx context.Context, name string) (*domain.Attribute, error) {
	attribute := &domain.Attribute{ID: uuid.New(), Name: name}
	if err := s.attributes.CreateAttribute(ctx, attribute); err != nil {
		return nil, err
	}
	return attribute, nil
}

// CreateAttributeValue registers a new value under an attribute, e.g. "Red"
func (s *catalogService) CreateAttributeValue(ctx context.Context, attributeID uuid.UUID, value string) (*domain.AttributeValue, error) {
	attributeValue := &domain.AttributeValue{ID: uuid.New(), AttributeID: attributeID, Value: value}
	if err := s.attributes.CreateValue(ctx, attributeValue); err != nil {
		return nil, err
	}
	return attributeValue, nil
}

// ListAttributes retrieves all variation dimensions
func (s *catalogService) ListAttributes(ctx context.Context) ([]*domain.Attribute, error) {
	return s.attributes.ListAttributes(ctx)
}

// ListAttributeValues retrieves the values of one attribute
func (s *catalogService) ListAttributeValues(ctx context.Context, attributeID uuid.UUID) ([]*domain.AttributeValue, error) {
	return s.attributes.ListValues(ctx, attributeID)
}
