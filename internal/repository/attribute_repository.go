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
	ErrAttributeNotFound      = errors.New("attribute not found")
	ErrAttributeAlreadyExists = errors.New("attribute with this name already exists")
)

// AttributeRepository manages attributes and their values. Variants reference
// both through variant_attribute_values.
type AttributeRepository interface {
	CreateAttribute(ctx context.Context, attribute *domain.Attribute) error
	CreateValue(ctx context.Context, value *domain.AttributeValue) error
	ListAttributes(ctx context.Context) ([]*domain.Attribute, error)
	ListValues(ctx context.Context, attributeID uuid.UUID) ([]*domain.AttributeValue, error)
}

type attributeRepository struct {
	db DBTX
}

// NewAttributeRepository creates a new instance of AttributeRepository
func NewAttributeRepository(db *sql.DB) AttributeRepository {
	return &attributeRepository{db: db}
}

// CreateAttribute inserts a new attribute dimension
func (r *attributeRepository) CreateAttribute(ctx context.Context, attribute *domain.Attribute) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO attributes (id, name) VALUES ($1, $2)`, attribute.ID, attribute.Name)
	if err != nil {
		if isUniqueViolation(err, "attributes_name_key") {
			return ErrAttributeAlreadyExists
		}
		return fmt.Errorf("failed to create attribute: %w", err)
	}

	return nil
}

// CreateValue inserts a new value under an attribute
func (r *attributeRepository) CreateValue(ctx context.Context, value *domain.AttributeValue) error {
	query := `INSERT INTO attribute_values (id, attribute_id, value) VALUES ($1, $2, $3)`

	if _, err := r.db.ExecContext(ctx, query, value.ID, value.AttributeID, value.Value); err != nil {
		return fmt.Errorf("failed to create attribute value: %w", err)
	}

	return nil
}

// ListAttributes retrieves all attribute dimensions
func (r *attributeRepository) ListAttributes(ctx context.Context) ([]*domain.Attribute, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM attributes ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list attributes: %w", err)
	}
	defer rows.Close()

	attributes := []*domain.Attribute{}
	for rows.Next() {
		attribute := &domain.Attribute{}
		if err := rows.Scan(&attribute.ID, &attribute.Name); err != nil {
			return nil, fmt.Errorf("failed to scan attribute: %w", err)
		}
		attributes = append(attributes, attribute)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attributes: %w", err)
	}

	return attributes, nil
}

// ListValues retrieves the values of one attribute
func (r *attributeRepository) ListValues(ctx context.Context, attributeID uuid.UUID) ([]*domain.AttributeValue, error) {
	query := `SELECT id, attribute_id, value FROM attribute_values WHERE attribute_id = $1 ORDER BY value ASC`

	rows, err := r.db.QueryContext(ctx, query, attributeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attribute values: %w", err)
	}
	defer rows.Close()

	values := []*domain.AttributeValue{}
	for rows.Next() {
		value := &domain.AttributeValue{}
		if err := rows.Scan(&value.ID, &value.AttributeID, &value.Value); err != nil {
			return nil, fmt.Errorf("failed to scan attribute value: %w", err)
		}
		values = append(values, value)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attribute values: %w", err)
	}

	return values, nil
}
