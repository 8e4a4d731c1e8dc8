package domain

import (
	"time"

	"github.com/google/uuid"
)

// Category is a top-level catalog grouping. Soft deletion is tracked with
// IsDeleted/DeletedAt; cascades to subcategories and products are handled by
// the catalog service, not by the database.
type Category struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Slug      string     `json:"slug" db:"slug"`
	ImageURL  string     `json:"image_url" db:"image_url"`
	IsDeleted bool       `json:"is_deleted" db:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// Subcategory belongs to exactly one category.
type Subcategory struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	CategoryID uuid.UUID  `json:"category_id" db:"category_id"`
	Name       string     `json:"name" db:"name"`
	Slug       string     `json:"slug" db:"slug"`
	ImageURL   string     `json:"image_url" db:"image_url"`
	IsDeleted  bool       `json:"is_deleted" db:"is_deleted"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// Product belongs to one category and optionally one subcategory.
type Product struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	CategoryID    uuid.UUID  `json:"category_id" db:"category_id"`
	SubcategoryID *uuid.UUID `json:"subcategory_id,omitempty" db:"subcategory_id"`
	Name          string     `json:"name" db:"name"`
	Slug          string     `json:"slug" db:"slug"`
	Description   string     `json:"description" db:"description"`
	IsDeleted     bool       `json:"is_deleted" db:"is_deleted"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`

	Variants []*Variant      `json:"variants,omitempty" db:"-"`
	Images   []*ProductImage `json:"images,omitempty" db:"-"`
}

// VariantTag pins one attribute of a variant to a concrete value,
// e.g. Color=Red.
type VariantTag struct {
	AttributeID      uuid.UUID `json:"attribute_id" db:"attribute_id"`
	AttributeValueID uuid.UUID `json:"attribute_value_id" db:"attribute_value_id"`
}

// Variant is a purchasable SKU of a product, distinguished by its tag set.
type Variant struct {
	ID            uuid.UUID    `json:"id" db:"id"`
	ProductID     uuid.UUID    `json:"product_id" db:"product_id"`
	SKU           string       `json:"sku" db:"sku"`
	Price         float64      `json:"price" db:"price"`
	StockQuantity int          `json:"stock_quantity" db:"stock_quantity"`
	Tags          []VariantTag `json:"tags" db:"-"`
}

// ValueFor returns the variant's value for the given attribute, if tagged.
func (v *Variant) ValueFor(attributeID uuid.UUID) (uuid.UUID, bool) {
	for _, tag := range v.Tags {
		if tag.AttributeID == attributeID {
			return tag.AttributeValueID, true
		}
	}
	return uuid.Nil, false
}

// Attribute is a named dimension of variation, e.g. "Color".
type Attribute struct {
	ID   uuid.UUID `json:"id" db:"id"`
	Name string    `json:"name" db:"name"`
}

// AttributeValue is one possible setting of an attribute, e.g. "Red".
type AttributeValue struct {
	ID          uuid.UUID `json:"id" db:"id"`
	AttributeID uuid.UUID `json:"attribute_id" db:"attribute_id"`
	Value       string    `json:"value" db:"value"`
}

// ProductImage is an ordered gallery entry for a product.
type ProductImage struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	URL       string    `json:"url" db:"url"`
	Position  int       `json:"position" db:"position"`
}
