package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"shopfront/internal/domain"
	"shopfront/internal/repository"

	"github.com/google/uuid"
)

type mockCartRepository struct {
	items map[uuid.UUID]*domain.CartItem
	// variant -> product ownership, needed for the delete-by-product cascade
	variantProducts map[uuid.UUID]uuid.UUID
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{
		items:           make(map[uuid.UUID]*domain.CartItem),
		variantProducts: make(map[uuid.UUID]uuid.UUID),
	}
}

func (m *mockCartRepository) Upsert(ctx context.Context, item *domain.CartItem) error {
	for _, existing := range m.items {
		if existing.UserID == item.UserID && existing.VariantID == item.VariantID {
			existing.Quantity += item.Quantity
			existing.UpdatedAt = item.UpdatedAt
			item.ID = existing.ID
			item.Quantity = existing.Quantity
			return nil
		}
	}
	clone := *item
	m.items[item.ID] = &clone
	return nil
}

func (m *mockCartRepository) SetQuantity(ctx context.Context, userID, variantID uuid.UUID, quantity int) error {
	for _, item := range m.items {
		if item.UserID == userID && item.VariantID == variantID {
			item.Quantity = quantity
			return nil
		}
	}
	return repository.ErrCartItemNotFound
}

func (m *mockCartRepository) Remove(ctx context.Context, userID, variantID uuid.UUID) error {
	for id, item := range m.items {
		if item.UserID == userID && item.VariantID == variantID {
			delete(m.items, id)
			return nil
		}
	}
	return repository.ErrCartItemNotFound
}

func (m *mockCartRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error) {
	var out []*domain.CartItem
	for _, item := range m.items {
		if item.UserID == userID {
			clone := *item
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *mockCartRepository) DeleteByProduct(ctx context.Context, productID uuid.UUID) error {
	for id, item := range m.items {
		if m.variantProducts[item.VariantID] == productID {
			delete(m.items, id)
		}
	}
	return nil
}

func (m *mockCartRepository) WithTx(tx *sql.Tx) repository.CartRepository {
	return m
}

type mockWishlistRepository struct {
	items           map[uuid.UUID]*domain.WishlistItem
	variantProducts map[uuid.UUID]uuid.UUID
}

func newMockWishlistRepository() *mockWishlistRepository {
	return &mockWishlistRepository{
		items:           make(map[uuid.UUID]*domain.WishlistItem),
		variantProducts: make(map[uuid.UUID]uuid.UUID),
	}
}

func (m *mockWishlistRepository) Add(ctx context.Context, item *domain.WishlistItem) error {
	for _, existing := range m.items {
		if existing.UserID == item.UserID && existing.VariantID == item.VariantID {
			return nil
		}
	}
	clone := *item
	m.items[item.ID] = &clone
	return nil
}

func (m *mockWishlistRepository) Remove(ctx context.Context, userID, variantID uuid.UUID) error {
	for id, item := range m.items {
		if item.UserID == userID && item.VariantID == variantID {
			delete(m.items, id)
			return nil
		}
	}
	return repository.ErrWishlistItemNotFound
}

func (m *mockWishlistRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.WishlistItem, error) {
	var out []*domain.WishlistItem
	for _, item := range m.items {
		if item.UserID == userID {
			clone := *item
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *mockWishlistRepository) DeleteByProduct(ctx context.Context, productID uuid.UUID) error {
	for id, item := range m.items {
		if m.variantProducts[item.VariantID] == productID {
			delete(m.items, id)
		}
	}
	return nil
}

func (m *mockWishlistRepository) WithTx(tx *sql.Tx) repository.WishlistRepository {
	return m
}

// fakeProductCache records hits, sets and invalidations.
type fakeProductCache struct {
	entries      map[string]*domain.Product
	invalidated  []string
	hits, misses int
}

func newFakeProductCache() *fakeProductCache {
	return &fakeProductCache{entries: make(map[string]*domain.Product)}
}

func (c *fakeProductCache) GetProduct(ctx context.Context, slug string) (*domain.Product, bool) {
	product, ok := c.entries[slug]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return product, ok
}

func (c *fakeProductCache) SetProduct(ctx context.Context, slug string, product *domain.Product) {
	c.entries[slug] = product
}

func (c *fakeProductCache) InvalidateProduct(ctx context.Context, slug string) {
	delete(c.entries, slug)
	c.invalidated = append(c.invalidated, slug)
}

type productFixture struct {
	products   *mockProductRepository
	categories *mockCategoryRepository
	cart       *mockCartRepository
	wishlist   *mockWishlistRepository
	cache      *fakeProductCache
	service    ProductService
}

func newProductFixture() *productFixture {
	products := newMockProductRepository()
	categories := newMockCategoryRepository()
	categories.subcategories = newMockSubcategoryRepository()
	categories.products = products
	cart := newMockCartRepository()
	wishlist := newMockWishlistRepository()
	cache := newFakeProductCache()
	return &productFixture{
		products:   products,
		categories: categories,
		cart:       cart,
		wishlist:   wishlist,
		cache:      cache,
		service:    NewProductService(fakeTransactor{}, products, categories, cart, wishlist, cache),
	}
}

func (f *productFixture) addCategory() *domain.Category {
	category := &domain.Category{ID: uuid.New(), Name: "Cat", Slug: "cat-" + uuid.NewString()}
	if err := f.categories.Create(context.Background(), category); err != nil {
		panic(err)
	}
	return category
}

func singleVariantInput(categoryID uuid.UUID, name string) ProductInput {
	return ProductInput{
		CategoryID: categoryID,
		Name:       name,
		Variants:   []VariantInput{{SKU: "sku-" + uuid.NewString(), Price: 9.99, StockQuantity: 3}},
	}
}

func TestCreateProduct_RequiresVariant(t *testing.T) {
	f := newProductFixture()
	category := f.addCategory()

	_, err := f.service.Create(context.Background(), ProductInput{
		CategoryID: category.ID,
		Name:       "No Variants",
	})
	if !errors.Is(err, ErrProductNeedsVariant) {
		t.Fatalf("expected ErrProductNeedsVariant, got %v", err)
	}
}

func TestValidateVariants(t *testing.T) {
	color := uuid.New()
	size := uuid.New()
	red := uuid.New()
	small := uuid.New()

	tests := []struct {
		name     string
		variants []VariantInput
		want     error
	}{
		{
			name: "duplicate sku",
			variants: []VariantInput{
				{SKU: "dup", Price: 1},
				{SKU: "dup", Price: 2, Tags: []domain.VariantTag{tag(color, red)}},
			},
			want: repository.ErrDuplicateSKU,
		},
		{
			name: "repeated attribute in one variant",
			variants: []VariantInput{
				{SKU: "a", Price: 1, Tags: []domain.VariantTag{tag(color, red), tag(color, small)}},
			},
			want: ErrRepeatedAttribute,
		},
		{
			name: "identical combination across variants",
			variants: []VariantInput{
				{SKU: "a", Price: 1, Tags: []domain.VariantTag{tag(color, red), tag(size, small)}},
				{SKU: "b", Price: 2, Tags: []domain.VariantTag{tag(size, small), tag(color, red)}},
			},
			want: ErrDuplicateVariantCombination,
		},
		{
			name: "valid set",
			variants: []VariantInput{
				{SKU: "a", Price: 1, Tags: []domain.VariantTag{tag(color, red)}},
				{SKU: "b", Price: 2, Tags: []domain.VariantTag{tag(size, small)}},
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateVariants(tt.variants)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestGetBySlug_ReadThroughCache(t *testing.T) {
	f := newProductFixture()
	ctx := context.Background()
	category := f.addCategory()

	created, err := f.service.Create(ctx, singleVariantInput(category.ID, "Cached Widget"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// First read misses and fills the cache; second read hits.
	if _, err := f.service.GetBySlug(ctx, created.Slug); err != nil {
		t.Fatalf("first read failed: %v", err)
	}
	if f.cache.misses != 1 {
		t.Errorf("expected 1 cache miss, got %d", f.cache.misses)
	}
	if _, err := f.service.GetBySlug(ctx, created.Slug); err != nil {
		t.Fatalf("second read failed: %v", err)
	}
	if f.cache.hits != 1 {
		t.Errorf("expected 1 cache hit, got %d", f.cache.hits)
	}
}

func TestUpdateProduct_InvalidatesBothSlugs(t *testing.T) {
	f := newProductFixture()
	ctx := context.Background()
	category := f.addCategory()

	created, err := f.service.Create(ctx, singleVariantInput(category.ID, "Old Name"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	updated, err := f.service.Update(ctx, created.ID, singleVariantInput(category.ID, "New Name"))
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Slug == created.Slug {
		t.Fatal("expected rename to change the slug")
	}

	invalidated := map[string]bool{}
	for _, slug := range f.cache.invalidated {
		invalidated[slug] = true
	}
	if !invalidated[created.Slug] || !invalidated[updated.Slug] {
		t.Errorf("expected both slugs invalidated, got %v", f.cache.invalidated)
	}
}

func TestToggleProduct_FlipsOnlyTheProduct(t *testing.T) {
	f := newProductFixture()
	ctx := context.Background()
	category := f.addCategory()

	created, err := f.service.Create(ctx, singleVariantInput(category.ID, "Toggler"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	toggled, err := f.service.ToggleDeleted(ctx, created.ID)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if !toggled.IsDeleted || toggled.DeletedAt == nil {
		t.Fatal("expected product deleted with timestamp")
	}

	restored, err := f.service.ToggleDeleted(ctx, created.ID)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if restored.IsDeleted || restored.DeletedAt != nil {
		t.Fatal("expected product active with nil timestamp")
	}
}

func TestHardDeleteProduct_CascadesToCartAndWishlist(t *testing.T) {
	f := newProductFixture()
	ctx := context.Background()
	category := f.addCategory()

	created, err := f.service.Create(ctx, singleVariantInput(category.ID, "Doomed"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	variantID := created.Variants[0].ID
	f.cart.variantProducts[variantID] = created.ID
	f.wishlist.variantProducts[variantID] = created.ID

	userID := uuid.New()
	now := time.Now().UTC()
	if err := f.cart.Upsert(ctx, &domain.CartItem{ID: uuid.New(), UserID: userID, VariantID: variantID, Quantity: 2, CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("cart seed failed: %v", err)
	}
	if err := f.wishlist.Add(ctx, &domain.WishlistItem{ID: uuid.New(), UserID: userID, VariantID: variantID, CreatedAt: now}); err != nil {
		t.Fatalf("wishlist seed failed: %v", err)
	}

	record, err := f.service.HardDelete(ctx, created.ID)
	if err != nil {
		t.Fatalf("hard delete failed: %v", err)
	}
	if record.Name != "Doomed" {
		t.Errorf("unexpected record %+v", record)
	}

	if len(f.cart.items) != 0 {
		t.Error("expected cart line items removed with the product")
	}
	if len(f.wishlist.items) != 0 {
		t.Error("expected wishlist entries removed with the product")
	}
	if _, err := f.products.FindByID(ctx, created.ID); !errors.Is(err, repository.ErrProductNotFound) {
		t.Errorf("expected product gone, got %v", err)
	}
}

func TestResolve_ReportsAvailableValues(t *testing.T) {
	f := newProductFixture()
	ctx := context.Background()
	category := f.addCategory()

	color := uuid.New()
	size := uuid.New()
	red := uuid.New()
	blue := uuid.New()
	small := uuid.New()
	large := uuid.New()

	created, err := f.service.Create(ctx, ProductInput{
		CategoryID: category.ID,
		Name:       "Resolver Shirt",
		Variants: []VariantInput{
			{SKU: "r-s", Price: 10, Tags: []domain.VariantTag{tag(color, red), tag(size, small)}},
			{SKU: "r-l", Price: 11, Tags: []domain.VariantTag{tag(color, red), tag(size, large)}},
			{SKU: "b-s", Price: 12, Tags: []domain.VariantTag{tag(color, blue), tag(size, small)}},
		},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	result, err := f.service.Resolve(ctx, created.ID, Selections{color: blue})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if result.Variant != nil {
		t.Error("partial selection must not resolve a two-attribute variant")
	}
	if result.HasEnough {
		t.Error("partial selection must not report enough selections")
	}
	if got := result.AvailableValues[size]; len(got) != 1 || got[0] != small {
		t.Errorf("expected only small choosable for blue, got %v", got)
	}

	result, err = f.service.Resolve(ctx, created.ID, Selections{color: blue, size: small})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if result.Variant == nil || result.Variant.SKU != "b-s" {
		t.Fatalf("expected variant b-s, got %+v", result.Variant)
	}
	if !result.HasEnough {
		t.Error("full selection must report enough selections")
	}
}
