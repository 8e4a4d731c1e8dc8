package transport

import (
	"net/http"
	"strconv"

	"shopfront/internal/domain"
	"shopfront/internal/middleware"
	"shopfront/internal/repository"
	"shopfront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// VariantRequest describes one variant in a product create/update payload.
type VariantRequest struct {
	SKU           string            `json:"sku" validate:"required,min=1,max=64"`
	Price         float64           `json:"price" validate:"required,gt=0"`
	StockQuantity int               `json:"stock_quantity" validate:"gte=0"`
	Tags          map[string]string `json:"tags" validate:"omitempty,dive,keys,uuid,endkeys,uuid"`
}

// ProductRequest is the product create/update payload.
type ProductRequest struct {
	CategoryID    string           `json:"category_id" validate:"required,uuid"`
	SubcategoryID *string          `json:"subcategory_id" validate:"omitempty,uuid"`
	Name          string           `json:"name" validate:"required,min=1,max=255"`
	Description   string           `json:"description"`
	Variants      []VariantRequest `json:"variants" validate:"required,min=1,dive"`
	ImageURLs     []string         `json:"image_urls" validate:"omitempty,dive,url"`
}

// ResolveRequest carries a partial attribute selection keyed by attribute id.
type ResolveRequest struct {
	Selections map[string]string `json:"selections" validate:"omitempty,dive,keys,uuid,endkeys,uuid"`
}

// ProductListResponse wraps a paginated product listing.
type ProductListResponse struct {
	Products []*domain.Product `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// ProductHandler handles admin product management and the storefront browse,
// detail and variant-resolution endpoints.
type ProductHandler struct {
	products service.ProductService
	logger   *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{products: products, logger: logger}
}

// RegisterRoutes registers admin and storefront product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router, staffOnly func(http.Handler) http.Handler) {
	r.Route("/api/admin/products", func(r chi.Router) {
		r.Use(staffOnly)
		r.Post("/", h.Create)
		r.Get("/", h.AdminList)
		r.Get("/{id}", h.AdminGet)
		r.Put("/{id}", h.Update)
		r.Post("/{id}/toggle", h.Toggle)
		r.Delete("/{id}", h.HardDelete)
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.Browse)
		r.Get("/{slug}", h.Detail)
		r.Post("/{id}/resolve", h.Resolve)
	})
}

func (h *ProductHandler) decodeInput(w http.ResponseWriter, r *http.Request) (service.ProductInput, bool) {
	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondDecodeError(w, err)
		return service.ProductInput{}, false
	}

	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category ID")
		return service.ProductInput{}, false
	}

	input := service.ProductInput{
		CategoryID:  categoryID,
		Name:        req.Name,
		Description: req.Description,
		ImageURLs:   req.ImageURLs,
	}

	if req.SubcategoryID != nil {
		subcategoryID, err := uuid.Parse(*req.SubcategoryID)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid subcategory ID")
			return service.ProductInput{}, false
		}
		input.SubcategoryID = &subcategoryID
	}

	for _, v := range req.Variants {
		variant := service.VariantInput{
			SKU:           v.SKU,
			Price:         v.Price,
			StockQuantity: v.StockQuantity,
		}
		for rawAttribute, rawValue := range v.Tags {
			attributeID, err := uuid.Parse(rawAttribute)
			if err != nil {
				middleware.RespondWithError(w, http.StatusBadRequest, "invalid attribute ID in variant tags")
				return service.ProductInput{}, false
			}
			valueID, err := uuid.Parse(rawValue)
			if err != nil {
				middleware.RespondWithError(w, http.StatusBadRequest, "invalid attribute value ID in variant tags")
				return service.ProductInput{}, false
			}
			variant.Tags = append(variant.Tags, domain.VariantTag{
				AttributeID:      attributeID,
				AttributeValueID: valueID,
			})
		}
		input.Variants = append(input.Variants, variant)
	}

	return input, true
}

// Create handles product creation with variants and images
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	product, err := h.products.Create(r.Context(), input)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to create product")
		return
	}

	h.logger.Info("Product created", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// Update replaces a product's fields, variants and images
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	product, err := h.products.Update(r.Context(), id, input)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to update product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// AdminGet fetches one product including soft-deleted ones
func (h *ProductHandler) AdminGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	product, err := h.products.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to get product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// AdminList lists products for the admin table, soft-deleted rows included
func (h *ProductHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	filter := parseProductFilter(r)
	filter.IncludeDeleted = true
	h.respondList(w, r, filter)
}

// Browse lists active products for the storefront with filters
func (h *ProductHandler) Browse(w http.ResponseWriter, r *http.Request) {
	filter := parseProductFilter(r)
	filter.IncludeDeleted = false
	h.respondList(w, r, filter)
}

func (h *ProductHandler) respondList(w http.ResponseWriter, r *http.Request, filter repository.ProductFilter) {
	products, total, err := h.products.List(r.Context(), filter)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProductListResponse{
		Products: products,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	})
}

func parseProductFilter(r *http.Request) repository.ProductFilter {
	q := r.URL.Query()

	filter := repository.ProductFilter{
		Query:    q.Get("q"),
		SortBy:   q.Get("sort"),
		Page:     1,
		PageSize: 20,
	}

	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		filter.Page = page
	}
	if pageSize, err := strconv.Atoi(q.Get("page_size")); err == nil && pageSize > 0 {
		filter.PageSize = pageSize
	}
	if q.Get("order") == "asc" {
		filter.SortOrder = repository.SortOrderAsc
	} else {
		filter.SortOrder = repository.SortOrderDesc
	}

	if id, err := uuid.Parse(q.Get("category")); err == nil {
		filter.CategoryID = &id
	}
	if id, err := uuid.Parse(q.Get("subcategory")); err == nil {
		filter.SubcategoryID = &id
	}
	if v, err := strconv.ParseFloat(q.Get("min_price"), 64); err == nil {
		filter.MinPrice = &v
	}
	if v, err := strconv.ParseFloat(q.Get("max_price"), 64); err == nil {
		filter.MaxPrice = &v
	}

	return filter
}

// Detail fetches an active product by slug for the storefront
func (h *ProductHandler) Detail(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing product slug")
		return
	}

	product, err := h.products.GetBySlug(r.Context(), slug)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to get product")
		return
	}

	if product.IsDeleted {
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Resolve matches a selection against a product's variants. No match is a
// valid 200 response with a null variant.
func (h *ProductHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	var req ResolveRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}

	selections := service.Selections{}
	for rawAttribute, rawValue := range req.Selections {
		attributeID, err := uuid.Parse(rawAttribute)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid attribute ID in selections")
			return
		}
		valueID, err := uuid.Parse(rawValue)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid attribute value ID in selections")
			return
		}
		selections[attributeID] = valueID
	}

	result, err := h.products.Resolve(r.Context(), id, selections)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to resolve variant")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// Toggle flips a product's soft-delete state
func (h *ProductHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	product, err := h.products.ToggleDeleted(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to toggle product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// HardDelete permanently removes a product and its cart/wishlist references
func (h *ProductHandler) HardDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	record, err := h.products.HardDelete(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to delete product")
		return
	}

	h.logger.Info("Product hard deleted", zap.String("product_id", id.String()))
	middleware.RespondWithJSON(w, http.StatusOK, record)
}
