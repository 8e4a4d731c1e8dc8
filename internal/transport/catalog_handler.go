package transport

import (
	"net/http"

	"shopfront/internal/middleware"
	"shopfront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CategoryRequest is the create/update payload for categories and
// subcategories alike.
type CategoryRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	ImageURL string `json:"image_url" validate:"omitempty,url"`
}

// SubcategoryCreateRequest additionally names the owning category.
type SubcategoryCreateRequest struct {
	CategoryID string `json:"category_id" validate:"required,uuid"`
	Name       string `json:"name" validate:"required,min=1,max=100"`
	ImageURL   string `json:"image_url" validate:"omitempty,url"`
}

// BatchToggleRequest carries the ids of a batch toggle.
type BatchToggleRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,uuid"`
}

// AttributeRequest names a new variation dimension.
type AttributeRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// AttributeValueRequest adds one value under an attribute.
type AttributeValueRequest struct {
	Value string `json:"value" validate:"required,min=1,max=100"`
}

// CatalogHandler handles HTTP requests for category and subcategory
// administration.
type CatalogHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalog service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// RegisterRoutes registers category and subcategory admin routes. staffOnly
// should wrap auth + role checks.
func (h *CatalogHandler) RegisterRoutes(r chi.Router, staffOnly func(http.Handler) http.Handler) {
	r.Route("/api/admin/categories", func(r chi.Router) {
		r.Use(staffOnly)
		r.Post("/", h.CreateCategory)
		r.Get("/", h.ListCategories)
		r.Post("/batch-toggle", h.BatchToggleCategories)
		r.Get("/{id}", h.GetCategory)
		r.Put("/{id}", h.UpdateCategory)
		r.Post("/{id}/toggle", h.ToggleCategory)
		r.Delete("/{id}", h.HardDeleteCategory)
		r.Get("/{id}/subcategories", h.ListSubcategories)
	})

	r.Route("/api/admin/subcategories", func(r chi.Router) {
		r.Use(staffOnly)
		r.Post("/", h.CreateSubcategory)
		r.Post("/batch-toggle", h.BatchToggleSubcategories)
		r.Get("/{id}", h.GetSubcategory)
		r.Put("/{id}", h.UpdateSubcategory)
		r.Post("/{id}/toggle", h.ToggleSubcategory)
		r.Delete("/{id}", h.HardDeleteSubcategory)
	})

	r.Route("/api/admin/attributes", func(r chi.Router) {
		r.Use(staffOnly)
		r.Post("/", h.CreateAttribute)
		r.Get("/", h.ListAttributes)
		r.Post("/{id}/values", h.CreateAttributeValue)
		r.Get("/{id}/values", h.ListAttributeValues)
	})
}

func pathID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

// CreateCategory handles category creation
func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}

	category, err := h.catalog.CreateCategory(r.Context(), req.Name, req.ImageURL)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to create category")
		return
	}

	h.logger.Info("Category created", zap.String("category_id", category.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, category)
}

// ListCategories handles listing categories; ?include_deleted=true includes
// soft-deleted rows.
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	includeDeleted := r.URL.Query().Get("include_deleted") == "true"

	categories, err := h.catalog.ListCategories(r.Context(), includeDeleted)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list categories")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

// GetCategory handles fetching one category
func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category ID")
		return
	}

	category, err := h.catalog.GetCategory(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to get category")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, category)
}

// UpdateCategory handles renaming a category
func (h *CatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category ID")
		return
	}

	var req CategoryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}

	category, err := h.catalog.UpdateCategory(r.Context(), id, req.Name, req.ImageURL)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to update category")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, category)
}

// ToggleCategory flips a category's deleted state, cascading to its children
func (h *CatalogHandler) ToggleCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category ID")
		return
	}

	category, err := h.catalog.ToggleCategoryDeleted(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to toggle category")
		return
	}

	h.logger.Info("Category toggled",
		zap.String("category_id", id.String()),
		zap.Bool("is_deleted", category.IsDeleted),
	)
	middleware.RespondWithJSON(w, http.StatusOK, category)
}

// BatchToggleCategories toggles a set of categories in one transaction
func (h *CatalogHandler) BatchToggleCategories(w http.ResponseWriter, r *http.Request) {
	ids, ok := h.decodeBatch(w, r)
	if !ok {
		return
	}

	result, err := h.catalog.BatchToggleCategories(r.Context(), ids)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to batch toggle categories")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// HardDeleteCategory permanently deletes a childless category
func (h *CatalogHandler) HardDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category ID")
		return
	}

	record, err := h.catalog.HardDeleteCategory(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to delete category")
		return
	}

	h.logger.Info("Category hard deleted", zap.String("category_id", id.String()))
	middleware.RespondWithJSON(w, http.StatusOK, record)
}

// CreateSubcategory handles subcategory creation
func (h *CatalogHandler) CreateSubcategory(w http.ResponseWriter, r *http.Request) {
	var req SubcategoryCreateRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}

	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category ID")
		return
	}

	subcategory, err := h.catalog.CreateSubcategory(r.Context(), categoryID, req.Name, req.ImageURL)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to create subcategory")
		return
	}

	h.logger.Info("Subcategory created", zap.String("subcategory_id", subcategory.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, subcategory)
}

// ListSubcategories lists the subcategories of one category
func (h *CatalogHandler) ListSubcategories(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category ID")
		return
	}

	includeDeleted := r.URL.Query().Get("include_deleted") == "true"

	subcategories, err := h.catalog.ListSubcategories(r.Context(), id, includeDeleted)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list subcategories")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, subcategories)
}

// GetSubcategory handles fetching one subcategory
func (h *CatalogHandler) GetSubcategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid subcategory ID")
		return
	}

	subcategory, err := h.catalog.GetSubcategory(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to get subcategory")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, subcategory)
}

// UpdateSubcategory handles renaming a subcategory
func (h *CatalogHandler) UpdateSubcategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid subcategory ID")
		return
	}

	var req CategoryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}

	subcategory, err := h.catalog.UpdateSubcategory(r.Context(), id, req.Name, req.ImageURL)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to update subcategory")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, subcategory)
}

// ToggleSubcategory flips a subcategory's deleted state. Restores under a
// deleted parent category are rejected.
func (h *CatalogHandler) ToggleSubcategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid subcategory ID")
		return
	}

	subcategory, err := h.catalog.ToggleSubcategoryDeleted(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to toggle subcategory")
		return
	}

	h.logger.Info("Subcategory toggled",
		zap.String("subcategory_id", id.String()),
		zap.Bool("is_deleted", subcategory.IsDeleted),
	)
	middleware.RespondWithJSON(w, http.StatusOK, subcategory)
}

// BatchToggleSubcategories toggles a set of subcategories in one transaction
func (h *CatalogHandler) BatchToggleSubcategories(w http.ResponseWriter, r *http.Request) {
	ids, ok := h.decodeBatch(w, r)
	if !ok {
		return
	}

	result, err := h.catalog.BatchToggleSubcategories(r.Context(), ids)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to batch toggle subcategories")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// HardDeleteSubcategory permanently deletes a productless subcategory
func (h *CatalogHandler) HardDeleteSubcategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid subcategory ID")
		return
	}

	record, err := h.catalog.HardDeleteSubcategory(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to delete subcategory")
		return
	}

	h.logger.Info("Subcategory hard deleted", zap.String("subcategory_id", id.String()))
	middleware.RespondWithJSON(w, http.StatusOK, record)
}

// CreateAttribute registers a new variation dimension
func (h *CatalogHandler) CreateAttribute(w http.ResponseWriter, r *http.Request) {
	var req AttributeRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}

	attribute, err := h.catalog.CreateAttribute(r.Context(), req.Name)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to create attribute")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, attribute)
}

// ListAttributes lists all variation dimensions
func (h *CatalogHandler) ListAttributes(w http.ResponseWriter, r *http.Request) {
	attributes, err := h.catalog.ListAttributes(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list attributes")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, attributes)
}

// CreateAttributeValue adds a value under an attribute
func (h *CatalogHandler) CreateAttributeValue(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid attribute ID")
		return
	}

	var req AttributeValueRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}

	value, err := h.catalog.CreateAttributeValue(r.Context(), id, req.Value)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to create attribute value")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, value)
}

// ListAttributeValues lists the values of one attribute
func (h *CatalogHandler) ListAttributeValues(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid attribute ID")
		return
	}

	values, err := h.catalog.ListAttributeValues(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list attribute values")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, values)
}

func (h *CatalogHandler) decodeBatch(w http.ResponseWriter, r *http.Request) ([]uuid.UUID, bool) {
	var req BatchToggleRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondDecodeError(w, err)
		return nil, false
	}

	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid ID in batch: "+raw)
			return nil, false
		}
		ids = append(ids, id)
	}

	return ids, true
}
