package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"shopfront/internal/domain"
	"shopfront/internal/repository"
	"shopfront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// stubCatalogService returns canned results; err wins when set.
type stubCatalogService struct {
	category    *domain.Category
	subcategory *domain.Subcategory
	attribute   *domain.Attribute
	value       *domain.AttributeValue
	batch       *service.BatchToggleResult
	record      *service.DeletedRecord
	err         error
}

func (s *stubCatalogService) CreateCategory(ctx context.Context, name, imageURL string) (*domain.Category, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.category, nil
}

func (s *stubCatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, name, imageURL string) (*domain.Category, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.category, nil
}

func (s *stubCatalogService) GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.category, nil
}

func (s *stubCatalogService) ListCategories(ctx context.Context, includeDeleted bool) ([]*domain.Category, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []*domain.Category{s.category}, nil
}

func (s *stubCatalogService) ToggleCategoryDeleted(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.category, nil
}

func (s *stubCatalogService) BatchToggleCategories(ctx context.Context, ids []uuid.UUID) (*service.BatchToggleResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.batch, nil
}

func (s *stubCatalogService) HardDeleteCategory(ctx context.Context, id uuid.UUID) (*service.DeletedRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.record, nil
}

func (s *stubCatalogService) CreateSubcategory(ctx context.Context, categoryID uuid.UUID, name, imageURL string) (*domain.Subcategory, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.subcategory, nil
}

func (s *stubCatalogService) UpdateSubcategory(ctx context.Context, id uuid.UUID, name, imageURL string) (*domain.Subcategory, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.subcategory, nil
}

func (s *stubCatalogService) GetSubcategory(ctx context.Context, id uuid.UUID) (*domain.Subcategory, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.subcategory, nil
}

func (s *stubCatalogService) ListSubcategories(ctx context.Context, categoryID uuid.UUID, includeDeleted bool) ([]*domain.Subcategory, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []*domain.Subcategory{s.subcategory}, nil
}

func (s *stubCatalogService) ToggleSubcategoryDeleted(ctx context.Context, id uuid.UUID) (*domain.Subcategory, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.subcategory, nil
}

func (s *stubCatalogService) BatchToggleSubcategories(ctx context.Context, ids []uuid.UUID) (*service.BatchToggleResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.batch, nil
}

func (s *stubCatalogService) HardDeleteSubcategory(ctx context.Context, id uuid.UUID) (*service.DeletedRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.record, nil
}

func (s *stubCatalogService) CreateAttribute(ctx context.Context, name string) (*domain.Attribute, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.attribute, nil
}

func (s *stubCatalogService) CreateAttributeValue(ctx context.Context, attributeID uuid.UUID, value string) (*domain.AttributeValue, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.value, nil
}

func (s *stubCatalogService) ListAttributes(ctx context.Context) ([]*domain.Attribute, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []*domain.Attribute{s.attribute}, nil
}

func (s *stubCatalogService) ListAttributeValues(ctx context.Context, attributeID uuid.UUID) ([]*domain.AttributeValue, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []*domain.AttributeValue{s.value}, nil
}

func passthrough(next http.Handler) http.Handler {
	return next
}

func newCatalogRouter(stub *stubCatalogService) chi.Router {
	router := chi.NewRouter()
	handler := NewCatalogHandler(stub, zap.NewNop())
	handler.RegisterRoutes(router, passthrough)
	return router
}

func TestCreateCategory_Returns201(t *testing.T) {
	stub := &stubCatalogService{
		category: &domain.Category{ID: uuid.New(), Name: "Garden", Slug: "garden"},
	}
	router := newCatalogRouter(stub)

	body, _ := json.Marshal(map[string]string{"name": "Garden"})
	req := httptest.NewRequest("POST", "/api/admin/categories", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var category domain.Category
	if err := json.Unmarshal(w.Body.Bytes(), &category); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if category.Slug != "garden" {
		t.Errorf("unexpected slug %q", category.Slug)
	}
}

func TestCreateCategory_ValidationFailure(t *testing.T) {
	router := newCatalogRouter(&stubCatalogService{})

	body, _ := json.Marshal(map[string]string{"image_url": "https://cdn.example.com/x.png"})
	req := httptest.NewRequest("POST", "/api/admin/categories", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing name, got %d", w.Code)
	}
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		method string
		path   string
		body   map[string]interface{}
		want   int
	}{
		{
			name:   "unknown category is 404",
			err:    repository.ErrCategoryNotFound,
			method: "POST",
			path:   "/api/admin/categories/" + uuid.NewString() + "/toggle",
			want:   http.StatusNotFound,
		},
		{
			name:   "blocked hard delete is 400",
			err:    service.ErrCategoryHasChildren,
			method: "DELETE",
			path:   "/api/admin/categories/" + uuid.NewString(),
			want:   http.StatusBadRequest,
		},
		{
			name:   "blocked restore is 400",
			err:    service.ErrParentCategoryDeleted,
			method: "POST",
			path:   "/api/admin/subcategories/" + uuid.NewString() + "/toggle",
			want:   http.StatusBadRequest,
		},
		{
			name:   "duplicate slug is 409",
			err:    repository.ErrCategorySlugExists,
			method: "POST",
			path:   "/api/admin/categories",
			body:   map[string]interface{}{"name": "Garden"},
			want:   http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newCatalogRouter(&stubCatalogService{err: tt.err})

			var reqBody *bytes.Reader
			if tt.body != nil {
				raw, _ := json.Marshal(tt.body)
				reqBody = bytes.NewReader(raw)
			} else {
				reqBody = bytes.NewReader(nil)
			}

			req := httptest.NewRequest(tt.method, tt.path, reqBody)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestBatchToggle_RejectsMalformedIDs(t *testing.T) {
	router := newCatalogRouter(&stubCatalogService{
		batch: &service.BatchToggleResult{},
	})

	body, _ := json.Marshal(map[string]interface{}{"ids": []string{"not-a-uuid"}})
	req := httptest.NewRequest("POST", "/api/admin/categories/batch-toggle", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed id, got %d", w.Code)
	}
}

func TestBatchToggle_ReportsPartitionedResult(t *testing.T) {
	missing := uuid.New()
	router := newCatalogRouter(&stubCatalogService{
		batch: &service.BatchToggleResult{Toggled: 2, NotFound: []uuid.UUID{missing}, Blocked: []uuid.UUID{}},
	})

	body, _ := json.Marshal(map[string]interface{}{"ids": []string{uuid.NewString(), uuid.NewString(), missing.String()}})
	req := httptest.NewRequest("POST", "/api/admin/categories/batch-toggle", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var result service.BatchToggleResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if result.Toggled != 2 || len(result.NotFound) != 1 {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestInvalidPathID(t *testing.T) {
	router := newCatalogRouter(&stubCatalogService{})

	req := httptest.NewRequest("GET", "/api/admin/categories/not-a-uuid", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed path id, got %d", w.Code)
	}
}
