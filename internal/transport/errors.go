package transport

import (
	"errors"
	"net/http"

	"shopfront/internal/middleware"
	"shopfront/internal/repository"
	"shopfront/internal/service"

	"go.uber.org/zap"
)

// respondServiceError maps sentinel errors from the repository and service
// layers onto HTTP status codes: missing entities to 404, precondition and
// input failures to 400, uniqueness collisions to 409. Anything unmapped is
// logged and reported as a 500 with a generic message.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrCategoryNotFound),
		errors.Is(err, repository.ErrSubcategoryNotFound),
		errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrCartItemNotFound),
		errors.Is(err, repository.ErrWishlistItemNotFound),
		errors.Is(err, repository.ErrAttributeNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, err.Error())

	case errors.Is(err, service.ErrCategoryHasChildren),
		errors.Is(err, service.ErrSubcategoryHasProducts),
		errors.Is(err, service.ErrParentCategoryDeleted),
		errors.Is(err, service.ErrProductNeedsVariant),
		errors.Is(err, service.ErrDuplicateVariantCombination),
		errors.Is(err, service.ErrRepeatedAttribute),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, repository.ErrVariantTagConflict):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, repository.ErrCategorySlugExists),
		errors.Is(err, repository.ErrSubcategorySlugExists),
		errors.Is(err, repository.ErrProductSlugExists),
		errors.Is(err, repository.ErrDuplicateSKU),
		errors.Is(err, repository.ErrUserAlreadyExists),
		errors.Is(err, repository.ErrAttributeAlreadyExists):
		middleware.RespondWithError(w, http.StatusConflict, err.Error())

	default:
		logger.Error("Request failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}

// respondDecodeError distinguishes validation failures from malformed JSON.
func respondDecodeError(w http.ResponseWriter, err error) {
	if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
		middleware.RespondWithValidationErrors(w, validationErrors)
		return
	}
	middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
}
