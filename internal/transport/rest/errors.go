package rest

import (
	"errors"
	"log/slog"
	"net/http"

	storeerrors "github.com/abgdnv/storefront/internal/errors"
	"github.com/abgdnv/storefront/pkg/web"
)

// respondServiceError maps the core error taxonomy to HTTP status codes.
func respondServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, storeerrors.ErrValidation):
		web.RespondError(w, logger, http.StatusBadRequest, err.Error())
	case errors.Is(err, storeerrors.ErrOrderNotFound),
		errors.Is(err, storeerrors.ErrProductNotFound),
		errors.Is(err, storeerrors.ErrUserNotFound):
		web.RespondError(w, logger, http.StatusNotFound, err.Error())
	case errors.Is(err, storeerrors.ErrInsufficientStock):
		web.RespondError(w, logger, http.StatusConflict, err.Error())
	case errors.Is(err, storeerrors.ErrAccessDenied):
		web.RespondError(w, logger, http.StatusForbidden, err.Error())
	case errors.Is(err, storeerrors.ErrInvalidTransition):
		web.RespondError(w, logger, http.StatusConflict, err.Error())
	case errors.Is(err, storeerrors.ErrOptimisticLock):
		web.RespondError(w, logger, http.StatusConflict, "The record has been modified by another request")
	default:
		web.RespondError(w, logger, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
