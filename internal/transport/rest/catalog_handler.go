package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/abgdnv/storefront/internal/account"
	"github.com/abgdnv/storefront/internal/catalog"
	"github.com/abgdnv/storefront/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

// CatalogHandler exposes product reads to every caller and the catalog CRUD
// to administrators.
type CatalogHandler struct {
	service  catalog.ProductService
	accounts account.AccountService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewCatalogHandler creates a new instance of CatalogHandler.
func NewCatalogHandler(service catalog.ProductService, accounts account.AccountService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service:  service,
		accounts: accounts,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the catalog.
func (h *CatalogHandler) RegisterRoutes(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(web.AuthMiddleware)
		r.Route("/api/v1/products", func(r chi.Router) {
			r.Get("/", h.FindAll)
			r.Post("/", h.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.FindByID)
				r.Put("/", h.Update)
				r.Delete("/", h.Delete)
			})
		})
	})
}

// FindByID retrieves a product by its ID.
func (h *CatalogHandler) FindByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	found, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Failed to retrieve product", "ID", id, "error", err)
		respondServiceError(w, mLogger, err)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// FindAll retrieves a page of products.
func (h *CatalogHandler) FindAll(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	limit, ok := web.ParseValidateGt(r, w, mLogger, "limit", 0)
	if !ok {
		return
	}
	offset, ok := web.ParseValidateGte(r, w, mLogger, "offset", 0)
	if !ok {
		return
	}

	list, err := h.service.FindAll(r.Context(), offset, limit)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving product list", "error", err)
		respondServiceError(w, mLogger, err)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// Create adds a new product to the catalog. Administrator only.
func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	if !h.requireAdmin(w, r, mLogger) {
		return
	}

	var createDto catalog.ProductCreateDto
	if err := json.NewDecoder(r.Body).Decode(&createDto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(createDto); err != nil {
		mLogger.WarnContext(r.Context(), "Validation failed", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.service.Create(r.Context(), createDto)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error creating product", "error", err)
		respondServiceError(w, mLogger, err)
		return
	}
	mLogger.InfoContext(r.Context(), "Product created successfully", slog.String("ID", created.ID))
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// Update modifies an existing product's name and price. Administrator only.
func (h *CatalogHandler) Update(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	if !h.requireAdmin(w, r, mLogger) {
		return
	}

	var updateDto catalog.ProductUpdateDto
	if err := json.NewDecoder(r.Body).Decode(&updateDto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	updateDto.ID = id
	if err := h.validate.Struct(updateDto); err != nil {
		mLogger.WarnContext(r.Context(), "Validation failed", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.service.Update(r.Context(), updateDto)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Failed to update product", "ID", id, "error", err)
		respondServiceError(w, mLogger, err)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// Delete removes a product from the catalog. Administrator only.
func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	if !h.requireAdmin(w, r, mLogger) {
		return
	}
	version, ok := web.ParseValidateGt(r, w, mLogger, "version", 0)
	if !ok {
		return
	}

	if err := h.service.DeleteByID(r.Context(), id, version); err != nil {
		mLogger.WarnContext(r.Context(), "Failed to delete product", "ID", id, "error", err)
		respondServiceError(w, mLogger, err)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusNoContent, nil)
}

// requireAdmin verifies the caller holds the administrator role.
func (h *CatalogHandler) requireAdmin(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger) bool {
	userID, ok := web.GetUserID(w, r, mLogger)
	if !ok {
		return false
	}
	admin, err := h.accounts.IsAdmin(r.Context(), userID)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Failed to check administrator role", "UserID", userID, "error", err)
		respondServiceError(w, mLogger, err)
		return false
	}
	if !admin {
		web.RespondError(w, mLogger, http.StatusForbidden, "Administrator role required")
		return false
	}
	return true
}

func (h *CatalogHandler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}
