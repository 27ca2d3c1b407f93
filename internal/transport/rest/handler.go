// Package rest provides the HTTP handlers for the storefront core.
package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/abgdnv/storefront/internal/order"
	"github.com/abgdnv/storefront/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

// OrderHandler exposes the order lifecycle operations over HTTP.
type OrderHandler struct {
	service  order.OrderService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewOrderHandler creates a new instance of OrderHandler with the provided service.
func NewOrderHandler(service order.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the order operations.
func (h *OrderHandler) RegisterRoutes(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(web.AuthMiddleware)
		r.Route("/api/v1/orders", func(r chi.Router) {
			r.Get("/", h.FindByUserID)
			r.Post("/", h.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.FindByID)
				r.Post("/payment", h.MarkPaid)
				r.Post("/cancel", h.Cancel)
				r.Put("/status", h.UpdateStatus)
			})
		})
	})
	r.Get("/healthz", h.HealthCheck)
}

// FindByID retrieves an order by its ID.
func (h *OrderHandler) FindByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	userID, ok := web.GetUserID(w, r, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to find order by ID", "ID", id)
	found, err := h.service.FindByID(r.Context(), userID, id)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Failed to retrieve order", "ID", id, "error", err)
		respondServiceError(w, mLogger, err)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// FindByUserID retrieves a page of the caller's own orders.
func (h *OrderHandler) FindByUserID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	limit, ok := web.ParseValidateGt(r, w, mLogger, "limit", 0)
	if !ok {
		return
	}
	offset, ok := web.ParseValidateGte(r, w, mLogger, "offset", 0)
	if !ok {
		return
	}
	userID, ok := web.GetUserID(w, r, mLogger)
	if !ok {
		return
	}

	list, err := h.service.FindByUserID(r.Context(), userID, offset, limit)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving order list", "error", err)
		respondServiceError(w, mLogger, err)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// Create handles the placement of a new order.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	userID, ok := web.GetUserID(w, r, mLogger)
	if !ok {
		return
	}
	var createDto order.CreateDto
	if err := json.NewDecoder(r.Body).Decode(&createDto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	// The purchaser is always the authenticated caller.
	createDto.UserID = userID

	mLogger.DebugContext(r.Context(), "Received request to create order", "order", createDto)
	if !h.validStruct(w, r, mLogger, createDto) {
		return
	}

	newOrder, err := h.service.Create(r.Context(), createDto)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Failed to create order", "error", err)
		respondServiceError(w, mLogger, err)
		return
	}
	mLogger.InfoContext(r.Context(), "Order created successfully", slog.String("ID", newOrder.ID.String()))
	web.RespondJSON(w, mLogger, http.StatusCreated, newOrder)
}

// markPaidRequest is the body of the payment confirmation endpoint.
type markPaidRequest struct {
	PaymentMethod order.PaymentMethod `json:"payment_method" validate:"omitempty,oneof=cod upi"`
}

// MarkPaid records payment confirmation for an order.
func (h *OrderHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	if _, ok := web.GetUserID(w, r, mLogger); !ok {
		return
	}

	var req markPaidRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
			web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
			return
		}
		if !h.validStruct(w, r, mLogger, req) {
			return
		}
	}

	updated, err := h.service.MarkPaid(r.Context(), id, req.PaymentMethod)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Failed to mark order paid", "ID", id, "error", err)
		respondServiceError(w, mLogger, err)
		return
	}
	mLogger.InfoContext(r.Context(), "Order marked paid", slog.String("ID", id.String()))
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// Cancel cancels an order on behalf of the caller.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	userID, ok := web.GetUserID(w, r, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to cancel order", "ID", id)
	cancelled, err := h.service.Cancel(r.Context(), id, userID)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Failed to cancel order", "ID", id, "error", err)
		respondServiceError(w, mLogger, err)
		return
	}
	mLogger.InfoContext(r.Context(), "Order cancelled", slog.String("ID", id.String()))
	web.RespondJSON(w, mLogger, http.StatusOK, cancelled)
}

// updateStatusRequest is the body of the administrator status endpoint.
type updateStatusRequest struct {
	Status order.Status `json:"status" validate:"required,oneof=processing shipped delivered"`
}

// UpdateStatus moves an order forward through the fulfillment statuses.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	userID, ok := web.GetUserID(w, r, mLogger)
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !h.validStruct(w, r, mLogger, req) {
		return
	}

	updated, err := h.service.UpdateStatus(r.Context(), id, req.Status, userID)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Failed to update order status", "ID", id, "status", req.Status, "error", err)
		respondServiceError(w, mLogger, err)
		return
	}
	mLogger.InfoContext(r.Context(), "Order status updated",
		slog.String("ID", id.String()), slog.String("status", string(req.Status)))
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// HealthCheck is a simple health check endpoint.
func (h *OrderHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// validStruct validates the request body and writes the field errors on
// failure. Returns true when the body is valid.
func (h *OrderHandler) validStruct(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, v any) bool {
	if err := h.validate.Struct(v); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			errorResponse := make(map[string]string)
			for _, fieldErr := range validationErrors {
				errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
			}
			mLogger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
			web.RespondJSON(w, mLogger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
			return false
		}
		mLogger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *OrderHandler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}
