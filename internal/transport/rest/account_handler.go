package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/abgdnv/storefront/internal/account"
	"github.com/abgdnv/storefront/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

// AccountHandler exposes account registration and the caller's own profile.
type AccountHandler struct {
	service  account.AccountService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewAccountHandler creates a new instance of AccountHandler.
func NewAccountHandler(service account.AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for accounts.
func (h *AccountHandler) RegisterRoutes(r *chi.Mux) {
	r.Post("/api/v1/users", h.Register)
	r.Group(func(r chi.Router) {
		r.Use(web.AuthMiddleware)
		r.Get("/api/v1/users/me", h.Me)
	})
}

// Register creates a new user account.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)

	var registerDto account.RegisterDto
	if err := json.NewDecoder(r.Body).Decode(&registerDto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(registerDto); err != nil {
		mLogger.WarnContext(r.Context(), "Validation failed", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.service.Register(r.Context(), registerDto)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error registering user", "error", err)
		respondServiceError(w, mLogger, err)
		return
	}
	mLogger.InfoContext(r.Context(), "User registered", slog.String("ID", created.ID.String()))
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// Me returns the authenticated caller's account.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	userID, ok := web.GetUserID(w, r, mLogger)
	if !ok {
		return
	}

	user, err := h.service.FindByID(r.Context(), userID)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Failed to retrieve user", "UserID", userID, "error", err)
		respondServiceError(w, mLogger, err)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, user)
}

func (h *AccountHandler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}
