package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/simple-keyauth/pkg/account"
	"github.com/tendant/simple-keyauth/pkg/apiauth"
	"github.com/tendant/simple-keyauth/pkg/errors"
)

// Handler handles HTTP requests for account management
type Handler struct {
	service *account.Service
}

// NewHandler creates a new account handler
func NewHandler(service *account.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// WhoAmIResponse describes the authenticated caller.
type WhoAmIResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Origin string `json:"origin"`
}

// RegisterRoutes registers the /users routes. Every route expects an
// apiauth.Caller in the request context; POST / is registered separately
// with RegisterCreateRoute so it can be mounted outside the auth gate.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.ListAccounts)
	r.Get("/api_key", h.GetAccountByKey)
	r.Get("/{user_id}", h.GetAccount)
	r.Put("/{user_id}", h.UpdateAccount)
	r.Delete("/{user_id}", h.DeleteAccount)
}

// RegisterCreateRoute registers POST /.
func (h *Handler) RegisterCreateRoute(r chi.Router) {
	r.Post("/", h.CreateAccount)
}

// CreateAccount handles POST /users
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req account.NewAccountRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		slog.Warn("Failed to parse create account request", "error", err)
		errors.WriteHTTP(w, r, errors.BadRequest("invalid request body"))
		return
	}

	view, err := h.service.CreateAccount(r.Context(), req)
	if err != nil {
		logFailure(r.Context(), "Failed to create account", err, "user_id", req.UserID)
		errors.WriteHTTP(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, view)
}

// ListAccounts handles GET /users
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.ListAccounts(r.Context())
	if err != nil {
		logFailure(r.Context(), "Failed to list accounts", err)
		errors.WriteHTTP(w, r, err)
		return
	}
	if views == nil {
		views = []account.AccountView{}
	}
	render.JSON(w, r, views)
}

// GetAccountByKey handles GET /users/api_key, returning the account that
// owns the key presented in the credential header.
func (h *Handler) GetAccountByKey(w http.ResponseWriter, r *http.Request) {
	caller, ok := apiauth.CallerFromContext(r.Context())
	if !ok {
		errors.WriteHTTP(w, r, errors.Unauthenticated("missing api key"))
		return
	}

	view, err := h.service.GetAccountByKey(r.Context(), caller.APIKey())
	if err != nil {
		logFailure(r.Context(), "Failed to get account by key", err, "caller", caller)
		errors.WriteHTTP(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

// GetAccount handles GET /users/{user_id}
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	view, err := h.service.GetAccount(r.Context(), userID)
	if err != nil {
		logFailure(r.Context(), "Failed to get account", err, "user_id", userID)
		errors.WriteHTTP(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

// UpdateAccount handles PUT /users/{user_id}
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	var req account.UpdateAccountRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		slog.Warn("Failed to parse update account request", "user_id", userID, "error", err)
		errors.WriteHTTP(w, r, errors.BadRequest("invalid request body"))
		return
	}

	if err := h.service.UpdateAccount(r.Context(), req, userID); err != nil {
		logFailure(r.Context(), "Failed to update account", err, "user_id", userID)
		errors.WriteHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteAccount handles DELETE /users/{user_id}
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	if err := h.service.DeleteAccount(r.Context(), userID); err != nil {
		logFailure(r.Context(), "Failed to delete account", err, "user_id", userID)
		errors.WriteHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// WhoAmI handles GET /whoami
func (h *Handler) WhoAmI(w http.ResponseWriter, r *http.Request) {
	caller, ok := apiauth.CallerFromContext(r.Context())
	if !ok {
		errors.WriteHTTP(w, r, errors.Unauthenticated("missing api key"))
		return
	}

	view := caller.Account()
	render.JSON(w, r, WhoAmIResponse{
		UserID: view.UserID,
		Email:  view.Email,
		Origin: caller.Origin().String(),
	})
}

// logFailure logs client errors at Warn and server errors at Error.
func logFailure(ctx context.Context, msg string, err error, args ...any) {
	level := slog.LevelError
	if errors.ToResponse(err).Status < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	slog.Log(ctx, level, msg, append(args, "error", err)...)
}
