package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agora/internal/auth"
	"agora/internal/models"
	"agora/internal/services"
	"agora/pkg/httpx"
)

// UserServiceInterface defines the interface for admin user management
type UserServiceInterface interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
	DeleteUser(ctx context.Context, id, deletedBy string) error
}

// UserHandler handles admin user-management HTTP requests
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// List returns a page of users without credential material
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	users, err := h.service.ListUsers(r.Context(), limit, offset)
	if err != nil {
		httpx.WriteInternalError(w, "Internal server error")
		return
	}

	resp := make([]*services.UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, services.UserToResponse(u))
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

// Get returns a single user without credential material
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.service.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			httpx.WriteNotFound(w, "User not found")
			return
		}
		httpx.WriteInternalError(w, "Internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, services.UserToResponse(user))
}

// Delete removes a user and all of their content
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		httpx.WriteUnauthorized(w, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")

	err := h.service.DeleteUser(r.Context(), id, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			httpx.WriteNotFound(w, "User not found")
			return
		}
		httpx.WriteInternalError(w, "Internal server error")
		return
	}

	httpx.WriteMessage(w, http.StatusOK, "User deleted")
}
