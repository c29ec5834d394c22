package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"agora/internal/auth"
	"agora/internal/models"
	"agora/internal/services"
	"agora/pkg/httpx"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PostServiceInterface defines the interface for post business logic
type PostServiceInterface interface {
	CreatePost(ctx context.Context, claims *models.SessionClaims, title, content string) (*models.Post, error)
	GetPost(ctx context.Context, id string) (*models.Post, error)
	ListPosts(ctx context.Context, limit, offset int) ([]*models.Post, error)
	SearchPosts(ctx context.Context, term string, limit, offset int) ([]*models.Post, error)
	UpdatePost(ctx context.Context, claims *models.SessionClaims, id, title, content string) (*models.Post, error)
	DeletePost(ctx context.Context, claims *models.SessionClaims, id string) error
	ToggleLike(ctx context.Context, claims *models.SessionClaims, postID string) (*models.Post, error)
	ReportPost(ctx context.Context, claims *models.SessionClaims, postID, reason string) error
	ListReportedPosts(ctx context.Context, limit, offset int) ([]*models.Post, error)
	ClearReports(ctx context.Context, postID string) error
}

// PostHandler handles post-related HTTP requests
type PostHandler struct {
	service PostServiceInterface
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(service PostServiceInterface) *PostHandler {
	return &PostHandler{service: service}
}

type CreatePostRequest struct {
	Title   string `json:"title" validate:"required,min=1,max=200"`
	Content string `json:"content" validate:"required,min=1,max=10000"`
}

type UpdatePostRequest struct {
	Title   string `json:"title" validate:"required,min=1,max=200"`
	Content string `json:"content" validate:"required,min=1,max=10000"`
}

type ReportPostRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=500"`
}

// parsePagination reads limit/offset query params with bounded defaults
func parsePagination(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return limit, offset
}

// Create handles post creation
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		httpx.WriteUnauthorized(w, "unauthorized")
		return
	}

	var req CreatePostRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		httpx.WriteBadRequest(w, err.Error())
		return
	}

	post, err := h.service.CreatePost(r.Context(), claims, req.Title, req.Content)
	if err != nil {
		httpx.WriteInternalError(w, "Internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, services.PostToResponse(post))
}

// Get retrieves a single post with its aggregates
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	post, err := h.service.GetPost(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			httpx.WriteNotFound(w, "Post not found")
			return
		}
		httpx.WriteInternalError(w, "Internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, services.PostToResponse(post))
}

// List retrieves a page of posts, optionally filtered by a search term
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	term := r.URL.Query().Get("search")

	var (
		posts []*models.Post
		err   error
	)
	if term != "" {
		posts, err = h.service.SearchPosts(r.Context(), term, limit, offset)
	} else {
		posts, err = h.service.ListPosts(r.Context(), limit, offset)
	}
	if err != nil {
		httpx.WriteInternalError(w, "Internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, services.PostsToResponse(posts))
}

// Update handles post edits by the owner or an admin
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		httpx.WriteUnauthorized(w, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")

	var req UpdatePostRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		httpx.WriteBadRequest(w, err.Error())
		return
	}

	post, err := h.service.UpdatePost(r.Context(), claims, id, req.Title, req.Content)
	if err != nil {
		writePostError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, services.PostToResponse(post))
}

// Delete removes a post; permitted for its owner or an admin
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		httpx.WriteUnauthorized(w, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")

	if err := h.service.DeletePost(r.Context(), claims, id); err != nil {
		writePostError(w, err)
		return
	}

	httpx.WriteMessage(w, http.StatusOK, "Post deleted")
}

// Like toggles the caller's like on a post
func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		httpx.WriteUnauthorized(w, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")

	post, err := h.service.ToggleLike(r.Context(), claims, id)
	if err != nil {
		writePostError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, services.PostToResponse(post))
}

// Report flags a post for moderation
func (h *PostHandler) Report(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		httpx.WriteUnauthorized(w, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")

	var req ReportPostRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		httpx.WriteBadRequest(w, err.Error())
		return
	}

	err := h.service.ReportPost(r.Context(), claims, id, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			httpx.WriteNotFound(w, "Post not found")
		case errors.Is(err, models.ErrForbidden):
			httpx.WriteForbidden(w, "You cannot report your own post")
		case errors.Is(err, models.ErrConflict):
			httpx.WriteConflict(w, "You have already reported this post")
		default:
			httpx.WriteInternalError(w, "Internal server error")
		}
		return
	}

	httpx.WriteMessage(w, http.StatusOK, "Post reported")
}

// ListReported returns posts with open reports, most reported first
func (h *PostHandler) ListReported(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	posts, err := h.service.ListReportedPosts(r.Context(), limit, offset)
	if err != nil {
		httpx.WriteInternalError(w, "Internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, services.PostsToResponse(posts))
}

// ClearReports dismisses all reports on a post
func (h *PostHandler) ClearReports(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.service.ClearReports(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			httpx.WriteNotFound(w, "Post not found")
			return
		}
		httpx.WriteInternalError(w, "Internal server error")
		return
	}

	httpx.WriteMessage(w, http.StatusOK, "Reports cleared")
}

func writePostError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		httpx.WriteNotFound(w, "Post not found")
	case errors.Is(err, models.ErrForbidden):
		httpx.WriteForbidden(w, "You do not have permission to modify this post")
	default:
		httpx.WriteInternalError(w, "Internal server error")
	}
}
