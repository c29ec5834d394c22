package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agora/internal/auth"
	"agora/internal/models"
	"agora/internal/services"
	"agora/pkg/httpx"
)

// CommentServiceInterface defines the interface for comment business logic
type CommentServiceInterface interface {
	CreateComment(ctx context.Context, claims *models.SessionClaims, postID, content string) (*models.Comment, error)
	ListComments(ctx context.Context, postID string, limit, offset int) ([]*models.Comment, error)
	UpdateComment(ctx context.Context, claims *models.SessionClaims, id, content string) (*models.Comment, error)
	DeleteComment(ctx context.Context, claims *models.SessionClaims, id string) error
}

// CommentHandler handles comment-related HTTP requests
type CommentHandler struct {
	service CommentServiceInterface
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(service CommentServiceInterface) *CommentHandler {
	return &CommentHandler{service: service}
}

type CommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}

// Create adds a comment to a post
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		httpx.WriteUnauthorized(w, "unauthorized")
		return
	}

	postID := chi.URLParam(r, "id")

	var req CommentRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		httpx.WriteBadRequest(w, err.Error())
		return
	}

	comment, err := h.service.CreateComment(r.Context(), claims, postID, req.Content)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			httpx.WriteNotFound(w, "Post not found")
			return
		}
		httpx.WriteInternalError(w, "Internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, services.CommentToResponse(comment))
}

// List retrieves a post's comments in creation order
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")
	limit, offset := parsePagination(r)

	comments, err := h.service.ListComments(r.Context(), postID, limit, offset)
	if err != nil {
		httpx.WriteInternalError(w, "Internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, services.CommentsToResponse(comments))
}

// Update edits a comment; permitted for its owner or an admin
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		httpx.WriteUnauthorized(w, "unauthorized")
		return
	}

	id := chi.URLParam(r, "commentID")

	var req CommentRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		httpx.WriteBadRequest(w, err.Error())
		return
	}

	comment, err := h.service.UpdateComment(r.Context(), claims, id, req.Content)
	if err != nil {
		writeCommentError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, services.CommentToResponse(comment))
}

// Delete removes a comment; permitted for its owner or an admin
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		httpx.WriteUnauthorized(w, "unauthorized")
		return
	}

	id := chi.URLParam(r, "commentID")

	if err := h.service.DeleteComment(r.Context(), claims, id); err != nil {
		writeCommentError(w, err)
		return
	}

	httpx.WriteMessage(w, http.StatusOK, "Comment deleted")
}

func writeCommentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		httpx.WriteNotFound(w, "Comment not found")
	case errors.Is(err, models.ErrForbidden):
		httpx.WriteForbidden(w, "You do not have permission to modify this comment")
	default:
		httpx.WriteInternalError(w, "Internal server error")
	}
}
