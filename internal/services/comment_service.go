package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"agora/internal/auth"
	"agora/internal/models"
)

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	ListByPost(ctx context.Context, postID string, limit, offset int) ([]*models.Comment, error)
	Update(ctx context.Context, id, content string) error
	Delete(ctx context.Context, id string) error
}

// CommentService handles comment business logic
type CommentService struct {
	repo     CommentRepository
	postRepo PostRepository
	logger   *slog.Logger
}

// NewCommentService creates a new CommentService
func NewCommentService(repo CommentRepository, postRepo PostRepository, logger *slog.Logger) *CommentService {
	return &CommentService{
		repo:     repo,
		postRepo: postRepo,
		logger:   logger,
	}
}

// CommentResponse represents a comment in HTTP responses
type CommentResponse struct {
	ID        string `json:"id"`
	PostID    string `json:"post_id"`
	AuthorID  string `json:"author_id"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// CommentToResponse converts a comment model to its response DTO
func CommentToResponse(comment *models.Comment) *CommentResponse {
	return &CommentResponse{
		ID:        comment.ID,
		PostID:    comment.PostID,
		AuthorID:  comment.AuthorID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt.Format(time.RFC3339),
		UpdatedAt: comment.UpdatedAt.Format(time.RFC3339),
	}
}

// CommentsToResponse converts a page of comment models to response DTOs
func CommentsToResponse(comments []*models.Comment) []*CommentResponse {
	resp := make([]*CommentResponse, 0, len(comments))
	for _, c := range comments {
		resp = append(resp, CommentToResponse(c))
	}
	return resp
}

// CreateComment adds a comment to an existing post
func (s *CommentService) CreateComment(ctx context.Context, claims *models.SessionClaims, postID, content string) (*models.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to check post", slog.String("post_id", postID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	comment, err := s.repo.Create(ctx, &models.Comment{
		PostID:   postID,
		AuthorID: claims.UserID,
		Content:  content,
	})
	if err != nil {
		s.logger.Error("failed to create comment", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("comment created",
		slog.String("comment_id", comment.ID), slog.String("post_id", postID))
	return comment, nil
}

// ListComments retrieves a post's comments in creation order
func (s *CommentService) ListComments(ctx context.Context, postID string, limit, offset int) ([]*models.Comment, error) {
	comments, err := s.repo.ListByPost(ctx, postID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list comments", slog.String("post_id", postID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return comments, nil
}

// UpdateComment edits a comment; permitted for its owner or an admin
func (s *CommentService) UpdateComment(ctx context.Context, claims *models.SessionClaims, id, content string) (*models.Comment, error) {
	comment, err := s.getComment(ctx, id)
	if err != nil {
		return nil, err
	}

	if !auth.CanModify(claims, comment.AuthorID) {
		return nil, models.ErrForbidden
	}

	if err := s.repo.Update(ctx, id, content); err != nil {
		s.logger.Error("failed to update comment", slog.String("comment_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return s.getComment(ctx, id)
}

// DeleteComment removes a comment; permitted for its owner or an admin
func (s *CommentService) DeleteComment(ctx context.Context, claims *models.SessionClaims, id string) error {
	comment, err := s.getComment(ctx, id)
	if err != nil {
		return err
	}

	if !auth.CanModify(claims, comment.AuthorID) {
		return models.ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete comment", slog.String("comment_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("comment deleted",
		slog.String("comment_id", id), slog.String("deleted_by", claims.UserID))
	return nil
}

func (s *CommentService) getComment(ctx context.Context, id string) (*models.Comment, error) {
	comment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get comment", slog.String("comment_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return comment, nil
}
