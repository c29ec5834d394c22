package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"agora/internal/auth"
	"agora/internal/models"
)

// PostRepository defines the interface for post data access
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) (*models.Post, error)
	GetByID(ctx context.Context, id string) (*models.Post, error)
	List(ctx context.Context, limit, offset int) ([]*models.Post, error)
	Search(ctx context.Context, term string, limit, offset int) ([]*models.Post, error)
	Update(ctx context.Context, id, title, content string) error
	Delete(ctx context.Context, id string) error
	Like(ctx context.Context, postID, userID string) error
	Unlike(ctx context.Context, postID, userID string) error
	HasLiked(ctx context.Context, postID, userID string) (bool, error)
	Report(ctx context.Context, postID, reporterID, reason string) error
	ListReported(ctx context.Context, limit, offset int) ([]*models.Post, error)
	ClearReports(ctx context.Context, postID string) error
}

// PostService handles post business logic
type PostService struct {
	repo   PostRepository
	logger *slog.Logger
}

// NewPostService creates a new PostService
func NewPostService(repo PostRepository, logger *slog.Logger) *PostService {
	return &PostService{
		repo:   repo,
		logger: logger,
	}
}

// PostResponse represents a post in HTTP responses. Likes always equals
// len(LikedBy); both come from the same aggregate query.
type PostResponse struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	Content    string           `json:"content"`
	AuthorID   string           `json:"author_id"`
	Likes      int              `json:"likes"`
	LikedBy    []string         `json:"liked_by"`
	CommentIDs []string         `json:"comment_ids"`
	Reports    []ReportResponse `json:"reports,omitempty"`
	CreatedAt  string           `json:"created_at"`
	UpdatedAt  string           `json:"updated_at"`
}

// ReportResponse represents a moderation report in HTTP responses
type ReportResponse struct {
	ReporterID string `json:"reporter_id"`
	Reason     string `json:"reason"`
	CreatedAt  string `json:"created_at"`
}

// PostToResponse converts a post model to its response DTO
func PostToResponse(post *models.Post) *PostResponse {
	likedBy := post.LikedBy
	if likedBy == nil {
		likedBy = []string{}
	}
	commentIDs := post.CommentIDs
	if commentIDs == nil {
		commentIDs = []string{}
	}

	resp := &PostResponse{
		ID:         post.ID,
		Title:      post.Title,
		Content:    post.Content,
		AuthorID:   post.AuthorID,
		Likes:      post.Likes,
		LikedBy:    likedBy,
		CommentIDs: commentIDs,
		CreatedAt:  post.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  post.UpdatedAt.Format(time.RFC3339),
	}

	for _, r := range post.Reports {
		resp.Reports = append(resp.Reports, ReportResponse{
			ReporterID: r.ReporterID,
			Reason:     r.Reason,
			CreatedAt:  r.CreatedAt.Format(time.RFC3339),
		})
	}

	return resp
}

// PostsToResponse converts a page of post models to response DTOs
func PostsToResponse(posts []*models.Post) []*PostResponse {
	resp := make([]*PostResponse, 0, len(posts))
	for _, p := range posts {
		resp = append(resp, PostToResponse(p))
	}
	return resp
}

// CreatePost creates a post owned by the caller
func (s *PostService) CreatePost(ctx context.Context, claims *models.SessionClaims, title, content string) (*models.Post, error) {
	post, err := s.repo.Create(ctx, &models.Post{
		Title:    strings.TrimSpace(title),
		Content:  content,
		AuthorID: claims.UserID,
	})
	if err != nil {
		s.logger.Error("failed to create post", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("post created",
		slog.String("post_id", post.ID), slog.String("author_id", claims.UserID))
	return post, nil
}

// GetPost retrieves a post with its like and comment aggregates
func (s *PostService) GetPost(ctx context.Context, id string) (*models.Post, error) {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get post", slog.String("post_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return post, nil
}

// ListPosts retrieves a page of posts, newest first
func (s *PostService) ListPosts(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	posts, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list posts", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return posts, nil
}

// SearchPosts filters posts by substring match on title or content
func (s *PostService) SearchPosts(ctx context.Context, term string, limit, offset int) ([]*models.Post, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.ListPosts(ctx, limit, offset)
	}

	posts, err := s.repo.Search(ctx, term, limit, offset)
	if err != nil {
		s.logger.Error("failed to search posts", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return posts, nil
}

// UpdatePost edits a post; permitted for its owner or an admin
func (s *PostService) UpdatePost(ctx context.Context, claims *models.SessionClaims, id, title, content string) (*models.Post, error) {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}

	if !auth.CanModify(claims, post.AuthorID) {
		return nil, models.ErrForbidden
	}

	if err := s.repo.Update(ctx, id, strings.TrimSpace(title), content); err != nil {
		s.logger.Error("failed to update post", slog.String("post_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return s.GetPost(ctx, id)
}

// DeletePost removes a post; permitted for its owner or an admin
func (s *PostService) DeletePost(ctx context.Context, claims *models.SessionClaims, id string) error {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return err
	}

	if !auth.CanModify(claims, post.AuthorID) {
		return models.ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete post", slog.String("post_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("post deleted",
		slog.String("post_id", id), slog.String("deleted_by", claims.UserID))
	return nil
}

// ToggleLike likes a post the caller hasn't liked yet and unlikes one they
// have, returning the post with its updated aggregates. A like followed by
// an unlike restores the pre-like state exactly.
func (s *PostService) ToggleLike(ctx context.Context, claims *models.SessionClaims, postID string) (*models.Post, error) {
	if _, err := s.GetPost(ctx, postID); err != nil {
		return nil, err
	}

	liked, err := s.repo.HasLiked(ctx, postID, claims.UserID)
	if err != nil {
		s.logger.Error("failed to check like state", slog.String("post_id", postID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if liked {
		err = s.repo.Unlike(ctx, postID, claims.UserID)
	} else {
		err = s.repo.Like(ctx, postID, claims.UserID)
	}
	if err != nil {
		s.logger.Error("failed to toggle like", slog.String("post_id", postID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return s.GetPost(ctx, postID)
}

// ReportPost flags a post for moderation. Authors cannot report their own
// posts and a reporter counts at most once per post.
func (s *PostService) ReportPost(ctx context.Context, claims *models.SessionClaims, postID, reason string) error {
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return err
	}

	if post.AuthorID == claims.UserID {
		return models.ErrForbidden
	}

	if err := s.repo.Report(ctx, postID, claims.UserID, strings.TrimSpace(reason)); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return models.ErrConflict
		}
		s.logger.Error("failed to report post", slog.String("post_id", postID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("post reported",
		slog.String("post_id", postID), slog.String("reporter_id", claims.UserID))
	return nil
}

// ListReportedPosts returns posts with open reports. Admin only; enforced at
// the route.
func (s *PostService) ListReportedPosts(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	posts, err := s.repo.ListReported(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list reported posts", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return posts, nil
}

// ClearReports dismisses all reports on a post
func (s *PostService) ClearReports(ctx context.Context, postID string) error {
	if _, err := s.GetPost(ctx, postID); err != nil {
		return err
	}

	if err := s.repo.ClearReports(ctx, postID); err != nil {
		s.logger.Error("failed to clear reports", slog.String("post_id", postID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	return nil
}
