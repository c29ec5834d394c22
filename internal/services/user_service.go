package services

import (
	"context"
	"errors"
	"log/slog"

	"agora/internal/models"
	pkglogger "agora/pkg/logger"
)

// UserService handles admin-facing user management
type UserService struct {
	repo        UserRepository
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewUserService creates a new UserService
func NewUserService(repo UserRepository, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *UserService {
	return &UserService{
		repo:        repo,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return user, nil
}

// ListUsers retrieves a page of users. Admin only; enforced at the route.
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list users", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return users, nil
}

// DeleteUser removes a user and, through the schema's cascading foreign
// keys, all of their posts, comments, likes and reports.
func (s *UserService) DeleteUser(ctx context.Context, id, deletedBy string) error {
	err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete user", slog.String("user_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("user deleted", slog.String("user_id", id))
	s.auditLogger.LogAccountAction("user_deleted", id, map[string]string{"deleted_by": deletedBy})

	return nil
}
