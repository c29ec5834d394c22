package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"agora/internal/auth"
	"agora/internal/models"
	"agora/internal/ratelimit"
	pkgauth "agora/pkg/auth"
	pkglogger "agora/pkg/logger"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	UpdateProfile(ctx context.Context, id, username string, passwordHash *string) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

// AuthService handles the registration/verification/login/reset lifecycle
type AuthService struct {
	repo        UserRepository
	issuer      *auth.TokenIssuer
	signer      *auth.SessionSigner
	hasher      *pkgauth.Hasher
	dispatcher  Dispatcher
	limiter     ratelimit.Limiter
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	repo UserRepository,
	issuer *auth.TokenIssuer,
	signer *auth.SessionSigner,
	hasher *pkgauth.Hasher,
	dispatcher Dispatcher,
	limiter ratelimit.Limiter,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *AuthService {
	return &AuthService{
		repo:        repo,
		issuer:      issuer,
		signer:      signer,
		hasher:      hasher,
		dispatcher:  dispatcher,
		limiter:     limiter,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// UserResponse represents a user in HTTP responses. Password hashes and
// token material are deliberately absent.
type UserResponse struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	IsVerified bool   `json:"is_verified"`
	CreatedAt  string `json:"created_at"`
}

// LoginResponse is returned on successful login
type LoginResponse struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}

// Register creates a new user in the pending-verification state, issues a
// verification token and dispatches the verification email. The user row is
// persisted before the dispatch attempt; a dispatch failure is surfaced, not
// rolled back.
func (s *AuthService) Register(ctx context.Context, username, email, password string) error {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if err := pkgauth.ValidatePassword(password); err != nil {
		return err
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		s.logger.Info("registration failed: email already registered")
		return models.ErrConflict
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check email", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		s.logger.Info("registration failed: username taken")
		return models.ErrConflict
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check username", slog.Any("error", err))
		return models.ErrInternalServer
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	user, err := s.repo.Create(ctx, &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return models.ErrConflict
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return models.ErrInternalServer
	}

	token, err := s.issuer.Issue(ctx, user.ID, auth.PurposeVerification)
	if err != nil {
		s.logger.Error("failed to issue verification token",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.dispatcher.SendVerification(ctx, user.Email, token, user.Username); err != nil {
		s.logger.Error("failed to dispatch verification email",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID))
	s.auditLogger.LogAccountAction("user_registered", user.ID, nil)

	return nil
}

// VerifyEmail consumes a verification token and transitions the user to
// verified. Unknown and expired tokens are indistinguishable to callers.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	user, err := s.issuer.ConsumeVerification(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("verification token not found or expired")
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to consume verification token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("email verified", slog.String("user_id", user.ID))
	s.auditLogger.LogAccountAction("email_verified", user.ID, nil)

	return user, nil
}

// ResendVerification re-issues a verification token and redispatches the
// email. All outcomes (unknown email, already verified, dispatch failure)
// are reported identically to the caller to prevent enumeration.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to look up email for resend", slog.Any("error", err))
		}
		return nil
	}

	if user.IsVerified {
		return nil
	}

	token, err := s.issuer.Issue(ctx, user.ID, auth.PurposeVerification)
	if err != nil {
		s.logger.Error("failed to re-issue verification token",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return nil
	}

	if err := s.dispatcher.SendVerification(ctx, user.Email, token, user.Username); err != nil {
		s.logger.Error("failed to redispatch verification email",
			slog.String("user_id", user.ID), slog.Any("error", err))
	}

	return nil
}

// Login verifies credentials and issues a bearer session token. Unverified
// users never obtain a session, regardless of password correctness.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, models.ErrUnauthorized
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("login failed: invalid credentials")
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login_failed",
				FailureReason: "invalid_credentials",
			})
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		s.logger.Info("login failed: invalid credentials")
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			FailureReason: "invalid_credentials",
		})
		return nil, models.ErrUnauthorized
	}

	if !user.IsVerified {
		s.logger.Info("login blocked: email not verified", slog.String("user_id", user.ID))
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			FailureReason: "email_not_verified",
		})
		return nil, models.ErrEmailNotVerified
	}

	token, err := s.signer.Issue(user)
	if err != nil {
		s.logger.Error("failed to issue session token",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		Success:   true,
	})

	return &LoginResponse{
		Token: token,
		User:  UserToResponse(user),
	}, nil
}

// ForgotPassword issues a reset token and dispatches the reset email. The
// caller's response is identical whether the email exists, is throttled, or
// the dispatch fails; only the rate limiter and logs see the difference.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	allowed, err := s.limiter.Allow(ctx, email)
	if err != nil {
		s.logger.Error("rate limiter error", slog.Any("error", err))
	}
	if !allowed {
		s.logger.Info("forgot-password throttled",
			slog.String("email", pkglogger.SanitizedEmail(email)))
		return nil
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to look up email for reset", slog.Any("error", err))
		}
		return nil
	}

	token, err := s.issuer.Issue(ctx, user.ID, auth.PurposeReset)
	if err != nil {
		s.logger.Error("failed to issue reset token",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return nil
	}

	if err := s.dispatcher.SendPasswordReset(ctx, user.Email, token, user.Username); err != nil {
		s.logger.Error("failed to dispatch reset email",
			slog.String("user_id", user.ID), slog.Any("error", err))
	}

	return nil
}

// ResetPassword consumes a reset token and stores the new password hash in
// the same atomic update that clears the token.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		return err
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	user, err := s.issuer.ConsumeReset(ctx, token, passwordHash)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("reset token not found or expired")
			return models.ErrNotFound
		}
		s.logger.Error("failed to consume reset token", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("password reset", slog.String("user_id", user.ID))
	s.auditLogger.LogAccountAction("password_reset", user.ID, nil)

	return nil
}

// UpdateProfile changes the caller's username and optionally their password
func (s *AuthService) UpdateProfile(ctx context.Context, userID, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)

	var passwordHash *string
	if password != "" {
		if err := pkgauth.ValidatePassword(password); err != nil {
			return nil, err
		}
		hash, err := s.hasher.Hash(password)
		if err != nil {
			s.logger.Error("failed to hash password", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		passwordHash = &hash
	}

	user, err := s.repo.UpdateProfile(ctx, userID, username, passwordHash)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			s.logger.Info("profile update failed: username taken", slog.String("user_id", userID))
			return nil, models.ErrConflict
		case errors.Is(err, models.ErrNotFound):
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update profile", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("profile updated", slog.String("user_id", userID))
	return user, nil
}

// UserToResponse converts a user model to its response DTO
func UserToResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		Role:       user.Role,
		IsVerified: user.IsVerified,
		CreatedAt:  user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
