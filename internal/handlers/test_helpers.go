package handlers

import (
	"context"

	"agora/internal/models"
	"agora/internal/services"
)

// MockAuthService is a function-field mock for AuthServiceInterface
type MockAuthService struct {
	RegisterFunc           func(ctx context.Context, username, email, password string) error
	VerifyEmailFunc        func(ctx context.Context, token string) (*models.User, error)
	ResendVerificationFunc func(ctx context.Context, email string) error
	LoginFunc              func(ctx context.Context, email, password string) (*services.LoginResponse, error)
	ForgotPasswordFunc     func(ctx context.Context, email string) error
	ResetPasswordFunc      func(ctx context.Context, token, newPassword string) error
	UpdateProfileFunc      func(ctx context.Context, userID, username, password string) (*models.User, error)
}

func (m *MockAuthService) Register(ctx context.Context, username, email, password string) error {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, username, email, password)
	}
	return nil
}

func (m *MockAuthService) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	if m.VerifyEmailFunc != nil {
		return m.VerifyEmailFunc(ctx, token)
	}
	return nil, models.ErrNotFound
}

func (m *MockAuthService) ResendVerification(ctx context.Context, email string) error {
	if m.ResendVerificationFunc != nil {
		return m.ResendVerificationFunc(ctx, email)
	}
	return nil
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*services.LoginResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return nil, models.ErrUnauthorized
}

func (m *MockAuthService) ForgotPassword(ctx context.Context, email string) error {
	if m.ForgotPasswordFunc != nil {
		return m.ForgotPasswordFunc(ctx, email)
	}
	return nil
}

func (m *MockAuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, token, newPassword)
	}
	return nil
}

func (m *MockAuthService) UpdateProfile(ctx context.Context, userID, username, password string) (*models.User, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, userID, username, password)
	}
	return nil, models.ErrNotFound
}
