package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"agora/internal/auth"
	"agora/internal/models"
	"agora/internal/services"
	"agora/pkg/httpx"
)

// Responses for flows where account existence must not be observable. The
// text is byte-identical across the existing/non-existing/throttled cases.
const (
	registrationAcceptedMsg = "Registration received. If the email is not already registered, you will receive a confirmation email."
	verificationResentMsg   = "If an account exists with this email, a verification email will be sent."
	resetRequestedMsg       = "If an account exists with this email, a password reset email will be sent."
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Register(ctx context.Context, username, email, password string) error
	VerifyEmail(ctx context.Context, token string) (*models.User, error)
	ResendVerification(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (*services.LoginResponse, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	UpdateProfile(ctx context.Context, userID, username, password string) (*models.User, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// Request DTOs

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

type UpdateProfileRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password,omitempty"`
}

// Register handles user registration. Duplicate emails and usernames get the
// same accepted response as fresh registrations so the endpoint cannot be
// used to enumerate accounts; only validation and dependency failures are
// distinguishable.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		httpx.WriteBadRequest(w, err.Error())
		return
	}

	err := h.service.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			httpx.WriteMessage(w, http.StatusAccepted, registrationAcceptedMsg)
		case errors.Is(err, models.ErrInternalServer):
			httpx.WriteInternalError(w, "Internal server error")
		default:
			httpx.WriteBadRequest(w, err.Error())
		}
		return
	}

	httpx.WriteMessage(w, http.StatusAccepted, registrationAcceptedMsg)
}

// VerifyEmail consumes the verification token from the query string
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		httpx.WriteBadRequest(w, "Missing verification token")
		return
	}

	_, err := h.service.VerifyEmail(r.Context(), token)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			httpx.WriteUnauthorized(w, "Invalid or expired verification token")
			return
		}
		httpx.WriteInternalError(w, "Internal server error")
		return
	}

	httpx.WriteMessage(w, http.StatusOK, "Email verified successfully. Please log in.")
}

// ResendVerification re-sends the verification email
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req ResendVerificationRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		httpx.WriteBadRequest(w, err.Error())
		return
	}

	_ = h.service.ResendVerification(r.Context(), req.Email)

	httpx.WriteMessage(w, http.StatusAccepted, verificationResentMsg)
}

// Login authenticates a user and returns a bearer session token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		httpx.WriteBadRequest(w, err.Error())
		return
	}

	resp, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound),
			errors.Is(err, models.ErrUnauthorized),
			errors.Is(err, models.ErrEmailNotVerified):
			// One generic response for unknown email, bad password and
			// unverified accounts to prevent user enumeration
			httpx.WriteUnauthorized(w, "Authentication failed")
		default:
			httpx.WriteInternalError(w, "Internal server error")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

// ForgotPassword requests a password reset email. Rate limited per email;
// the response never reveals whether the account exists or was throttled.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		httpx.WriteBadRequest(w, err.Error())
		return
	}

	_ = h.service.ForgotPassword(r.Context(), req.Email)

	httpx.WriteMessage(w, http.StatusAccepted, resetRequestedMsg)
}

// ResetPassword consumes a reset token and sets the new password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		httpx.WriteBadRequest(w, err.Error())
		return
	}

	err := h.service.ResetPassword(r.Context(), req.Token, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			httpx.WriteUnauthorized(w, "Invalid or expired reset token")
		case errors.Is(err, models.ErrInternalServer):
			httpx.WriteInternalError(w, "Internal server error")
		default:
			httpx.WriteBadRequest(w, err.Error())
		}
		return
	}

	httpx.WriteMessage(w, http.StatusOK, "Password reset successfully. Please log in.")
}

// UpdateProfile changes the caller's username and optionally their password
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		httpx.WriteUnauthorized(w, "unauthorized")
		return
	}

	var req UpdateProfileRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		httpx.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), claims.UserID, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			httpx.WriteConflict(w, "Username is already taken")
		case errors.Is(err, models.ErrNotFound):
			httpx.WriteNotFound(w, "User not found")
		case errors.Is(err, models.ErrInternalServer):
			httpx.WriteInternalError(w, "Internal server error")
		default:
			httpx.WriteBadRequest(w, err.Error())
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, services.UserToResponse(user))
}
