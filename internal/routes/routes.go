package routes

import (
	"github.com/go-chi/chi/v5"

	"agora/internal/auth"
	"agora/internal/handlers"
	"agora/internal/middleware"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	postHandler *handlers.PostHandler,
	commentHandler *handlers.CommentHandler,
	userHandler *handlers.UserHandler,
	signer *auth.SessionSigner,
) {
	// Rate limiting config for unauthenticated auth endpoints
	rateLimitConfig := middleware.DefaultAuthRateLimit()

	// Public routes - no authentication required
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/register", authHandler.Register)
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/login", authHandler.Login)
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/resend-verification", authHandler.ResendVerification)
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/forgot-password", authHandler.ForgotPassword)
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/reset-password", authHandler.ResetPassword)
	router.Get("/auth/verify-email", authHandler.VerifyEmail)

	// Posts and comments are publicly readable
	router.Get("/posts", postHandler.List)
	router.Get("/posts/{id}", postHandler.Get)
	router.Get("/posts/{id}/comments", commentHandler.List)

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(signer))

		r.Put("/profile", authHandler.UpdateProfile)

		r.Post("/posts", postHandler.Create)
		r.Put("/posts/{id}", postHandler.Update)
		r.Delete("/posts/{id}", postHandler.Delete)
		r.Post("/posts/{id}/like", postHandler.Like)
		r.Post("/posts/{id}/report", postHandler.Report)

		r.Post("/posts/{id}/comments", commentHandler.Create)
		r.Put("/posts/{id}/comments/{commentID}", commentHandler.Update)
		r.Delete("/posts/{id}/comments/{commentID}", commentHandler.Delete)

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Get("/admin/users", userHandler.List)
			r.Get("/admin/users/{id}", userHandler.Get)
			r.Delete("/admin/users/{id}", userHandler.Delete)
			r.Get("/admin/reports", postHandler.ListReported)
			r.Delete("/admin/posts/{id}/reports", postHandler.ClearReports)
		})
	})
}
