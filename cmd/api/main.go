package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"agora/internal/auth"
	"agora/internal/background"
	"agora/internal/config"
	"agora/internal/database"
	"agora/internal/handlers"
	middlewareCustom "agora/internal/middleware"
	"agora/internal/models"
	"agora/internal/ratelimit"
	"agora/internal/repositories"
	"agora/internal/routes"
	"agora/internal/services"
	pkgauth "agora/pkg/auth"
	pkglogger "agora/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Apply pending schema migrations before taking traffic
	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 60*time.Second)
	if err := database.RunMigrations(migrateCtx, cfg.Database.DSN()); err != nil {
		migrateCancel()
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	migrateCancel()

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	postRepo := repositories.NewPostRepository(db)
	commentRepo := repositories.NewCommentRepository(db)

	// Token machinery
	issuer := auth.NewTokenIssuer(userRepo, cfg.Auth.VerificationTokenTTL, cfg.Auth.ResetTokenTTL)
	signer := auth.NewSessionSigner(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	hasher := pkgauth.NewHasher(cfg.Auth.BcryptCost)

	auditLogger := pkglogger.NewAuditLogger(logger)

	// Forgot-password limiter: shared Redis window when configured, otherwise
	// a per-process one
	var memLimiter *ratelimit.MemoryLimiter
	var limiter ratelimit.Limiter
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		limiter = ratelimit.NewRedisLimiter(client, cfg.RateLimit.ForgotPasswordMax, cfg.RateLimit.ForgotPasswordWindow, "forgot_password")
		logger.Info("using redis rate limiter", slog.String("addr", cfg.Redis.Addr))
	} else {
		memLimiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.ForgotPasswordMax, cfg.RateLimit.ForgotPasswordWindow)
		limiter = memLimiter
	}

	// AWS SES email dispatcher
	dispatcher, err := services.NewSESDispatcher(
		cfg.Email.AWSRegion,
		cfg.Email.FromAddress,
		cfg.Email.FrontendURL,
		logger,
	)
	if err != nil {
		logger.Error("failed to initialize email dispatcher", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize services
	authService := services.NewAuthService(userRepo, issuer, signer, hasher, dispatcher, limiter, logger, auditLogger)
	userService := services.NewUserService(userRepo, logger, auditLogger)
	postService := services.NewPostService(postRepo, logger)
	commentService := services.NewCommentService(commentRepo, postRepo, logger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	postHandler := handlers.NewPostHandler(postService)
	commentHandler := handlers.NewCommentHandler(commentService)
	userHandler := handlers.NewUserHandler(userService)

	// Cleanup manager clears expired token digests; it also prunes the
	// in-memory limiter when one is in use
	var pruner background.Pruner
	if memLimiter != nil {
		pruner = memLimiter
	}
	cleanupManager := background.NewCleanupManager(userRepo, pruner, logger, cfg.Auth.CleanupInterval)

	// Bootstrap first admin user if configured
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdminUser(ctx, userRepo, hasher, logger); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	cancel()

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, authHandler, postHandler, commentHandler, userHandler, signer)

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// ensureAdminUser creates the first admin user if ADMIN_EMAIL and ADMIN_PASSWORD are set
func ensureAdminUser(ctx context.Context, userRepo *repositories.UserRepository, hasher *pkgauth.Hasher, logger *slog.Logger) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	adminUsername := os.Getenv("ADMIN_USERNAME")
	if adminUsername == "" {
		adminUsername = "admin"
	}

	if adminEmail == "" || adminPassword == "" {
		logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping admin user creation")
		return nil
	}

	// Check if admin already exists
	_, err := userRepo.GetByEmail(ctx, adminEmail)
	if err == nil {
		logger.Info("admin user already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	if err := pkgauth.ValidatePassword(adminPassword); err != nil {
		return fmt.Errorf("invalid admin password: %w", err)
	}

	hashedPassword, err := hasher.Hash(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	// Admin accounts skip email verification
	admin := &models.User{
		Username:     adminUsername,
		Email:        adminEmail,
		PasswordHash: hashedPassword,
		Role:         models.RoleAdmin,
		IsVerified:   true,
	}

	if _, err := userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("admin user created successfully")
	return nil
}
