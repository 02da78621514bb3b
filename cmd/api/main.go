package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fortifund/fortifund-api/internal/auth"
	"github.com/fortifund/fortifund-api/internal/background"
	"github.com/fortifund/fortifund-api/internal/config"
	"github.com/fortifund/fortifund-api/internal/database"
	"github.com/fortifund/fortifund-api/internal/handlers"
	middlewareCustom "github.com/fortifund/fortifund-api/internal/middleware"
	"github.com/fortifund/fortifund-api/internal/models"
	"github.com/fortifund/fortifund-api/internal/repositories"
	"github.com/fortifund/fortifund-api/internal/routes"
	"github.com/fortifund/fortifund-api/internal/services"
	"github.com/fortifund/fortifund-api/internal/storage"
	pkgauth "github.com/fortifund/fortifund-api/pkg/auth"
	pkghttp "github.com/fortifund/fortifund-api/pkg/http"
	pkglogger "github.com/fortifund/fortifund-api/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		migrateCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		err := db.Migrate(migrateCtx)
		cancel()
		if err != nil {
			logger.Error("failed to run migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	entryRepo := repositories.NewHubEntryRepository(db)
	categoryRepo := repositories.NewHubCategoryRepository(db)
	statsRepo := repositories.NewStatsRepository(userRepo, entryRepo, categoryRepo)

	// Initialize token manager
	tokenManager, err := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.JWTAlgorithm,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
		cfg.Auth.RememberMeExpiry,
	)
	if err != nil {
		logger.Error("failed to initialize token manager", slog.Any("error", err))
		os.Exit(1)
	}

	auditLogger := pkglogger.NewAuditLogger(logger)

	// Mail goes through SMTP, SES or the log depending on MAIL_DRIVER
	mailer, err := services.NewMailer(cfg.Email, logger)
	if err != nil {
		logger.Error("failed to initialize mailer", slog.Any("error", err))
		os.Exit(1)
	}
	notifier := services.NewSignupNotifier(mailer, cfg.Email.AdminEmail, logger)

	imageStore, err := storage.NewImageStore(cfg.Upload.Dir, cfg.Upload.URLPrefix, cfg.Upload.MaxBytes)
	if err != nil {
		logger.Error("failed to initialize image store", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize services
	authService := services.NewAuthService(userRepo, tokenManager, notifier, logger, auditLogger)
	userService := services.NewUserService(userRepo, logger, auditLogger)
	hubService := services.NewHubService(entryRepo, logger, auditLogger)
	categoryService := services.NewCategoryService(categoryRepo, imageStore, logger, auditLogger)
	dashboardService := services.NewDashboardService(statsRepo, logger)

	// Initialize handlers
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	h := routes.Handlers{
		Auth:        handlers.NewAuthHandler(authService, ipConfig),
		Users:       handlers.NewUserHandler(userService),
		HubEntries:  handlers.NewHubEntryHandler(hubService),
		Categories:  handlers.NewHubCategoryHandler(categoryService, cfg.Upload.MaxBytes),
		Admin:       handlers.NewAdminHandler(dashboardService),
		CurrentUser: authService,
	}

	// Bootstrap first admin user if configured
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdminUser(ctx, userRepo, cfg.Bootstrap, logger); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	cancel()

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.NewCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger, ipConfig))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, h, middlewareCustom.DefaultAuthRateLimit(cfg.Auth.LoginRateLimitPerMinute, ipConfig))
	routes.RegisterUploads(router, cfg.Upload.URLPrefix, imageStore.Dir())

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		pool, err := db.HealthCheck(ctx)
		if err != nil {
			logger.Warn("health check failed", slog.Any("error", err))
			pkghttp.WriteJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "database": "down"})
			return
		}

		pkghttp.WriteJSON(w, r, http.StatusOK, map[string]any{"status": "healthy", "database": "up", "pool": pool})
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start orphaned image sweep
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()

	var sweeper *background.ImageSweeper
	if cfg.Upload.SweepInterval > 0 {
		sweeper = background.NewImageSweeper(imageStore, categoryRepo, logger, cfg.Upload.SweepInterval, cfg.Upload.SweepGrace)
		go sweeper.Start(sweepCtx)
	}

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	if sweeper != nil {
		sweeper.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	}

	// Let in-flight signup notifications finish
	notifier.Wait()

	logger.Info("server stopped gracefully")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// adminStore is the slice of the user repository needed to bootstrap an admin
type adminStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
}

// ensureAdminUser creates an active admin from BOOTSTRAP_ADMIN_EMAIL and
// BOOTSTRAP_ADMIN_PASSWORD unless that account already exists
func ensureAdminUser(ctx context.Context, users adminStore, cfg config.BootstrapConfig, logger *slog.Logger) error {
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" || cfg.AdminPassword == "" {
		logger.Info("no bootstrap admin configured, skipping admin user creation")
		return nil
	}

	// Check if admin already exists
	_, err := users.GetByEmail(ctx, email)
	if err == nil {
		logger.Info("admin user already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	hashedPassword, err := pkgauth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		Email:        email,
		PasswordHash: hashedPassword,
		FullName:     "Admin",
		Role:         models.RoleAdmin,
		Status:       models.StatusActive,
		CreatedBy:    "system",
		UpdatedBy:    "system",
	}

	if _, err := users.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("admin user created", slog.String("email", pkglogger.SanitizedEmail(email)))
	return nil
}
