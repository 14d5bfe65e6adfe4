package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Attique-dash/cjs-backend/src/config"
	"github.com/Attique-dash/cjs-backend/src/database"
	"github.com/Attique-dash/cjs-backend/src/handlers"
	"github.com/Attique-dash/cjs-backend/src/logging"
	"github.com/Attique-dash/cjs-backend/src/middleware"
	"github.com/Attique-dash/cjs-backend/src/models"
	"github.com/Attique-dash/cjs-backend/src/repositories"
	"github.com/Attique-dash/cjs-backend/src/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const version = "1.2.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logger := logging.NewLogger("main")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	keyRepo := repositories.NewPostgresKeyRepository(db.GetPool())
	userRepo := repositories.NewPostgresUserRepository(db.GetPool())

	authService, err := services.NewAuthService(userRepo, cfg.JWTSecret, time.Duration(cfg.SessionExpiryHours)*time.Hour)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create auth service")
	}

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if admin, err := authService.SeedAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			logger.Fatal().Err(err).Msg("Failed to seed admin account")
		} else if admin != nil {
			logger.Info().Str("email", admin.Email).Msg("Seeded initial admin account")
		}
	}

	keyService := services.NewKeyService(keyRepo)
	resolver := services.NewResolver(keyRepo, authService)

	recorder := services.NewUsageRecorder(keyRepo, cfg.MeteringQueueSize)
	recorder.Start()
	defer recorder.Stop()

	trackingSink := services.NewLogTrackingSink()

	router := setupRouter(cfg, db, authService, keyService, resolver, recorder, trackingSink)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Port).Str("version", version).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown error")
	}

	// Drain queued usage updates before the pool closes
	recorder.Stop()
	logger.Info().Msg("Server stopped")
}

func setupRouter(
	cfg *config.Config,
	db *database.Database,
	authService *services.AuthService,
	keyService *services.KeyService,
	resolver *services.Resolver,
	recorder *services.UsageRecorder,
	trackingSink services.TrackingSink,
) *gin.Engine {
	if cfg.LogFormat == "json" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logging())

	corsConfig := cors.DefaultConfig()
	if cfg.AllowedOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(cfg.AllowedOrigins, ",")
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", models.HeaderAPIKey)
	router.Use(cors.New(corsConfig))

	healthHandler := handlers.NewHealthHandler(db, version)
	authHandler := handlers.NewAuthHandler(authService)
	keyHandler := handlers.NewKeyHandler(keyService, cfg.ExternalHost)
	webhookHandler := handlers.NewWebhookHandler(trackingSink)

	router.GET("/health", healthHandler.HandleHealth)
	router.GET("/ready", healthHandler.HandleReady)
	router.GET("/info", healthHandler.HandleInfo)

	auth := router.Group("/auth")
	{
		auth.POST("/login", middleware.LoginRateLimit(middleware.RateLimitConfig{
			RequestsPerMinute: cfg.LoginRatePerMinute,
			Burst:             cfg.LoginRateBurst,
		}), authHandler.HandleLogin)
		auth.POST("/logout", authHandler.HandleLogout)
		auth.GET("/me", middleware.SessionAuth(resolver), authHandler.HandleMe)
	}

	portal := router.Group("/portal")
	portal.Use(middleware.SessionAuth(resolver))
	portal.Use(middleware.RequireRoles(models.RoleAdmin))
	{
		portal.POST("/api-keys", keyHandler.HandleIssueKey)
		portal.GET("/api-keys", keyHandler.HandleListKeys)
		portal.GET("/api-keys/integration", keyHandler.HandleConnectionInfo)
		portal.GET("/api-keys/:id", keyHandler.HandleGetKey)
		portal.POST("/api-keys/:id/deactivate", keyHandler.HandleDeactivateKey)
		portal.POST("/api-keys/:id/activate", keyHandler.HandleActivateKey)
		portal.DELETE("/api-keys/:id", keyHandler.HandleDeleteKey)
	}

	webhooks := router.Group("/webhooks")
	webhooks.Use(middleware.WebhookAuth(resolver, recorder))
	{
		webhooks.POST("/tracking", webhookHandler.HandleTrackingWebhook)
	}

	api := router.Group("/api/v1")
	api.Use(middleware.CombinedAuth(resolver, recorder))
	{
		integration := api.Group("/integration")
		integration.Use(middleware.RequirePermissions(models.PermKCDIntegration))
		{
			integration.GET("/ping", func(c *gin.Context) {
				principal, _ := middleware.GetPrincipal(c)
				c.JSON(http.StatusOK, gin.H{
					"status":    "ok",
					"principal": principal,
				})
			})
		}
	}

	return router
}
