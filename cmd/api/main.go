package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/invitelink/backend/internal/config"
	"github.com/invitelink/backend/internal/handlers"
	"github.com/invitelink/backend/internal/middleware"
	"github.com/invitelink/backend/internal/models"
	"github.com/invitelink/backend/internal/services"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.New()

	// Initialize database
	db, err := models.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Run migrations
	if err := models.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize Redis
	redisClient := models.InitRedis(cfg)
	defer redisClient.Close()

	// Initialize services
	authService := services.NewAuthService(db, redisClient, cfg)
	inviteService := services.NewInviteService(db)
	otpService := services.NewOTPService(db, cfg, inviteService)
	profileService := services.NewProfileService(db, inviteService)
	auditService := services.NewAuditService(db)

	// Periodic cleanup of expired refresh tokens
	go func() {
		for {
			if err := authService.CleanupExpiredTokens(); err != nil {
				log.Printf("Refresh token cleanup error: %v", err)
			}
			time.Sleep(1 * time.Hour)
		}
	}()

	// Setup Gin router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, otpService, auditService, cfg)
	profileHandler := handlers.NewProfileHandler(profileService, inviteService, auditService)

	// Health check outside API group
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// Setup routes
	api := router.Group("/api/v1")
	{
		// Catch-all OPTIONS handler for CORS preflight requests
		api.OPTIONS("/*path", func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})

		// Auth routes (guest-only, except refresh/logout)
		auth := api.Group("/auth")
		{
			auth.POST("/register", middleware.RequireGuest(authService), authHandler.Register)
			auth.POST("/send-code", middleware.RequireGuest(authService), authHandler.SendCode)
			auth.POST("/verify-code", middleware.RequireGuest(authService), authHandler.VerifyCode)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", middleware.Auth(authService), authHandler.Logout)
		}

		// User routes
		user := api.Group("/user")
		user.Use(middleware.Auth(authService))
		{
			user.GET("/profile", profileHandler.GetProfile)
			user.POST("/profile/activate-code", profileHandler.ActivateInvite)
		}
	}

	// Start server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
