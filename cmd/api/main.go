// main.go
package main

import (
	"log"
	"net/http"
	"time"

	"github.com/docsphere/docsphere-backend/internal/api/handlers"
	"github.com/docsphere/docsphere-backend/internal/api/middleware"
	"github.com/docsphere/docsphere-backend/internal/config"
	"github.com/docsphere/docsphere-backend/internal/cron"
	"github.com/docsphere/docsphere-backend/internal/db"
	"github.com/docsphere/docsphere-backend/internal/email"
	"github.com/docsphere/docsphere-backend/internal/repository"
	"github.com/docsphere/docsphere-backend/internal/seed"
	"github.com/docsphere/docsphere-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
)

func main() {
	// ============================================
	// Load environment variables
	// ============================================
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// ============================================
	// Load configuration
	// ============================================
	cfg := config.Load()

	// ============================================
	// Set Gin mode
	// ============================================
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// ============================================
	// Run Database Migrations FIRST
	// ============================================
	log.Println("Running database migrations...")
	migrationsPath := "./internal/db/migrations"
	if err := db.RunMigrations(cfg.DatabaseURL, migrationsPath); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Database migrations completed")

	// ============================================
	// Initialize PostgreSQL (pgxpool + sqlx)
	// ============================================
	pg, err := db.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer pg.Close()

	sqlxDB, err := sqlx.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open sqlx DB: %v", err)
	}
	defer sqlxDB.Close()

	if err := sqlxDB.Ping(); err != nil {
		log.Fatalf("Failed to ping sqlx DB: %v", err)
	}

	// ============================================
	// Initialize Repositories
	// ============================================
	repos := repository.NewRepositories(pg.Pool, sqlxDB)
	log.Println("Repositories initialized")

	// ============================================
	// Initialize Redis (optional)
	// ============================================
	var redisDB *db.RedisDB
	if cfg.RedisURL != "" {
		redisDB, err = db.NewRedisDB(cfg.RedisURL)
		if err != nil {
			log.Printf("Failed to connect to Redis: %v (continuing without cache)", err)
			redisDB = nil
		} else {
			defer redisDB.Close()
			log.Println("Redis cache enabled")
		}
	}

	// ============================================
	// Initialize Email Service (optional)
	// ============================================
	var notifier service.Notifier
	if cfg.SMTPHost != "" {
		notifier = email.NewService(&email.Config{
			Host:        cfg.SMTPHost,
			Port:        cfg.SMTPPort,
			User:        cfg.SMTPUser,
			Password:    cfg.SMTPPassword,
			From:        cfg.SMTPFrom,
			FromName:    cfg.SMTPFromName,
			UseTLS:      cfg.SMTPUseTLS,
			FrontendURL: cfg.FrontendURL,
		})
		log.Println("Email service initialized")
	} else {
		log.Println("Email not configured (SMTP_HOST not set)")
	}

	// ============================================
	// Seed Data (for development)
	// ============================================
	if cfg.Environment != "production" {
		seed.SeedData(repos)
	}

	// ============================================
	// Initialize All Services
	// ============================================
	var cache service.PermissionCache
	if redisDB != nil {
		cache = redisDB
	}
	services := service.NewServices(&service.ServiceDeps{
		Config:   cfg,
		Repos:    repos,
		Notifier: notifier,
		Cache:    cache,
	})
	log.Println("All services initialized")

	// ============================================
	// Initialize Handlers
	// ============================================
	h := handlers.NewHandlers(services)

	// ============================================
	// Initialize Cron Scheduler
	// ============================================
	cronScheduler := cron.NewScheduler(services)
	cronScheduler.Start()
	defer cronScheduler.Stop()

	// ============================================
	// Create Gin Router
	// ============================================
	r := gin.Default()

	// Configure CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		cacheStatus := "disabled"
		if redisDB != nil {
			cacheStatus = "connected"
		}
		emailStatus := "disabled"
		if notifier != nil {
			emailStatus = "configured"
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"database":  "connected",
			"cache":     cacheStatus,
			"email":     emailStatus,
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// ============================================
		// Public routes (no auth required)
		// ============================================
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
			auth.POST("/logout", h.Auth.Logout)
		}

		// Public invitation lookup (the invitee may not have an account yet)
		api.GET("/invitations/token/:token", h.Invitation.GetByToken)

		// ============================================
		// Protected routes (require auth middleware)
		// ============================================
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(services.Auth))
		{
			// User routes
			users := protected.Group("/users")
			{
				users.GET("/me", h.User.GetCurrentUser)
				users.PUT("/me", h.User.UpdateCurrentUser)
			}

			// Workspace routes
			workspaces := protected.Group("/workspaces")
			{
				workspaces.GET("", h.Workspace.List)
				workspaces.POST("", h.Workspace.Create)
				workspaces.GET("/:id", h.Workspace.Get)
				workspaces.PUT("/:id", h.Workspace.Update)
				workspaces.DELETE("/:id", h.Workspace.Delete)
				workspaces.GET("/:id/access", h.Workspace.GetAccess)

				// Members
				workspaces.GET("/:id/members", h.Member.List)
				workspaces.PUT("/:id/members/:userId", h.Member.UpdateRole)
				workspaces.DELETE("/:id/members/:userId", h.Member.Remove)

				// Invitations
				workspaces.POST("/:id/invitations", h.Invitation.Create)
				workspaces.GET("/:id/invitations", h.Invitation.ListByWorkspace)
			}

			// Invitation routes
			invitations := protected.Group("/invitations")
			{
				invitations.GET("/pending", h.Invitation.MyInvitations)
				invitations.POST("/accept/:token", h.Invitation.Accept)
				invitations.POST("/reject/:token", h.Invitation.Reject)
				invitations.POST("/resend/:invitationId", h.Invitation.Resend)
				invitations.DELETE("/:invitationId", h.Invitation.Cancel)
				invitations.GET("/:invitationId/activity", h.Invitation.Activity)
			}
		}
	}

	// ============================================
	// Start Server
	// ============================================
	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
