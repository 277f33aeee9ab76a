package main

import (
	"github.com/coletiva/backend/internal/config"
	"github.com/coletiva/backend/internal/handlers"
	"github.com/coletiva/backend/internal/middleware"
	"github.com/coletiva/backend/internal/models"
	"github.com/coletiva/backend/internal/services"
	"github.com/coletiva/backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, cfg *config.Config, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for credential-guessing surfaces
	authLimiter := middleware.NewRateLimiter(5, 10)

	// Join and restore must go through the same admission mutex, so the
	// participant and admin handlers share one membership service.
	memberships := services.NewMembershipService(models.GetDB())

	// Health check
	healthHandler := handlers.NewHealthHandler(models.GetDB())
	r.GET("/health", healthHandler.Check)

	// Receipt files referenced by report hyperlink cells
	r.Static("/storage", cfg.Storage.Dir)

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public, rate limited)
		auth := api.Group("/auth", authLimiter.Middleware())
		{
			auth.POST("/register", svc.authHandler.Register)
			auth.POST("/login", svc.authHandler.Login)
		}

		// Protected routes (any authenticated user)
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.Me)
			protected.POST("/auth/logout", svc.authHandler.Logout)

			// Public project browsing
			projectHandler := handlers.NewProjectHandler(models.GetDB())
			protected.GET("/projects", projectHandler.PublicList)
			protected.GET("/projects/:id", projectHandler.PublicGet)

			// Membership (self-service)
			membershipHandler := handlers.NewMembershipHandler(models.GetDB(), memberships)
			protected.POST("/projects/:id/join", membershipHandler.Join)
			protected.GET("/projects/:id/membership", membershipHandler.Show)

			// Payments (own)
			paymentHandler := handlers.NewPaymentHandler(models.GetDB(), cfg)
			protected.POST("/projects/:id/payments", paymentHandler.Record)
			protected.GET("/projects/:id/payments", paymentHandler.List)
			protected.GET("/projects/:id/payments/options", paymentHandler.Options)

			// Payment methods (decrypted, members only)
			paymentMethodHandler := handlers.NewPaymentMethodHandler(models.GetDB())
			protected.GET("/projects/:id/payment-methods", paymentMethodHandler.Options)
		}

		// Admin only routes
		admin := api.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			// Projects
			projectHandler := handlers.NewProjectHandler(models.GetDB())
			admin.GET("/projects", projectHandler.List)
			admin.GET("/projects/:id", projectHandler.Get)
			admin.POST("/projects", projectHandler.Create)
			admin.PUT("/projects/:id", projectHandler.Update)
			admin.DELETE("/projects/:id", projectHandler.Delete)

			// Members
			memberHandler := handlers.NewMemberHandler(models.GetDB(), memberships)
			admin.GET("/projects/:id/members", memberHandler.List)
			admin.DELETE("/projects/:id/members/:memberId", memberHandler.Remove)
			admin.POST("/projects/:id/members/:memberId/restore", memberHandler.Restore)

			// Payment methods
			paymentMethodHandler := handlers.NewPaymentMethodHandler(models.GetDB())
			admin.GET("/projects/:id/payment-methods", paymentMethodHandler.List)
			admin.POST("/projects/:id/payment-methods", paymentMethodHandler.Create)
			admin.PUT("/projects/:id/payment-methods/:methodId", paymentMethodHandler.Update)
			admin.DELETE("/projects/:id/payment-methods/:methodId", paymentMethodHandler.Delete)

			// Reports
			admin.POST("/projects/:id/reports", svc.reportHandler.Create)
			admin.GET("/projects/:id/reports", svc.reportHandler.List)
			admin.GET("/projects/:id/reports/:reportId/download", svc.reportHandler.Download)

			// Audit logs
			auditLogHandler := handlers.NewAuditLogHandler(models.GetDB())
			admin.GET("/audit-logs", auditLogHandler.List)
		}
	}
}
