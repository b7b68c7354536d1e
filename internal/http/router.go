package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookkinder/internal/auth"
	"github.com/mrlokans/bookkinder/internal/database/books"
	"github.com/mrlokans/bookkinder/internal/database/users"
	"github.com/mrlokans/bookkinder/internal/entities"
	"github.com/mrlokans/bookkinder/internal/readonly"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.Use(RequestLoggerMiddleware())
	router.Use(gin.Recovery())

	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.HSTSMaxAge > 0 {
		router.Use(auth.StrictTransportSecurityMiddleware(cfg.HSTSMaxAge))
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "route not found"})
	})

	// Health endpoints
	health := NewHealthController(cfg.Database, cfg.Redis, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	api := router.Group(apiPrefix(cfg.APIPrefix))
	api.Use(readonly.NewMiddleware(cfg.ReadOnly).Handler())

	cfg.AuthController.RegisterRoutes(api)
	middleware := cfg.AuthController.Middleware()
	requireAuth := middleware.RequireAuth()

	db := cfg.Database.DB
	NewBooksController(books.NewRepository(db), cfg.AuditService).RegisterRoutes(api, requireAuth)
	NewUsersController(users.NewRepository(db), cfg.AuthService, cfg.AuditService).RegisterRoutes(api, requireAuth)

	if cfg.AuditService != nil {
		auditController := NewAuditController(cfg.AuditService)
		api.GET("/audit-events", requireAuth, middleware.RequireRole(entities.RoleAdmin), auditController.GetAuditEvents)
	}

	return router
}

func apiPrefix(prefix string) string {
	prefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return prefix
}
