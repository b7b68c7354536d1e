package auth

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookkinder/internal/audit"
	"github.com/mrlokans/bookkinder/internal/config"
	"github.com/mrlokans/bookkinder/internal/logger"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthController handles authentication-related HTTP endpoints.
type AuthController struct {
	service     *Service
	middleware  *Middleware
	audit       *audit.Service
	rateLimiter *RateLimiter
}

// NewAuthController creates a new authentication controller. auditService
// may be nil.
func NewAuthController(service *Service, auditService *audit.Service, cfg config.Auth) *AuthController {
	return &AuthController{
		service:     service,
		middleware:  NewMiddleware(service),
		audit:       auditService,
		rateLimiter: NewRateLimiter(cfg),
	}
}

// Middleware exposes the bearer middleware shared with other controllers.
func (ac *AuthController) Middleware() *Middleware {
	return ac.middleware
}

// RegisterRoutes mounts the auth endpoints on group.
func (ac *AuthController) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/auth/login", ac.Login)
	group.POST("/auth/logout", ac.middleware.RequireAuth(), ac.Logout)
	group.GET("/user", ac.middleware.RequireAuth(), ac.CurrentUser)
}

// Stop releases the rate limiter's background goroutine.
func (ac *AuthController) Stop() {
	ac.rateLimiter.Stop()
}

// Login exchanges credentials for a bearer token.
// POST /auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	clientIP := c.ClientIP()
	if allowed, retryAfter := ac.rateLimiter.Allow(clientIP, req.Email); !allowed {
		c.Header("Retry-After", strconv.Itoa(RetryAfterSeconds(retryAfter)))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "too many login attempts",
			"retry_after": RetryAfterSeconds(retryAfter),
		})
		return
	}

	result, err := ac.service.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			ac.rateLimiter.RecordFailure(clientIP, req.Email)
			ac.logAuth(c, 0, "login_failed", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		logger.L.Error().Err(err).Msg("Login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	ac.rateLimiter.RecordSuccess(clientIP, req.Email)
	ac.logAuth(c, result.User.ID, "login", nil)

	c.JSON(http.StatusOK, result)
}

// Logout revokes every token of the caller.
// POST /auth/logout
func (ac *AuthController) Logout(c *gin.Context) {
	user := GetUser(c)
	revoked, err := ac.service.Logout(c.Request.Context(), user)
	if err != nil {
		if errors.Is(err, ErrAuthRequired) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		logger.L.Error().Err(err).Msg("Logout failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}

	ac.logAuth(c, user.ID, "logout", nil)
	c.JSON(http.StatusOK, gin.H{
		"message":        "logged out",
		"revoked_tokens": revoked,
	})
}

// CurrentUser returns the caller.
// GET /user
func (ac *AuthController) CurrentUser(c *gin.Context) {
	c.JSON(http.StatusOK, GetUser(c))
}

func (ac *AuthController) logAuth(c *gin.Context, userID uint, action string, err error) {
	if ac.audit == nil {
		return
	}
	ac.audit.LogAuth(userID, action, c.ClientIP(), c.Request.UserAgent(), err)
}
