package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookkinder/internal/entities"
)

// Context keys for user data
const (
	ContextKeyUser   = "auth_user"
	ContextKeyUserID = "auth_user_id"
	ContextKeyRole   = "auth_role"
)

// Middleware resolves bearer tokens on protected routes.
type Middleware struct {
	service *Service
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service) *Middleware {
	return &Middleware{service: service}
}

// RequireAuth rejects the request with 401 unless it carries a valid bearer
// token. On success the user is stored in the context.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			abortUnauthorized(c, ErrAuthRequired)
			return
		}

		user, err := m.service.ValidateToken(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, ErrInvalidToken) && !errors.Is(err, ErrTokenExpired) {
				_ = c.Error(err)
			}
			abortUnauthorized(c, err)
			return
		}

		setUserContext(c, user)
		c.Next()
	}
}

// RequireRole returns a middleware that requires one of roles. It must run
// after RequireAuth.
func (m *Middleware) RequireRole(roles ...entities.UserRole) gin.HandlerFunc {
	roleSet := make(map[entities.UserRole]bool, len(roles))
	for _, r := range roles {
		roleSet[r] = true
	}

	return func(c *gin.Context) {
		if !roleSet[GetUserRole(c)] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "insufficient permissions",
			})
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, err error) {
	msg := ErrAuthRequired.Error()
	if errors.Is(err, ErrTokenExpired) {
		msg = ErrTokenExpired.Error()
	}
	c.Header("WWW-Authenticate", `Bearer realm="bookkinder"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.
func BearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func setUserContext(c *gin.Context, user *entities.User) {
	c.Set(ContextKeyUser, user)
	c.Set(ContextKeyUserID, user.ID)
	c.Set(ContextKeyRole, user.Role)
}

// GetUser returns the authenticated user, or nil on public routes.
func GetUser(c *gin.Context) *entities.User {
	if v, exists := c.Get(ContextKeyUser); exists {
		if user, ok := v.(*entities.User); ok {
			return user
		}
	}
	return nil
}

// GetUserID returns the authenticated user's ID, or 0.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := id.(uint); ok {
			return userID
		}
	}
	return 0
}

// GetUserRole retrieves the authenticated user's role from the context.
func GetUserRole(c *gin.Context) entities.UserRole {
	if r, exists := c.Get(ContextKeyRole); exists {
		if role, ok := r.(entities.UserRole); ok {
			return role
		}
	}
	return ""
}
