// Package readonly turns the API into a read-only catalog, for demos and
// maintenance windows.
package readonly

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextKey holds whether read-only mode is active for the request.
const ContextKey = "read_only"

const message = "the catalog is read-only"

// Middleware rejects writes while enabled. Safe methods always pass, and so
// do paths containing one of the allowed fragments.
type Middleware struct {
	enabled      bool
	allowedPaths []string
}

// NewMiddleware creates the middleware. "/auth/" is always allowed so users
// can still log in and out.
func NewMiddleware(enabled bool, allowedPaths ...string) *Middleware {
	return &Middleware{
		enabled:      enabled,
		allowedPaths: append([]string{"/auth/"}, allowedPaths...),
	}
}

func (m *Middleware) IsEnabled() bool {
	return m.enabled
}

// Handler returns a Gin middleware that blocks write operations.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKey, m.enabled)

		if !m.enabled {
			c.Next()
			return
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		// Paths are matched anywhere so a mounted prefix like /api does not matter.
		if m.isAllowedPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":     message,
			"read_only": true,
		})
	}
}

func (m *Middleware) isAllowedPath(path string) bool {
	for _, allowed := range m.allowedPaths {
		if strings.Contains(path, allowed) {
			return true
		}
	}
	return false
}
