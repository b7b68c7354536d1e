package http

import (
	"github.com/redis/go-redis/v9"

	"github.com/mrlokans/bookkinder/internal/audit"
	"github.com/mrlokans/bookkinder/internal/auth"
	"github.com/mrlokans/bookkinder/internal/database"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database
	Redis    *redis.Client // optional, only used by the health check

	// Required. AuthController owns the login rate limiter; the caller stops it.
	AuthController *auth.AuthController
	AuthService    *auth.Service
	AuditService   *audit.Service // optional

	// Routes other than /health and /ping live under APIPrefix.
	APIPrefix string
	ReadOnly  bool

	// HSTS max-age in seconds; zero disables the header.
	HSTSMaxAge int

	// Application info
	Version string
}
