// Package auth provides bearer-token authentication for the API.
//
// Users log in with email and password and receive an opaque token. Only
// the SHA-256 hash of a token is stored, in the session_tokens table, and a
// token stays valid until it expires or its owner logs out. Logout revokes
// every token of the user, not only the one presented.
//
// # Configuration
//
//	AUTH_TOKEN_EXPIRY=720h          # 0 disables expiry
//	AUTH_BCRYPT_COST=12
//	AUTH_MAX_LOGIN_ATTEMPTS=5
//	AUTH_RATE_LIMIT_WINDOW=15m
//	AUTH_LOCKOUT_DURATION=30m
//
// When REDIS_ADDR is set, validated tokens are cached in Redis so most
// requests skip the database lookup.
//
// # Usage
//
//	service := auth.NewService(db, cfg.Auth, auth.WithTokenCache(cache))
//	controller := auth.NewAuthController(service, auditService, cfg.Auth)
//	controller.RegisterRoutes(api)
//	api.GET("/books", controller.Middleware().RequireAuth(), handler)
//
// Extract the caller in handlers:
//
//	user := auth.GetUser(c)
//	if user == nil {
//	    // not authenticated
//	}
package auth
