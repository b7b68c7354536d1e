package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/bookkinder/internal/config"
	"github.com/mrlokans/bookkinder/internal/database/repository"
	"github.com/mrlokans/bookkinder/internal/database/tokens"
	"github.com/mrlokans/bookkinder/internal/database/users"
	"github.com/mrlokans/bookkinder/internal/entities"
	"github.com/mrlokans/bookkinder/internal/logger"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrAuthRequired       = errors.New("authentication required")
	ErrInvalidRole        = errors.New("invalid role")
	ErrNameRequired       = errors.New("name is required")
	ErrEmailRequired      = errors.New("email is required")
	ErrEmailInvalid       = errors.New("invalid email format")
)

// LoginResult is returned by a successful Login. Token is the plaintext and
// is never stored.
type LoginResult struct {
	User  *entities.User `json:"user"`
	Token string         `json:"token"`
}

// Service handles authentication and user management.
type Service struct {
	users  *users.Repository
	tokens *tokens.Repository
	cache  TokenCache
	config config.Auth
	now    func() time.Time
}

type Option func(*Service)

// WithTokenCache puts cache in front of token lookups.
func WithTokenCache(cache TokenCache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new authentication service.
func NewService(db *gorm.DB, cfg config.Auth, opts ...Option) *Service {
	s := &Service{
		users:  users.NewRepository(db),
		tokens: tokens.NewRepository(db),
		config: cfg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateUser creates a new user with password authentication.
func (s *Service) CreateUser(name, email, password string, role entities.UserRole) (*entities.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return nil, ErrNameRequired
	}
	if email == "" {
		return nil, ErrEmailRequired
	}
	// RFC 5321 limit is 254
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return nil, ErrEmailInvalid
	}

	switch role {
	case "":
		role = entities.RoleUser
	case entities.RoleAdmin, entities.RoleUser:
	default:
		return nil, ErrInvalidRole
	}

	_, err := s.users.FindByEmail(email)
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entities.User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	}
	if err := s.users.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login verifies credentials and issues a new token. Unknown emails and wrong
// passwords both yield ErrInvalidCredentials. Earlier tokens stay valid.
func (s *Service) Login(email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	plaintext, _, err := s.IssueToken(user, entities.DefaultTokenName)
	if err != nil {
		return nil, err
	}

	return &LoginResult{User: user, Token: plaintext}, nil
}

// IssueToken creates a named token for user and returns its plaintext.
func (s *Service) IssueToken(user *entities.User, name string) (string, *entities.SessionToken, error) {
	plaintext, hash, err := GenerateAPIToken()
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	token := &entities.SessionToken{
		UserID:    user.ID,
		Name:      name,
		TokenHash: hash,
	}
	if s.config.TokenExpiry > 0 {
		expires := s.now().Add(s.config.TokenExpiry)
		token.ExpiresAt = &expires
	}

	if err := s.tokens.Create(token); err != nil {
		return "", nil, err
	}
	return plaintext, token, nil
}

// Logout revokes every token the user holds, on every device.
func (s *Service) Logout(ctx context.Context, user *entities.User) (int64, error) {
	if user == nil || user.ID == 0 {
		return 0, ErrAuthRequired
	}

	var hashes []string
	if s.cache != nil {
		var err error
		if hashes, err = s.tokens.HashesForUser(user.ID); err != nil {
			return 0, err
		}
	}

	revoked, err := s.tokens.DeleteForUser(user.ID)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.Forget(ctx, hashes...); err != nil {
			logger.L.Warn().Err(err).Uint("user_id", user.ID).Msg("Failed to evict revoked tokens from cache")
		}
	}

	return revoked, nil
}

// ValidateToken resolves a plaintext bearer token to its live user.
func (s *Service) ValidateToken(ctx context.Context, plaintext string) (*entities.User, error) {
	if plaintext == "" {
		return nil, ErrInvalidToken
	}
	hash := HashToken(plaintext)

	if user, ok := s.validateCached(ctx, hash); ok {
		return user, nil
	}

	token, err := s.tokens.FindByHash(hash)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if token.IsExpired(s.now()) {
		return nil, ErrTokenExpired
	}
	if token.User == nil {
		return nil, ErrInvalidToken
	}

	s.touch(token.ID)
	if s.cache != nil {
		cached := CachedToken{TokenID: token.ID, UserID: token.UserID, ExpiresAt: token.ExpiresAt}
		if err := s.cache.Put(ctx, hash, cached); err != nil {
			logger.L.Warn().Err(err).Msg("Failed to cache session token")
		}
	}

	return token.User, nil
}

// validateCached answers from the cache when it can. Any cache problem falls
// through to the database.
func (s *Service) validateCached(ctx context.Context, hash string) (*entities.User, bool) {
	if s.cache == nil {
		return nil, false
	}
	cached, err := s.cache.Get(ctx, hash)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			logger.L.Warn().Err(err).Msg("Token cache lookup failed")
		}
		return nil, false
	}
	if cached.ExpiresAt != nil && !s.now().Before(*cached.ExpiresAt) {
		_ = s.cache.Forget(ctx, hash)
		return nil, false
	}

	// A validation racing a logout can cache a token after its row is gone.
	// The row decides; a miss sends the lookup back to the table.
	live, err := s.tokens.Touch(cached.TokenID, s.now())
	if err != nil || !live {
		_ = s.cache.Forget(ctx, hash)
		return nil, false
	}

	user, err := s.users.Find(cached.UserID)
	if err != nil {
		_ = s.cache.Forget(ctx, hash)
		return nil, false
	}
	return user, true
}

func (s *Service) touch(tokenID uint) {
	if _, err := s.tokens.Touch(tokenID, s.now()); err != nil {
		logger.L.Warn().Err(err).Uint("token_id", tokenID).Msg("Failed to record token use")
	}
}

// PruneExpiredTokens deletes token rows past their expiry.
func (s *Service) PruneExpiredTokens() (int64, error) {
	return s.tokens.DeleteExpired(s.now())
}

// GetUserByID retrieves a user by their ID.
func (s *Service) GetUserByID(id uint) (*entities.User, error) {
	user, err := s.users.Find(id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// TokenCount returns how many tokens the user currently holds.
func (s *Service) TokenCount(userID uint) (int64, error) {
	return s.tokens.CountForUser(userID)
}
