// Package tokens stores hashed session tokens.
//
// # Usage
//
//	repo := tokens.NewRepository(db)
//	tok, err := repo.FindByHash(auth.HashToken(plaintext))
//	revoked, err := repo.DeleteForUser(userID)
package tokens

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/bookkinder/internal/database/repository"
	"github.com/mrlokans/bookkinder/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(token *entities.SessionToken) error {
	if err := r.db.Create(token).Error; err != nil {
		return fmt.Errorf("failed to create session token: %w", err)
	}
	return nil
}

// FindByHash loads the token and its owner.
func (r *Repository) FindByHash(hash string) (*entities.SessionToken, error) {
	var token entities.SessionToken
	err := r.db.Preload("User").Where("token_hash = ?", hash).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session token: %w", err)
	}
	return &token, nil
}

// HashesForUser lists the hashes of every token the user holds.
func (r *Repository) HashesForUser(userID uint) ([]string, error) {
	var hashes []string
	err := r.db.Model(&entities.SessionToken{}).Where("user_id = ?", userID).Pluck("token_hash", &hashes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list session tokens: %w", err)
	}
	return hashes, nil
}

// DeleteForUser revokes every token of the user and returns how many went.
func (r *Repository) DeleteForUser(userID uint) (int64, error) {
	result := r.db.Where("user_id = ?", userID).Delete(&entities.SessionToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to revoke session tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteExpired removes tokens whose expiry is at or before now.
func (r *Repository) DeleteExpired(now time.Time) (int64, error) {
	result := r.db.Where("expires_at IS NOT NULL AND expires_at <= ?", now).Delete(&entities.SessionToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired session tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Touch records that the token was just used and reports whether a row
// matched. Drivers that count only changed rows (MySQL) may report false for a
// live token touched twice within the column's precision.
func (r *Repository) Touch(id uint, at time.Time) (bool, error) {
	result := r.db.Model(&entities.SessionToken{}).Where("id = ?", id).Update("last_used_at", at)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CountForUser returns the number of live token rows the user owns.
func (r *Repository) CountForUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.SessionToken{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
