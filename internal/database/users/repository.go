// Package users provides database operations for user management.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.FindByEmail("admin@bookkinder.com")
package users

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/bookkinder/internal/database/repository"
	"github.com/mrlokans/bookkinder/internal/entities"
)

// Repository handles all user database operations.
type Repository struct {
	*repository.Repository[entities.User]
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Repository: repository.New[entities.User](db),
		db:         db,
	}
}

// FindByEmail returns repository.ErrNotFound when no user has email.
func (r *Repository) FindByEmail(email string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("email = ?", strings.TrimSpace(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: email %s", repository.ErrNotFound, email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return &user, nil
}

// SearchByName returns every user whose name contains term, ignoring case.
func (r *Repository) SearchByName(term string) ([]entities.User, error) {
	var users []entities.User
	pattern := "%" + strings.ToLower(term) + "%"
	err := r.db.Where("LOWER(name) LIKE ?", pattern).Order("id ASC").Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search users by name: %w", err)
	}
	return users, nil
}

// Delete removes the user together with every session token it owns.
func (r *Repository) Delete(user *entities.User) (bool, error) {
	var deleted bool
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&entities.SessionToken{}).Error; err != nil {
			return fmt.Errorf("failed to delete user tokens: %w", err)
		}
		ok, err := r.Repository.WithTx(tx).Delete(user)
		if err != nil {
			return err
		}
		deleted = ok
		return nil
	})
	return deleted, err
}
