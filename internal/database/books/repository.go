// Package books provides catalog queries on top of the generic repository.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	fantasy, err := repo.FindByCategory("Fantasía")
//	best, err := repo.TopRated(3)
package books

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/bookkinder/internal/database/repository"
	"github.com/mrlokans/bookkinder/internal/entities"
)

// Repository handles book database operations.
type Repository struct {
	*repository.Repository[entities.Book]
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Repository: repository.New[entities.Book](db),
		db:         db,
	}
}

// SearchByTitle returns every book whose title contains term, ignoring case.
func (r *Repository) SearchByTitle(term string) ([]entities.Book, error) {
	var books []entities.Book
	pattern := "%" + strings.ToLower(term) + "%"
	err := r.db.Where("LOWER(title) LIKE ?", pattern).Order("id ASC").Find(&books).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search books by title: %w", err)
	}
	return books, nil
}

// FindByCategory returns every book in category.
func (r *Repository) FindByCategory(category string) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Where("category = ?", category).Order("id ASC").Find(&books).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find books by category: %w", err)
	}
	return books, nil
}

// TopRated returns up to limit books by rating, highest first. Equal ratings
// keep insertion order.
func (r *Repository) TopRated(limit int) ([]entities.Book, error) {
	var books []entities.Book
	if limit <= 0 {
		return books, nil
	}
	err := r.db.Order("rating DESC").Order("id ASC").Limit(limit).Find(&books).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load top rated books: %w", err)
	}
	return books, nil
}
