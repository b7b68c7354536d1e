// Package repository provides a generic CRUD, pagination and filtering
// repository over one GORM model.
//
// # Usage
//
//	books := repository.New[entities.Book](db)
//	page, err := books.List(spec, repository.ListOptions{PerPage: 20, Page: 2})
//	book, err := books.Find(42)
//	affected, err := books.UpdateByID(42, map[string]any{"stock": 3})
//
// Models may implement Fillable to restrict which columns Update and
// UpdateByID write. Models without it accept every key.
package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/bookkinder/internal/database/scopes"
)

// DefaultPerPage is the page size used when the caller does not set one.
const DefaultPerPage = 15

var ErrNotFound = errors.New("record not found")

// Fillable restricts mass assignment to the returned column names.
type Fillable interface {
	FillableFields() []string
}

type ListOptions struct {
	Relations []string // extra relations to preload
	PerPage   int
	Page      int
	Raw       bool // return every match instead of a page
}

// Page is one slice of a filtered result set.
type Page[T any] struct {
	Data        []T   `json:"data"`
	Total       int64 `json:"total"`
	PerPage     int   `json:"per_page"`
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
}

// ListResult holds either Items (raw listing) or Page.
type ListResult[T any] struct {
	Items []T
	Page  *Page[T]
}

// Repository is safe for concurrent use; every call starts a new statement.
type Repository[T any] struct {
	db        *gorm.DB
	relations []string
}

// New creates a repository for T. relations are preloaded by List and Find.
func New[T any](db *gorm.DB, relations ...string) *Repository[T] {
	return &Repository[T]{db: db, relations: relations}
}

// WithTx returns a copy of the repository bound to tx.
func (r *Repository[T]) WithTx(tx *gorm.DB) *Repository[T] {
	return &Repository[T]{db: tx, relations: r.relations}
}

// DB exposes the handle for model-specific queries.
func (r *Repository[T]) DB() *gorm.DB {
	return r.db
}

func (r *Repository[T]) model() *gorm.DB {
	return r.db.Model(new(T))
}

func (r *Repository[T]) preload(q *gorm.DB, extra []string) *gorm.DB {
	for _, rel := range r.relations {
		q = q.Preload(rel)
	}
	for _, rel := range extra {
		q = q.Preload(rel)
	}
	return q
}

// List applies spec and returns every match when opts.Raw is set, a page
// otherwise.
func (r *Repository[T]) List(spec scopes.Spec, opts ListOptions) (*ListResult[T], error) {
	base := r.model().Scopes(scopes.Filter(spec)).Session(&gorm.Session{})

	if opts.Raw {
		var items []T
		if err := r.preload(base, opts.Relations).Find(&items).Error; err != nil {
			return nil, fmt.Errorf("failed to list records: %w", err)
		}
		return &ListResult[T]{Items: items}, nil
	}

	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	page := opts.Page
	if page < 1 {
		page = 1
	}

	// Scopes run after Count strips ORDER BY, so the count gets the search
	// alone. PostgreSQL rejects an ORDER BY column inside count(*).
	var total int64
	counter := r.model().Scopes(scopes.Filter(scopes.Spec{Search: spec.Search}))
	if err := counter.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}

	items := make([]T, 0, perPage)
	err := r.preload(base, opts.Relations).
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	lastPage := int((total + int64(perPage) - 1) / int64(perPage))
	if lastPage < 1 {
		lastPage = 1
	}

	return &ListResult[T]{Page: &Page[T]{
		Data:        items,
		Total:       total,
		PerPage:     perPage,
		CurrentPage: page,
		LastPage:    lastPage,
	}}, nil
}

// All returns every row without filtering or limits.
func (r *Repository[T]) All() ([]T, error) {
	var items []T
	if err := r.model().Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	return items, nil
}

func (r *Repository[T]) Find(id uint) (*T, error) {
	entity := new(T)
	err := r.preload(r.db, nil).First(entity, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find record %d: %w", id, err)
	}
	return entity, nil
}

// Create inserts entity and fills in its generated fields.
func (r *Repository[T]) Create(entity *T) error {
	if err := r.db.Create(entity).Error; err != nil {
		return fmt.Errorf("failed to create record: %w", err)
	}
	return nil
}

// Update writes the fillable keys of data to entity's row and reloads it.
func (r *Repository[T]) Update(entity *T, data map[string]any) (*T, error) {
	values := r.Fillable(data)
	if len(values) == 0 {
		return entity, nil
	}
	if err := r.db.Model(entity).Updates(values).Error; err != nil {
		return nil, fmt.Errorf("failed to update record: %w", err)
	}
	if err := r.db.First(entity).Error; err != nil {
		return nil, fmt.Errorf("failed to reload record: %w", err)
	}
	return entity, nil
}

// UpdateByID writes the fillable keys of data without loading the row first.
// It returns the number of matched rows; zero means no row has that id.
func (r *Repository[T]) UpdateByID(id uint, data map[string]any) (int64, error) {
	values := r.Fillable(data)
	if len(values) == 0 {
		return r.countByID(id)
	}

	result := r.model().Where("id = ?", id).Updates(values)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to update record %d: %w", id, result.Error)
	}
	// MySQL reports changed rows, not matched ones.
	if result.RowsAffected == 0 {
		return r.countByID(id)
	}
	return result.RowsAffected, nil
}

func (r *Repository[T]) countByID(id uint) (int64, error) {
	var count int64
	if err := r.model().Where("id = ?", id).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to check record %d: %w", id, err)
	}
	return count, nil
}

// Delete removes entity's row and reports whether anything was deleted.
func (r *Repository[T]) Delete(entity *T) (bool, error) {
	result := r.db.Delete(entity)
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete record: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Fillable drops keys of data that T does not allow to be mass assigned.
func (r *Repository[T]) Fillable(data map[string]any) map[string]any {
	f, ok := any(new(T)).(Fillable)
	if !ok {
		return data
	}
	allowed := f.FillableFields()
	values := make(map[string]any, len(data))
	for _, key := range allowed {
		if v, present := data[key]; present {
			values[key] = v
		}
	}
	return values
}
