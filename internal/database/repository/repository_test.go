package repository

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookkinder/internal/database/scopes"
	"github.com/mrlokans/bookkinder/internal/entities"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "repository.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.User{}, &entities.SessionToken{}, &entities.Book{})
	require.NoError(t, err)
	return db
}

func createBooks(t *testing.T, repo *Repository[entities.Book], n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		book := &entities.Book{
			Title:    fmt.Sprintf("Book %02d", i),
			Category: entities.BookCategories[i%len(entities.BookCategories)],
			Price:    float64(i),
		}
		require.NoError(t, repo.Create(book))
		require.NotZero(t, book.ID)
	}
}

func TestRepository_ListPaginatesByDefault(t *testing.T) {
	repo := New[entities.Book](setupTestDB(t))
	createBooks(t, repo, 20)

	result, err := repo.List(scopes.Spec{}, ListOptions{})
	require.NoError(t, err)
	require.NotNil(t, result.Page)
	assert.Nil(t, result.Items)

	assert.Len(t, result.Page.Data, DefaultPerPage)
	assert.Equal(t, int64(20), result.Page.Total)
	assert.Equal(t, 1, result.Page.CurrentPage)
	assert.Equal(t, 2, result.Page.LastPage)
}

func TestRepository_ListCustomPage(t *testing.T) {
	repo := New[entities.Book](setupTestDB(t))
	createBooks(t, repo, 20)

	result, err := repo.List(
		scopes.Spec{Sort: &scopes.Sort{Field: "price", Order: "desc"}},
		ListOptions{PerPage: 6, Page: 4},
	)
	require.NoError(t, err)

	require.Len(t, result.Page.Data, 2)
	assert.Equal(t, "Book 02", result.Page.Data[0].Title)
	assert.Equal(t, "Book 01", result.Page.Data[1].Title)
	assert.Equal(t, 4, result.Page.LastPage)
}

func TestRepository_ListRawReturnsEverything(t *testing.T) {
	repo := New[entities.Book](setupTestDB(t))
	createBooks(t, repo, 20)

	result, err := repo.List(scopes.Spec{}, ListOptions{Raw: true, PerPage: 5})
	require.NoError(t, err)
	assert.Nil(t, result.Page)
	assert.Len(t, result.Items, 20)
}

func TestRepository_ListFiltered(t *testing.T) {
	repo := New[entities.Book](setupTestDB(t))
	createBooks(t, repo, 10)

	result, err := repo.List(scopes.Spec{Search: map[string]string{"category": entities.CategoryFantasy}}, ListOptions{Raw: true})
	require.NoError(t, err)
	for _, b := range result.Items {
		assert.Equal(t, entities.CategoryFantasy, b.Category)
	}
	assert.Len(t, result.Items, 2)
}

func TestRepository_ListEmptyHasOnePage(t *testing.T) {
	repo := New[entities.Book](setupTestDB(t))

	result, err := repo.List(scopes.Spec{}, ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, result.Page.Data)
	assert.Equal(t, 1, result.Page.LastPage)
}

func TestRepository_ListCountOmitsOrderBy(t *testing.T) {
	db := setupTestDB(t)
	repo := New[entities.Book](db)
	createBooks(t, repo, 5)

	var queries []string
	err := db.Callback().Query().After("gorm:query").Register("test:record_sql", func(tx *gorm.DB) {
		queries = append(queries, tx.Statement.SQL.String())
	})
	require.NoError(t, err)

	result, err := repo.List(
		scopes.Spec{
			Search: map[string]string{"title": "Book"},
			Sort:   &scopes.Sort{Field: "price", Order: "desc"},
		},
		ListOptions{PerPage: 2},
	)
	require.NoError(t, err)
	assert.Equal(t, int64(5), result.Page.Total)
	assert.Equal(t, "Book 05", result.Page.Data[0].Title)

	var counts int
	for _, q := range queries {
		if strings.Contains(strings.ToLower(q), "count(") {
			counts++
			assert.NotContains(t, q, "ORDER BY", "count query: %s", q)
			assert.Contains(t, q, "LIKE", "count keeps the search: %s", q)
		}
	}
	assert.Equal(t, 1, counts)
}

func TestRepository_ListPropagatesScopeErrors(t *testing.T) {
	repo := New[entities.Book](setupTestDB(t))

	_, err := repo.List(scopes.Spec{Sort: &scopes.Sort{Field: "price", Order: "up"}}, ListOptions{})
	assert.ErrorIs(t, err, scopes.ErrInvalidSortOrder)
}

func TestRepository_ListPreloadsRelations(t *testing.T) {
	db := setupTestDB(t)
	user := &entities.User{Name: "Ada", Email: "ada@example.com"}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Create(&entities.SessionToken{UserID: user.ID, Name: "api-token", TokenHash: "h"}).Error)

	repo := New[entities.SessionToken](db, "User")
	result, err := repo.List(scopes.Spec{}, ListOptions{Raw: true})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	require.NotNil(t, result.Items[0].User)
	assert.Equal(t, "Ada", result.Items[0].User.Name)
}

func TestRepository_All(t *testing.T) {
	repo := New[entities.Book](setupTestDB(t))
	createBooks(t, repo, 17)

	books, err := repo.All()
	require.NoError(t, err)
	assert.Len(t, books, 17)
}

func TestRepository_Find(t *testing.T) {
	repo := New[entities.Book](setupTestDB(t))
	createBooks(t, repo, 1)

	book, err := repo.Find(1)
	require.NoError(t, err)
	assert.Equal(t, "Book 01", book.Title)

	_, err = repo.Find(999)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRepository_UpdateOnlyFillable(t *testing.T) {
	repo := New[entities.Book](setupTestDB(t))
	createBooks(t, repo, 1)

	book, err := repo.Find(1)
	require.NoError(t, err)

	updated, err := repo.Update(book, map[string]any{
		"title": "Rayuela",
		"stock": 7,
		"id":    500,
	})
	require.NoError(t, err)
	assert.Equal(t, uint(1), updated.ID)
	assert.Equal(t, "Rayuela", updated.Title)
	assert.Equal(t, 7, updated.Stock)

	_, err = repo.Find(500)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_UpdateByID(t *testing.T) {
	repo := New[entities.Book](setupTestDB(t))
	createBooks(t, repo, 2)

	t.Run("existing row", func(t *testing.T) {
		affected, err := repo.UpdateByID(2, map[string]any{"price": 42.5})
		require.NoError(t, err)
		assert.Equal(t, int64(1), affected)

		book, err := repo.Find(2)
		require.NoError(t, err)
		assert.Equal(t, 42.5, book.Price)
	})

	t.Run("missing row returns zero without error", func(t *testing.T) {
		affected, err := repo.UpdateByID(404, map[string]any{"price": 1})
		require.NoError(t, err)
		assert.Equal(t, int64(0), affected)
	})

	t.Run("no fillable keys reports existence", func(t *testing.T) {
		affected, err := repo.UpdateByID(1, map[string]any{"created_at": "never"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), affected)

		affected, err = repo.UpdateByID(404, map[string]any{})
		require.NoError(t, err)
		assert.Equal(t, int64(0), affected)
	})
}

func TestRepository_UpdateByIDChangedRowsOnly(t *testing.T) {
	db := setupTestDB(t)
	repo := New[entities.Book](db)
	createBooks(t, repo, 1)

	// MySQL counts changed rows, so rewriting a value reports nothing.
	err := db.Callback().Update().After("gorm:update").Register("test:changed_rows_only", func(tx *gorm.DB) {
		tx.RowsAffected = 0
	})
	require.NoError(t, err)

	affected, err := repo.UpdateByID(1, map[string]any{"price": 1.0})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	affected, err = repo.UpdateByID(404, map[string]any{"price": 1.0})
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
}

func TestRepository_Delete(t *testing.T) {
	repo := New[entities.Book](setupTestDB(t))
	createBooks(t, repo, 1)

	book, err := repo.Find(1)
	require.NoError(t, err)

	deleted, err := repo.Delete(book)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(book)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestRepository_FillableWithoutAllowList(t *testing.T) {
	repo := New[entities.SessionToken](setupTestDB(t))

	data := map[string]any{"name": "cli", "token_hash": "x"}
	assert.Equal(t, data, repo.Fillable(data))
}

func TestRepository_FillableUser(t *testing.T) {
	repo := New[entities.User](setupTestDB(t))

	got := repo.Fillable(map[string]any{"name": "Ada", "password_hash": "x", "role": "admin"})
	assert.Equal(t, map[string]any{"name": "Ada", "role": "admin"}, got)
}
