package books

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookkinder/internal/entities"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "books.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Book{})
	require.NoError(t, err)

	return NewRepository(db)
}

func TestRepository_SearchByTitle(t *testing.T) {
	repo := setupTestDB(t)
	for _, title := range []string{"Foobar", "the foo story", "bar", "FOO fighters"} {
		require.NoError(t, repo.Create(&entities.Book{Title: title}))
	}

	books, err := repo.SearchByTitle("foo")
	require.NoError(t, err)

	var got []string
	for _, b := range books {
		got = append(got, b.Title)
	}
	assert.Equal(t, []string{"Foobar", "the foo story", "FOO fighters"}, got)
}

func TestRepository_SearchByTitleNoMatch(t *testing.T) {
	repo := setupTestDB(t)
	require.NoError(t, repo.Create(&entities.Book{Title: "bar"}))

	books, err := repo.SearchByTitle("foo")
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestRepository_FindByCategory(t *testing.T) {
	repo := setupTestDB(t)
	require.NoError(t, repo.Create(&entities.Book{Title: "A", Category: entities.CategoryFantasy}))
	require.NoError(t, repo.Create(&entities.Book{Title: "B", Category: entities.CategoryChildren}))
	require.NoError(t, repo.Create(&entities.Book{Title: "C", Category: entities.CategoryFantasy}))

	books, err := repo.FindByCategory(entities.CategoryFantasy)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "A", books[0].Title)
	assert.Equal(t, "C", books[1].Title)

	books, err = repo.FindByCategory("Fanta")
	require.NoError(t, err)
	assert.Empty(t, books, "category match is exact")
}

func TestRepository_TopRated(t *testing.T) {
	repo := setupTestDB(t)
	for _, rating := range []float64{5, 3, 4, 1, 2} {
		require.NoError(t, repo.Create(&entities.Book{Title: "Book", Rating: rating}))
	}

	books, err := repo.TopRated(3)
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, 5.0, books[0].Rating)
	assert.Equal(t, 4.0, books[1].Rating)
	assert.Equal(t, 3.0, books[2].Rating)
}

func TestRepository_TopRatedTiesKeepInsertionOrder(t *testing.T) {
	repo := setupTestDB(t)
	for _, title := range []string{"first", "second", "third"} {
		require.NoError(t, repo.Create(&entities.Book{Title: title, Rating: 4.5}))
	}

	books, err := repo.TopRated(2)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "first", books[0].Title)
	assert.Equal(t, "second", books[1].Title)
}

func TestRepository_TopRatedNonPositiveLimit(t *testing.T) {
	repo := setupTestDB(t)
	require.NoError(t, repo.Create(&entities.Book{Title: "x", Rating: 5}))

	books, err := repo.TopRated(0)
	require.NoError(t, err)
	assert.Empty(t, books)
}
