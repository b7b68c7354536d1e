package entities

import "time"

// Catalog categories used by the seeder and the web client's filters.
const (
	CategoryClassics       = "Clásicos"
	CategoryScienceFiction = "Ciencia Ficción"
	CategoryMagicalRealism = "Realismo Mágico"
	CategoryChildren       = "Infantil"
	CategoryFantasy        = "Fantasía"
)

var BookCategories = []string{
	CategoryClassics,
	CategoryScienceFiction,
	CategoryMagicalRealism,
	CategoryChildren,
	CategoryFantasy,
}

type Book struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"index;size:512;not null" json:"title"`
	Author        string    `gorm:"index;size:256" json:"author"`
	ISBN          *string   `gorm:"column:isbn;uniqueIndex;size:20" json:"isbn"` // NULL when unknown so the unique index allows many
	Description   string    `gorm:"type:text" json:"description"`
	CoverImage    string    `gorm:"size:2048" json:"cover_image"`
	Category      string    `gorm:"index;size:100" json:"category"`
	Pages         int       `json:"pages"`
	PublishedYear int       `json:"published_year"`
	Rating        float64   `gorm:"index" json:"rating"`
	Price         float64   `gorm:"type:decimal(10,2)" json:"price"`
	Stock         int       `json:"stock"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Book) TableName() string {
	return "books"
}

func (Book) SearchableFields() []string {
	return []string{"title", "author", "isbn", "category"}
}

func (Book) FillableFields() []string {
	return []string{
		"title", "author", "isbn", "description", "cover_image", "category",
		"pages", "published_year", "rating", "price", "stock",
	}
}
