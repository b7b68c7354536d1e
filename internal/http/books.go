package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/mrlokans/bookkinder/internal/audit"
	"github.com/mrlokans/bookkinder/internal/auth"
	"github.com/mrlokans/bookkinder/internal/database/books"
	"github.com/mrlokans/bookkinder/internal/entities"
)

// bookInput is the JSON body of store and update. Absent fields are left
// untouched on update.
type bookInput struct {
	Title         *string  `json:"title"`
	Author        *string  `json:"author"`
	ISBN          *string  `json:"isbn"`
	Description   *string  `json:"description"`
	CoverImage    *string  `json:"cover_image"`
	Category      *string  `json:"category"`
	Pages         *int     `json:"pages" binding:"omitempty,gt=0"`
	PublishedYear *int     `json:"published_year"`
	Rating        *float64 `json:"rating" binding:"omitempty,gte=0,lte=5"`
	Price         *float64 `json:"price" binding:"omitempty,gte=0"`
	Stock         *int     `json:"stock" binding:"omitempty,gte=0"`
}

func (in bookInput) values() map[string]any {
	values := make(map[string]any)
	set := func(column string, present bool, v any) {
		if present {
			values[column] = v
		}
	}
	set("title", in.Title != nil, deref(in.Title))
	set("author", in.Author != nil, deref(in.Author))
	set("isbn", in.ISBN != nil, normalizeISBN(in.ISBN))
	set("description", in.Description != nil, deref(in.Description))
	set("cover_image", in.CoverImage != nil, deref(in.CoverImage))
	set("category", in.Category != nil, deref(in.Category))
	set("pages", in.Pages != nil, deref(in.Pages))
	set("published_year", in.PublishedYear != nil, deref(in.PublishedYear))
	set("rating", in.Rating != nil, deref(in.Rating))
	set("price", in.Price != nil, deref(in.Price))
	set("stock", in.Stock != nil, deref(in.Stock))
	return values
}

func (in bookInput) book() *entities.Book {
	return &entities.Book{
		Title:         deref(in.Title),
		Author:        deref(in.Author),
		ISBN:          normalizeISBN(in.ISBN),
		Description:   deref(in.Description),
		CoverImage:    deref(in.CoverImage),
		Category:      deref(in.Category),
		Pages:         deref(in.Pages),
		PublishedYear: deref(in.PublishedYear),
		Rating:        deref(in.Rating),
		Price:         deref(in.Price),
		Stock:         deref(in.Stock),
	}
}

// normalizeISBN maps a blank ISBN to NULL so it does not collide with other
// books lacking one.
func normalizeISBN(isbn *string) *string {
	if isbn == nil || strings.TrimSpace(*isbn) == "" {
		return nil
	}
	v := strings.TrimSpace(*isbn)
	return &v
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

type BooksController struct {
	books *books.Repository
	audit *audit.Service
}

func NewBooksController(repo *books.Repository, auditService *audit.Service) *BooksController {
	return &BooksController{books: repo, audit: auditService}
}

// RegisterRoutes mounts the book routes. Reads are public; writes and the
// single-book view require a bearer token.
func (bc *BooksController) RegisterRoutes(group *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	group.GET("/books", bc.List)
	group.GET("/books/search/:query", bc.Search)
	group.GET("/books/category/:category", bc.ByCategory)
	group.GET("/books/top-rated/:limit", bc.TopRated)
	group.GET("/books/:id", requireAuth, bc.Show)
	group.POST("/books/store", requireAuth, bc.Store)
	group.PUT("/books/update/:id", requireAuth, bc.Update)
	group.DELETE("/books/delete/:id", requireAuth, bc.Delete)
}

// List returns the catalog filtered by search[...] and sort[...].
// GET /books
func (bc *BooksController) List(c *gin.Context) {
	q, err := parseListQuery(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	result, err := bc.books.List(q.Spec, q.Options)
	if err != nil {
		respondError(c, err, "book")
		return
	}
	respondList(c, result)
}

// GET /books/:id
func (bc *BooksController) Show(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.books.Find(id)
	if err != nil {
		respondError(c, err, "book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// GET /books/search/:query
func (bc *BooksController) Search(c *gin.Context) {
	found, err := bc.books.SearchByTitle(c.Param("query"))
	if err != nil {
		respondError(c, err, "book")
		return
	}
	c.JSON(http.StatusOK, orEmpty(found))
}

// GET /books/category/:category
func (bc *BooksController) ByCategory(c *gin.Context) {
	found, err := bc.books.FindByCategory(c.Param("category"))
	if err != nil {
		respondError(c, err, "book")
		return
	}
	c.JSON(http.StatusOK, orEmpty(found))
}

// GET /books/top-rated/:limit
func (bc *BooksController) TopRated(c *gin.Context) {
	limit, ok := parseIntParam(c, "limit")
	if !ok {
		return
	}

	found, err := bc.books.TopRated(limit)
	if err != nil {
		respondError(c, err, "book")
		return
	}
	c.JSON(http.StatusOK, orEmpty(found))
}

// POST /books/store
func (bc *BooksController) Store(c *gin.Context) {
	var in bookInput
	if err := c.ShouldBindBodyWith(&in, binding.JSON); err != nil {
		respondValidationError(c, err)
		return
	}
	if strings.TrimSpace(deref(in.Title)) == "" {
		respondBadRequest(c, "title is required")
		return
	}

	book := in.book()
	if err := bc.books.Create(book); err != nil {
		respondError(c, err, "book")
		return
	}
	c.JSON(http.StatusCreated, book)
}

// Update writes the given fields by id and returns the updated book.
// PUT /books/update/:id
func (bc *BooksController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var in bookInput
	if err := c.ShouldBindBodyWith(&in, binding.JSON); err != nil {
		respondValidationError(c, err)
		return
	}

	affected, err := bc.books.UpdateByID(id, in.values())
	if err != nil {
		respondError(c, err, "book")
		return
	}
	if affected == 0 {
		respondNotFound(c, "book")
		return
	}

	book, err := bc.books.Find(id)
	if err != nil {
		respondError(c, err, "book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// DELETE /books/delete/:id
func (bc *BooksController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.books.Find(id)
	if err != nil {
		respondError(c, err, "book")
		return
	}
	if _, err := bc.books.Delete(book); err != nil {
		respondError(c, err, "book")
		return
	}

	if bc.audit != nil {
		bc.audit.LogDelete(auth.GetUserID(c), "book", id, book.Title)
	}
	c.Status(http.StatusNoContent)
}
