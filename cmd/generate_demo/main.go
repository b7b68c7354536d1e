// Command generate_demo creates a demo catalog: the seeded admin, users and
// books plus a shelf of public domain classics. Serve it with READ_ONLY=true.
// Usage: go run ./cmd/generate_demo [-db path/to/demo.db]
package main

import (
	"flag"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/mrlokans/bookkinder/internal/auth"
	"github.com/mrlokans/bookkinder/internal/config"
	"github.com/mrlokans/bookkinder/internal/database"
	"github.com/mrlokans/bookkinder/internal/database/books"
	"github.com/mrlokans/bookkinder/internal/entities"
	"github.com/mrlokans/bookkinder/internal/logger"
	"github.com/mrlokans/bookkinder/internal/seed"
)

const (
	defaultDemoDatabasePath = "./demo/demo.db"
	demoSeed                = 20240601
)

func main() {
	dbPath := flag.String("db", defaultDemoDatabasePath, "path to the demo database file")
	flag.Parse()

	logger.Init("info", "console")
	logger.L.Info().Str("path", *dbPath).Msg("Generating demo database")

	// Start fresh
	if err := os.Remove(*dbPath); err != nil && !os.IsNotExist(err) {
		logger.L.Fatal().Err(err).Msg("Failed to remove existing demo database")
	}
	if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
		logger.L.Fatal().Err(err).Msg("Failed to create demo directory")
	}

	db, err := database.NewDatabase(config.Database{
		Driver:   config.DriverSQLite,
		Path:     *dbPath,
		LogLevel: "silent",
	})
	if err != nil {
		logger.L.Fatal().Err(err).Msg("Failed to create database")
	}
	defer db.Close()

	authService := auth.NewService(db.DB, config.NewConfig().Auth)
	result, err := seed.Run(db.DB, authService, seed.Options{
		Users: seed.DefaultUsers,
		Books: seed.DefaultBooks,
		Rand:  rand.New(rand.NewPCG(demoSeed, demoSeed)),
	})
	if err != nil {
		logger.L.Fatal().Err(err).Msg("Failed to seed demo database")
	}

	repo := books.NewRepository(db.DB)
	for _, book := range publicDomainBooks() {
		if err := repo.Create(&book); err != nil {
			logger.L.Error().Err(err).Str("title", book.Title).Msg("Failed to save book")
			continue
		}
		logger.L.Info().Str("title", book.Title).Str("author", book.Author).Msg("Saved")
		result.Books++
	}

	logger.L.Info().Int("users", result.Users).Int("books", result.Books).Msg("Demo database generated")
}

func isbn(s string) *string { return &s }

func publicDomainBooks() []entities.Book {
	return []entities.Book{
		{
			Title:         "Meditations",
			Author:        "Marcus Aurelius",
			ISBN:          isbn("9780140449334"),
			Description:   "Private notes on Stoic philosophy written by a Roman emperor on campaign.",
			Category:      "Clásicos",
			Pages:         304,
			PublishedYear: 180,
			Rating:        4.8,
			Price:         9.99,
			Stock:         12,
		},
		{
			Title:         "Letters from a Stoic",
			Author:        "Seneca",
			ISBN:          isbn("9780140442106"),
			Description:   "Moral letters to Lucilius on friendship, grief, wealth and time.",
			Category:      "Clásicos",
			Pages:         254,
			PublishedYear: 65,
			Rating:        4.6,
			Price:         11.50,
			Stock:         7,
		},
		{
			Title:         "Pride and Prejudice",
			Author:        "Jane Austen",
			ISBN:          isbn("9780141439518"),
			Description:   "Elizabeth Bennet and Mr Darcy misjudge each other across five volumes of Regency manners.",
			Category:      "Clásicos",
			Pages:         480,
			PublishedYear: 1813,
			Rating:        4.7,
			Price:         8.99,
			Stock:         20,
		},
		{
			Title:         "Frankenstein",
			Author:        "Mary Shelley",
			ISBN:          isbn("9780141439471"),
			Description:   "A young scientist builds a living creature and flees from what he made.",
			Category:      "Ciencia Ficción",
			Pages:         352,
			PublishedYear: 1818,
			Rating:        4.4,
			Price:         7.99,
			Stock:         9,
		},
		{
			Title:         "The Picture of Dorian Gray",
			Author:        "Oscar Wilde",
			ISBN:          isbn("9780141439570"),
			Description:   "A portrait ages while its subject stays young.",
			Category:      "Fantasía",
			Pages:         304,
			PublishedYear: 1890,
			Rating:        4.5,
			Price:         8.49,
			Stock:         5,
		},
		{
			Title:         "Alice's Adventures in Wonderland",
			Author:        "Lewis Carroll",
			ISBN:          isbn("9780141439761"),
			Description:   "Alice follows a white rabbit down a hole into a world of nonsense.",
			Category:      "Infantil",
			Pages:         240,
			PublishedYear: 1865,
			Rating:        4.3,
			Price:         6.99,
			Stock:         15,
		},
	}
}
