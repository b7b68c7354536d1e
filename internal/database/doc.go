// Package database provides the data access layer for the catalog.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup (sqlite, mysql, postgres) and migrations
//	├── scopes/          # Filter: search and sort from a Spec as a GORM scope
//	├── repository/      # Repository[T]: list, find, create, update, delete
//	├── books/           # Book repository plus title/category/top-rated queries
//	├── users/           # User repository plus email and name lookups
//	├── tokens/          # Session token storage by SHA-256 hash
//	└── audit/           # Audit event log
//
// # Using Sub-packages
//
// Entity repositories embed the generic one, so every entity gets the same
// list and CRUD behaviour:
//
//	db, err := database.NewDatabase(cfg.Database)
//
//	booksRepo := books.NewRepository(db.DB)
//	result, err := booksRepo.List(scopes.Spec{
//		Search: map[string]string{"title": "dune"},
//		Sort:   &scopes.Sort{Field: "price", Order: "desc"},
//	}, repository.ListOptions{PerPage: 20, Page: 2})
//
//	top, err := booksRepo.TopRated(5)
//
// # Adding a New Entity
//
//  1. Add the model to internal/entities and to Models()
//  2. Create a sub-package with a Repository embedding repository.Repository[T]
//  3. Declare searchable and fillable fields on the entity
//  4. Add entity-specific queries as methods on the sub-package Repository
package database
