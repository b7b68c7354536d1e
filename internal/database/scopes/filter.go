// Package scopes provides reusable GORM scopes for catalog queries.
//
// # Usage
//
//	spec := scopes.Spec{
//		Search: map[string]string{"category": "Fantasía"},
//		Sort:   &scopes.Sort{Field: "price", Order: "asc"},
//	}
//	var books []entities.Book
//	err := db.Model(&entities.Book{}).Scopes(scopes.Filter(spec)).Find(&books).Error
//
// Only fields the model lists in SearchableFields are considered. A field
// containing a dot is matched through the named relation with an EXISTS
// sub-query, one relation per path segment. A top-level field ending in
// "_id" is matched exactly; every other field, including the last segment of
// a relation path, uses LIKE %term%.
//
// Models implementing Sortable may only be sorted by the columns they list.
package scopes

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

const (
	pathSeparator    = "."
	foreignKeySuffix = "_id"
)

var (
	ErrNoModel             = errors.New("filter scope requires a model")
	ErrInvalidSortOrder    = errors.New("sort order must be asc or desc")
	ErrInvalidSortField    = errors.New("unknown sort field")
	ErrUnknownField        = errors.New("unknown search field")
	ErrUnknownRelation     = errors.New("unknown relation")
	ErrUnsupportedRelation = errors.New("relation type not supported for search")
)

// Searchable is implemented by models that accept search terms.
type Searchable interface {
	SearchableFields() []string
}

// Sortable is implemented by models that restrict which columns may be sorted
// on. Models without it accept any of their columns.
type Sortable interface {
	SortableFields() []string
}

type Sort struct {
	Field string
	Order string
}

// Spec describes one list request. It is rebuilt for every request.
type Spec struct {
	Search map[string]string
	Sort   *Sort
}

// IsEmpty reports whether s adds nothing to a query.
func (s Spec) IsEmpty() bool {
	for _, term := range s.Search {
		if term != "" {
			return false
		}
	}
	return s.Sort == nil || s.Sort.Field == ""
}

// Filter returns a scope applying spec to the statement's model. Errors are
// attached to the query and surface when it executes.
func Filter(spec Spec) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		stmt := db.Statement
		if stmt.Model == nil {
			_ = db.AddError(ErrNoModel)
			return db
		}
		if err := stmt.Parse(stmt.Model); err != nil {
			_ = db.AddError(fmt.Errorf("failed to parse model: %w", err))
			return db
		}

		if s, ok := stmt.Model.(Searchable); ok && len(spec.Search) > 0 {
			for _, field := range s.SearchableFields() {
				term := spec.Search[field]
				if term == "" {
					continue
				}
				cond, err := searchCondition(db, stmt.Schema, stmt.Table, strings.Split(field, pathSeparator), term, 1)
				if err != nil {
					_ = db.AddError(err)
					return db
				}
				db = db.Where(cond)
			}
		}

		if spec.Sort != nil && spec.Sort.Field != "" {
			column, desc, err := sortColumn(stmt.Model, stmt.Schema, *spec.Sort)
			if err != nil {
				_ = db.AddError(err)
				return db
			}
			db = db.Order(clause.OrderByColumn{
				Column: clause.Column{Table: stmt.Table, Name: column},
				Desc:   desc,
			})
		}

		return db
	}
}

// searchCondition builds the constraint for one search path rooted at table.
// Each call consumes one path segment; the last segment names a column.
func searchCondition(db *gorm.DB, sch *schema.Schema, table string, path []string, term string, depth int) (clause.Expression, error) {
	if len(path) == 1 {
		return columnCondition(sch, table, path[0], term, depth == 1)
	}

	rel, err := lookupRelation(sch, path[0])
	if err != nil {
		return nil, err
	}
	if rel.Type == schema.Many2Many {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnsupportedRelation, sch.Table, rel.Name)
	}

	alias := fmt.Sprintf("r%d", depth)
	sub := db.Session(&gorm.Session{NewDB: true}).
		Table(rel.FieldSchema.Table + " AS " + alias).
		Select("1")

	for _, ref := range rel.References {
		switch {
		case ref.PrimaryKey == nil:
			// polymorphic type column
			sub = sub.Where(clause.Eq{
				Column: clause.Column{Table: alias, Name: ref.ForeignKey.DBName},
				Value:  ref.PrimaryValue,
			})
		case ref.OwnPrimaryKey:
			sub = sub.Where(clause.Eq{
				Column: clause.Column{Table: alias, Name: ref.ForeignKey.DBName},
				Value:  clause.Column{Table: table, Name: ref.PrimaryKey.DBName},
			})
		default:
			sub = sub.Where(clause.Eq{
				Column: clause.Column{Table: alias, Name: ref.PrimaryKey.DBName},
				Value:  clause.Column{Table: table, Name: ref.ForeignKey.DBName},
			})
		}
	}

	nested, err := searchCondition(db, rel.FieldSchema, alias, path[1:], term, depth+1)
	if err != nil {
		return nil, err
	}
	sub = sub.Where(nested)

	return clause.Expr{SQL: "EXISTS (?)", Vars: []interface{}{sub}}, nil
}

func columnCondition(sch *schema.Schema, table, name, term string, topLevel bool) (clause.Expression, error) {
	field := sch.LookUpField(name)
	if field == nil || field.DBName == "" {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, sch.Table, name)
	}
	column := clause.Column{Table: table, Name: field.DBName}

	if topLevel && strings.HasSuffix(name, foreignKeySuffix) {
		return clause.Eq{Column: column, Value: term}, nil
	}
	return clause.Like{Column: column, Value: "%" + term + "%"}, nil
}

// lookupRelation matches a path segment such as "tokens" or "session_tokens"
// against the model's relation names.
func lookupRelation(sch *schema.Schema, segment string) (*schema.Relationship, error) {
	want := normalizeName(segment)
	for name, rel := range sch.Relationships.Relations {
		if normalizeName(name) == want {
			return rel, nil
		}
	}
	return nil, fmt.Errorf("%w: %s.%s", ErrUnknownRelation, sch.Table, segment)
}

func normalizeName(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "_", ""))
}

func sortColumn(model any, sch *schema.Schema, s Sort) (string, bool, error) {
	var desc bool
	switch strings.ToLower(strings.TrimSpace(s.Order)) {
	case "", "asc":
	case "desc":
		desc = true
	default:
		return "", false, fmt.Errorf("%w: %q", ErrInvalidSortOrder, s.Order)
	}

	field := sch.LookUpField(s.Field)
	if field == nil || field.DBName == "" {
		return "", false, fmt.Errorf("%w: %q", ErrInvalidSortField, s.Field)
	}
	if sortable, ok := model.(Sortable); ok && !slices.Contains(sortable.SortableFields(), field.DBName) {
		return "", false, fmt.Errorf("%w: %q", ErrInvalidSortField, s.Field)
	}
	return field.DBName, desc, nil
}
