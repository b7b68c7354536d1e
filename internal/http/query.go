package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookkinder/internal/database/repository"
	"github.com/mrlokans/bookkinder/internal/database/scopes"
)

// listQuery is the parsed form of
//
//	?search[title]=dune&sort[field]=price&sort[order]=desc&per_page=10&page=2
//
// Without per_page, page or raw=false the listing is unpaginated.
type listQuery struct {
	Spec    scopes.Spec
	Options repository.ListOptions
}

func parseListQuery(c *gin.Context) (listQuery, error) {
	var q listQuery

	if search := c.QueryMap("search"); len(search) > 0 {
		q.Spec.Search = search
	}
	if sort := c.QueryMap("sort"); sort["field"] != "" {
		q.Spec.Sort = &scopes.Sort{Field: sort["field"], Order: sort["order"]}
	}

	paged := false
	for _, name := range []string{"per_page", "page"} {
		raw, ok := c.GetQuery(name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return q, fmt.Errorf("%s must be a positive integer", name)
		}
		if name == "per_page" {
			q.Options.PerPage = n
		} else {
			q.Options.Page = n
		}
		paged = true
	}

	if raw, ok := c.GetQuery("raw"); ok {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return q, fmt.Errorf("raw must be true or false")
		}
		paged = !b
	}

	q.Options.Raw = !paged
	return q, nil
}

// respondList writes a plain array for raw listings and the page envelope
// otherwise.
func respondList[T any](c *gin.Context, result *repository.ListResult[T]) {
	if result.Page != nil {
		c.JSON(http.StatusOK, result.Page)
		return
	}
	c.JSON(http.StatusOK, orEmpty(result.Items))
}

// orEmpty keeps empty results serialized as [] rather than null.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
