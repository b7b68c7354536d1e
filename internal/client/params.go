package client

import (
	"net/url"
	"strconv"
)

// ListParams maps onto the list endpoints' query string.
type ListParams struct {
	Search    map[string]string
	SortField string
	SortOrder string
	PerPage   int
	Page      int
}

func (p ListParams) values(raw bool) url.Values {
	v := url.Values{}
	for field, term := range p.Search {
		if term != "" {
			v.Set("search["+field+"]", term)
		}
	}
	if p.SortField != "" {
		v.Set("sort[field]", p.SortField)
		if p.SortOrder != "" {
			v.Set("sort[order]", p.SortOrder)
		}
	}
	if !raw {
		if p.PerPage > 0 {
			v.Set("per_page", strconv.Itoa(p.PerPage))
		}
		if p.Page > 0 {
			v.Set("page", strconv.Itoa(p.Page))
		}
	}
	v.Set("raw", strconv.FormatBool(raw))
	return v
}
