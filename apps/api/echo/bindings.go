package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
)

const (
	orderingParam = "ordering"
	pageParam     = "page"
	perPageParam  = "perpage"
	activeParam   = "active"
	currentParam  = "current"
)

// Ordering binds "?ordering=field,-other" ("-" for descending).
type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// Pagination binds "?page=0&perpage=30"; invalid values fall back to the defaults.
type Pagination struct {
	core.Pagination
}

func (p *Pagination) Bind(ctx echo.Context) {
	if page, err := strconv.Atoi(ctx.QueryParam(pageParam)); err == nil {
		p.Page = page
	}
	if perPage, err := strconv.Atoi(ctx.QueryParam(perPageParam)); err == nil {
		p.PerPage = perPage
	}
	p.Pagination = p.Pagination.Normalize()
}

// activeOnly reports whether "?active" asks for active records only.
func activeOnly(ctx echo.Context) bool {
	active, _ := strconv.ParseBool(ctx.QueryParam(activeParam))
	return active
}

// idParam parses the ":id" path parameter.
func idParam(ctx echo.Context) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}
