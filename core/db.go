package core

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type (
	// DBExecutor is satisfied by both *sqlx.DB and *sqlx.Tx.
	DBExecutor interface {
		sqlx.ExtContext
		GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
		SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	}
)

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

const (
	DefaultPerPage = 30
	MaxPerPage     = 500
)

// Pagination is a 0-based page window over a list.
type Pagination struct {
	Page    int
	PerPage int
}

// Normalize clamps the window to sane values.
func (p Pagination) Normalize() Pagination {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.PerPage <= 0 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

func (p Pagination) Offset() int {
	return p.Page * p.PerPage
}

// Bounds returns the [start, end) slice bounds of the window within `total` items.
func (p Pagination) Bounds(total int) (int, int) {
	start := p.Offset()
	if start > total {
		start = total
	}
	end := start + p.PerPage
	if end > total {
		end = total
	}
	return start, end
}
