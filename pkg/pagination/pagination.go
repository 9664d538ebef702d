package pagination

import (
	"math"
	"net/url"
	"strconv"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 200
)

type Params struct {
	Page    int
	PerPage int
}

// FromQuery reads page/perPage, clamping to sane bounds.
func FromQuery(q url.Values) Params {
	p := Params{Page: atoi(q.Get("page")), PerPage: atoi(q.Get("perPage"))}
	p.Validate()
	return p
}

func (p *Params) Validate() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
}

func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

type Result[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	PerPage    int   `json:"perPage"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
}

func NewResult[T any](items []T, p Params, total int64) Result[T] {
	if items == nil {
		items = []T{}
	}
	return Result[T]{
		Items:      items,
		Page:       p.Page,
		PerPage:    p.PerPage,
		TotalItems: total,
		TotalPages: int(math.Ceil(float64(total) / float64(p.PerPage))),
	}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
