package pagination

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Default arguments of IterPages.
const (
	DefaultLeftEdge     = 2
	DefaultLeftCurrent  = 2
	DefaultRightCurrent = 5
	DefaultRightEdge    = 2
)

// Paginator builds per-request Pagination values for a fixed page size.
type Paginator struct {
	perPage int
}

// NewPaginator fails when perPage is not positive; call it once at startup.
func NewPaginator(perPage int) (*Paginator, error) {
	if perPage <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", perPage)
	}
	return &Paginator{perPage: perPage}, nil
}

// PerPage returns the page size.
func (p *Paginator) PerPage() int {
	return p.perPage
}

// Page builds the pagination of a result set of total items. Pages below 1 are clamped to 1.
func (p *Paginator) Page(page int, total int) Pagination {
	if page < 1 {
		page = 1
	}
	if total < 0 {
		total = 0
	}
	return Pagination{Page: page, PerPage: p.perPage, TotalCount: total}
}

// ParsePage reads a page query parameter, defaulting to 1 when it is missing or not a number.
func ParsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// Pagination describes one page of an ordered result set.
type Pagination struct {
	Page       int
	PerPage    int
	TotalCount int
}

// Pages is the number of pages needed for TotalCount items.
func (p Pagination) Pages() int {
	if p.PerPage <= 0 {
		return 0
	}
	return (p.TotalCount + p.PerPage - 1) / p.PerPage
}

// HasPrev reports whether there is a page before this one.
func (p Pagination) HasPrev() bool {
	return p.Page > 1
}

// HasNext reports whether there is a page after this one.
func (p Pagination) HasNext() bool {
	return p.Page < p.Pages()
}

// Offset is the index of the first item of the page, for store-side LIMIT/OFFSET.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// IterPages lists the page numbers to render: the first leftEdge pages, the
// last rightEdge pages, and the pages from leftCurrent before the current page
// to rightCurrent-1 after it. A nil entry marks each gap.
func (p Pagination) IterPages(leftEdge, leftCurrent, rightCurrent, rightEdge int) []*int {
	pages := p.Pages()
	out := []*int{}
	last := 0
	for num := 1; num <= pages; num++ {
		if num <= leftEdge ||
			(num > p.Page-leftCurrent-1 && num < p.Page+rightCurrent) ||
			num > pages-rightEdge {
			if last+1 != num {
				out = append(out, nil)
			}
			n := num
			out = append(out, &n)
			last = num
		}
	}
	return out
}

// DefaultIterPages is IterPages with the default edges.
func (p Pagination) DefaultIterPages() []*int {
	return p.IterPages(DefaultLeftEdge, DefaultLeftCurrent, DefaultRightCurrent, DefaultRightEdge)
}

// Window returns the slice of items on page p; it is empty past the last page.
func Window[T any](items []T, p Pagination) []T {
	start := p.Offset()
	if start < 0 {
		start = 0
	}
	if start >= len(items) {
		return []T{}
	}
	end := start + p.PerPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

type paginationJSON struct {
	Page       int    `json:"page"`
	PerPage    int    `json:"per_page"`
	TotalCount int    `json:"total_count"`
	Pages      int    `json:"pages"`
	HasPrev    bool   `json:"has_prev"`
	HasNext    bool   `json:"has_next"`
	IterPages  []*int `json:"iter_pages"`
}

// MarshalJSON includes the derived fields the page controls are rendered from.
func (p Pagination) MarshalJSON() ([]byte, error) {
	return json.Marshal(paginationJSON{
		Page:       p.Page,
		PerPage:    p.PerPage,
		TotalCount: p.TotalCount,
		Pages:      p.Pages(),
		HasPrev:    p.HasPrev(),
		HasNext:    p.HasNext(),
		IterPages:  p.DefaultIterPages(),
	})
}
