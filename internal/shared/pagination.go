package shared

import "math"

// DefaultPerPage is used when a listing does not specify its page size.
const DefaultPerPage = 20

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// NewPagination computes pagination metadata from a record total.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if page <= 0 {
		page = 1
	}
	if total < 0 {
		total = 0
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// Clamp bounds page to [1, TotalPages]. An empty listing has a single page.
func (p Pagination) Clamp(page int) int {
	last := p.LastPage()
	if page > last {
		page = last
	}
	if page < 1 {
		page = 1
	}
	return page
}

// LastPage returns the highest addressable page.
func (p Pagination) LastPage() int {
	if p.TotalPages < 1 {
		return 1
	}
	return p.TotalPages
}

// HasPrev reports whether a previous page exists.
func (p Pagination) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a next page exists.
func (p Pagination) HasNext() bool { return p.Page < p.LastPage() }

// Prev returns the previous page number, clamped.
func (p Pagination) Prev() int { return p.Clamp(p.Page - 1) }

// Next returns the next page number, clamped.
func (p Pagination) Next() int { return p.Clamp(p.Page + 1) }

// Window returns up to size consecutive page numbers around the current page.
func (p Pagination) Window(size int) []int {
	if size <= 0 {
		size = 1
	}
	last := p.LastPage()
	start := p.Page - size/2
	if start < 1 {
		start = 1
	}
	end := start + size - 1
	if end > last {
		end = last
		start = end - size + 1
		if start < 1 {
			start = 1
		}
	}
	pages := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return pages
}
