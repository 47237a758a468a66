// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package query

import "math"

// Page describes one 1-based window over a result set.
type Page struct {
	PageNumber   int `json:"pageNumber"`
	PageSize     int `json:"pageSize"`
	TotalRecords int `json:"totalRecords"`
	TotalPages   int `json:"totalPages"`
}

// NewPage computes totals for total records split into pages of size.
func NewPage(number, size, total int) Page {
	p := Page{PageNumber: number, PageSize: size, TotalRecords: total}
	if size > 0 {
		p.TotalPages = total / size
		if total%size != 0 {
			p.TotalPages++
		}
	}
	return p
}

// Offset is the index of the first record on the page. It saturates at
// math.MaxInt instead of overflowing.
func (p Page) Offset() int {
	if p.PageNumber < 1 || p.PageSize < 1 {
		return 0
	}
	if p.PageNumber-1 > math.MaxInt/p.PageSize {
		return math.MaxInt
	}
	return (p.PageNumber - 1) * p.PageSize
}

// Bounds returns the [start, end) slice bounds of the page over n records.
// Pages past the end yield an empty range.
func (p Page) Bounds(n int) (start, end int) {
	start = p.Offset()
	if start < 0 || start > n {
		start = n
	}
	switch {
	case p.PageSize <= 0:
		end = start
	case p.PageSize > n-start:
		end = n
	default:
		end = start + p.PageSize
	}
	return start, end
}

// Slice returns the page window of items.
func Slice[T any](items []T, p Page) []T {
	start, end := p.Bounds(len(items))
	return items[start:end]
}
