package model

import (
	"time"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Base contains common fields for persisted models
type Base struct {
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Pagination represents common pagination parameters
type Pagination struct {
	Page     int `json:"page" form:"page"`
	PageSize int `json:"limit" form:"limit"`
}

// Normalize clamps page and page size into their valid ranges
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// SortOrder represents sorting parameters
type SortOrder struct {
	Field string `json:"sortBy" form:"sortBy"`
	Dir   string `json:"sortOrder" form:"sortOrder"`
}

func (s SortOrder) Descending() bool {
	return s.Dir != "asc"
}

// Page is one slice of a filtered, sorted listing
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

// NewPage computes the page count for a listing
func NewPage[T any](items []T, total int, p Pagination) *Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if p.PageSize > 0 {
		pages = (total + p.PageSize - 1) / p.PageSize
	}
	return &Page[T]{
		Items: items,
		Total: total,
		Page:  p.Page,
		Pages: pages,
	}
}
