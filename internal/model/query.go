package model

import "time"

// TaskFilter narrows a task query. Nil fields are not applied; set fields
// are combined with AND.
type TaskFilter struct {
	Status    *Status
	ListID    *string
	DueBefore *time.Time
	DueAfter  *time.Time
	Overdue   *bool
}

// SortField names a sortable task column.
type SortField string

const (
	SortCreatedAt SortField = "created_at"
	SortDueDate   SortField = "due_date"
)

// TaskSort orders a task query. The zero value means newest first.
type TaskSort struct {
	Field SortField
	Asc   bool
}

// PageRequest selects a 1-based page of a result set.
type PageRequest struct {
	Number int
	Size   int
}

// Offset returns the number of rows preceding the page.
func (p PageRequest) Offset() int {
	if p.Number <= 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// Page is one bounded slice of an owner-scoped result set.
type Page[T any] struct {
	Items  []T
	Number int
	Size   int
	Total  int64
}

// HasMore reports whether rows exist past this page.
func (p Page[T]) HasMore() bool {
	offset := PageRequest{Number: p.Number, Size: p.Size}.Offset()
	return p.Total-int64(offset) > int64(p.Size)
}
