package model

// Statistics summarises an owner's tasks. Total always equals
// Pending+InProgress+Completed and Overdue never exceeds Pending+InProgress.
type Statistics struct {
	Total      int64
	Pending    int64
	InProgress int64
	Completed  int64
	Overdue    int64
}

// Open returns the number of tasks that are not completed.
func (s Statistics) Open() int64 {
	return s.Pending + s.InProgress
}

// ListSummary carries per-list task counts.
type ListSummary struct {
	ListID string
	Title  string
	Statistics
}
