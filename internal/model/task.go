package model

import "time"

// Status is the lifecycle state of a task. Any state may move to any other.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

// Valid reports whether s is one of the defined statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// ParseStatus accepts the canonical names plus a few spellings used by humans.
func ParseStatus(raw string) (Status, bool) {
	switch raw {
	case "pending", "todo", "open":
		return StatusPending, true
	case "in_progress", "in-progress", "inprogress", "progress", "doing":
		return StatusInProgress, true
	case "completed", "complete", "done":
		return StatusCompleted, true
	}
	return "", false
}

// Task represents a single unit of work.
type Task struct {
	ID          string     `gorm:"primaryKey;size:36"`
	OwnerID     string     `gorm:"size:36;not null;index:idx_tasks_owner_status,priority:1"`
	ListID      *string    `gorm:"size:36;index"`
	Title       string     `gorm:"size:255;not null"`
	Description string     `gorm:"size:2000"`
	Status      Status     `gorm:"size:20;not null;default:pending;index:idx_tasks_owner_status,priority:2;check:chk_tasks_status,status IN ('pending','in_progress','completed')"`
	DueDate     *time.Time `gorm:"index"`
	Version     int        `gorm:"not null;default:1"`
	CreatedAt   time.Time  `gorm:"autoCreateTime:false"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime:false"`
}

// IsOverdue reports whether the task is still open and its due date lies
// before the calendar day of now.
func (t Task) IsOverdue(now time.Time) bool {
	if t.Status == StatusCompleted || t.DueDate == nil {
		return false
	}
	return t.DueDate.Before(StartOfDay(now))
}

// StartOfDay truncates t to midnight UTC of its UTC calendar date.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateOnly keeps the calendar date of t as written, dropping clock and zone.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
