package httpapi

import (
	"strings"
	"time"

	"task-tracker/internal/model"
	"task-tracker/internal/service"
)

const dateLayout = "2006-01-02"

// Request bodies name every field a caller may set; anything else in the
// payload is ignored by the JSON decoder.

type createListRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type updateListRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Version     *int    `json:"version"`
}

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ListID      string `json:"list_id"`
	DueDate     string `json:"due_date"`
}

// updateTaskRequest: an empty due_date clears it, an empty list_id detaches the task.
type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	DueDate     *string `json:"due_date"`
	ListID      *string `json:"list_id"`
	Version     *int    `json:"version"`
}

type listResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type taskResponse struct {
	ID          string    `json:"id"`
	ListID      *string   `json:"list_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	DueDate     *string   `json:"due_date"`
	Overdue     bool      `json:"overdue"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type pageResponse[T any] struct {
	Items    []T   `json:"items"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
	HasMore  bool  `json:"has_more"`
}

type statsResponse struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"in_progress"`
	Completed  int64 `json:"completed"`
	Overdue    int64 `json:"overdue"`
}

type listSummaryResponse struct {
	ListID string `json:"list_id"`
	Title  string `json:"title"`
	statsResponse
}

type errorResponse struct {
	Error   string               `json:"error"`
	Message string               `json:"message"`
	Fields  []service.FieldError `json:"fields,omitempty"`
}

type healthResponse struct {
	Status string `json:"status"`
}

func toListResponse(list *model.List) listResponse {
	return listResponse{
		ID:          list.ID,
		Title:       list.Title,
		Description: list.Description,
		Version:     list.Version,
		CreatedAt:   list.CreatedAt,
		UpdatedAt:   list.UpdatedAt,
	}
}

func toTaskResponse(task *model.Task, now time.Time) taskResponse {
	resp := taskResponse{
		ID:          task.ID,
		ListID:      task.ListID,
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		Overdue:     task.IsOverdue(now),
		Version:     task.Version,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
	if task.DueDate != nil {
		due := task.DueDate.Format(dateLayout)
		resp.DueDate = &due
	}
	return resp
}

func toStatsResponse(stats model.Statistics) statsResponse {
	return statsResponse{
		Total:      stats.Total,
		Pending:    stats.Pending,
		InProgress: stats.InProgress,
		Completed:  stats.Completed,
		Overdue:    stats.Overdue,
	}
}

func parseDate(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, fieldError(field, "must be a date in YYYY-MM-DD format")
	}
	return &parsed, nil
}

func fieldError(field, message string) *service.ValidationError {
	return &service.ValidationError{Fields: []service.FieldError{{Field: field, Message: message}}}
}
