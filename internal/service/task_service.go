package service

import (
	"context"
	"iter"
	"strings"
	"time"

	"github.com/google/uuid"

	"task-tracker/internal/model"
)

// TaskStore persists tasks. Lookups and writes are scoped to the owner.
type TaskStore interface {
	Create(ctx context.Context, task *model.Task) error
	FindByID(ctx context.Context, ownerID, taskID string) (*model.Task, error)
	Update(ctx context.Context, task *model.Task, expectedVersion int) error
	Delete(ctx context.Context, ownerID, taskID string) error
	Query(ctx context.Context, ownerID string, filter model.TaskFilter, sort model.TaskSort, page model.PageRequest, today time.Time) ([]model.Task, int64, error)
	Stats(ctx context.Context, ownerID string, today time.Time) (model.Statistics, error)
	ListSummaries(ctx context.Context, ownerID string, today time.Time) ([]model.ListSummary, error)
}

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title       string     `json:"title" validate:"required,max=255"`
	Description string     `json:"description" validate:"max=2000"`
	ListID      string     `json:"list_id"`
	DueDate     *time.Time `json:"due_date"`
}

// TaskUpdate carries a partial task change. Nil fields are left alone.
// ListID pointing at "" detaches the task from its list; ClearDueDate wins
// over DueDate.
type TaskUpdate struct {
	Title        *string       `json:"title" validate:"omitnil,min=1,max=255"`
	Description  *string       `json:"description" validate:"omitnil,max=2000"`
	Status       *model.Status `json:"status" validate:"omitnil,oneof=pending in_progress completed"`
	DueDate      *time.Time    `json:"due_date"`
	ClearDueDate bool          `json:"clear_due_date"`
	ListID       *string       `json:"list_id"`
	Version      *int          `json:"version" validate:"omitnil,min=1"`
}

// TaskQuery selects, orders and pages an owner's tasks.
type TaskQuery struct {
	Filter model.TaskFilter
	Sort   model.TaskSort
	Page   model.PageRequest
}

// TaskService wraps task-related business logic.
type TaskService struct {
	repo TaskStore
	opts Options
}

func NewTaskService(repo TaskStore, opts Options) *TaskService {
	return &TaskService{repo: repo, opts: opts.withDefaults()}
}

// CreateTask stores a new pending task. A list id that the owner does not
// have yields ErrNotFound.
func (s *TaskService) CreateTask(ctx context.Context, ownerID string, input TaskInput) (*model.Task, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	if err := merge(requireOwner(ownerID), check(input)); err != nil {
		return nil, err
	}

	now := s.opts.now()
	task := model.Task{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       input.Title,
		Description: input.Description,
		Status:      model.StatusPending,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if listID := strings.TrimSpace(input.ListID); listID != "" {
		task.ListID = &listID
	}
	if input.DueDate != nil {
		due := model.DateOnly(*input.DueDate)
		task.DueDate = &due
	}

	ctx, cancel := s.opts.bound(ctx)
	defer cancel()
	if err := s.repo.Create(ctx, &task); err != nil {
		return nil, translate(ctx, err)
	}
	return &task, nil
}

func (s *TaskService) GetTask(ctx context.Context, ownerID, taskID string) (*model.Task, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()
	task, err := s.repo.FindByID(ctx, ownerID, taskID)
	if err != nil {
		return nil, translate(ctx, err)
	}
	return task, nil
}

// UpdateTask applies a partial change. Every status may move to every other
// status; re-parenting checks ownership of the target list.
func (s *TaskService) UpdateTask(ctx context.Context, ownerID, taskID string, update TaskUpdate) (*model.Task, error) {
	update.Title = trimmed(update.Title)
	update.Description = trimmed(update.Description)
	update.ListID = trimmed(update.ListID)
	if err := check(update); err != nil {
		return nil, err
	}

	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	current, err := s.repo.FindByID(ctx, ownerID, taskID)
	if err != nil {
		return nil, translate(ctx, err)
	}
	if err := Authorize(ownerID, current.OwnerID); err != nil {
		return nil, ErrNotFound
	}
	if update.Version != nil && *update.Version != current.Version {
		return nil, ErrConflict
	}

	next := *current
	if update.Title != nil {
		next.Title = *update.Title
	}
	if update.Description != nil {
		next.Description = *update.Description
	}
	if update.Status != nil {
		next.Status = *update.Status
	}
	switch {
	case update.ClearDueDate:
		next.DueDate = nil
	case update.DueDate != nil:
		due := model.DateOnly(*update.DueDate)
		next.DueDate = &due
	}
	if update.ListID != nil {
		if *update.ListID == "" {
			next.ListID = nil
		} else {
			listID := *update.ListID
			next.ListID = &listID
		}
	}
	next.UpdatedAt = stamp(current.UpdatedAt, s.opts.now())

	if err := s.repo.Update(ctx, &next, current.Version); err != nil {
		return nil, translate(ctx, err)
	}
	return &next, nil
}

// SetStatus is a shorthand for an UpdateTask that only moves the status.
func (s *TaskService) SetStatus(ctx context.Context, ownerID, taskID string, status model.Status) (*model.Task, error) {
	return s.UpdateTask(ctx, ownerID, taskID, TaskUpdate{Status: &status})
}

// DeleteTask removes a task completely.
func (s *TaskService) DeleteTask(ctx context.Context, ownerID, taskID string) error {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	current, err := s.repo.FindByID(ctx, ownerID, taskID)
	if err != nil {
		return translate(ctx, err)
	}
	if err := Authorize(ownerID, current.OwnerID); err != nil {
		return ErrNotFound
	}
	if err := s.repo.Delete(ctx, ownerID, taskID); err != nil {
		return translate(ctx, err)
	}
	return nil
}

// QueryTasks returns one page of the owner's tasks matching q. Results are
// always limited to ownerID whatever the filter says.
func (s *TaskService) QueryTasks(ctx context.Context, ownerID string, q TaskQuery) (*model.Page[model.Task], error) {
	page, pageErr := s.opts.pageRequest(q.Page)
	if err := merge(pageErr, checkFilter(q.Filter), checkSort(q.Sort)); err != nil {
		return nil, err
	}
	filter := normalizeFilter(q.Filter)

	ctx, cancel := s.opts.bound(ctx)
	defer cancel()
	tasks, total, err := s.repo.Query(ctx, ownerID, filter, q.Sort, page, model.StartOfDay(s.opts.now()))
	if err != nil {
		return nil, translate(ctx, err)
	}
	return &model.Page[model.Task]{Items: tasks, Number: page.Number, Size: page.Size, Total: total}, nil
}

// AllTasks walks every matching task lazily using the default page size.
func (s *TaskService) AllTasks(ctx context.Context, ownerID string, filter model.TaskFilter, sort model.TaskSort) iter.Seq2[model.Task, error] {
	return paginate(ctx, s.opts.DefaultPageSize, func(ctx context.Context, page model.PageRequest) (*model.Page[model.Task], error) {
		return s.QueryTasks(ctx, ownerID, TaskQuery{Filter: filter, Sort: sort, Page: page})
	})
}

func checkFilter(f model.TaskFilter) error {
	var errs []error
	if f.Status != nil && !f.Status.Valid() {
		errs = append(errs, invalid("status", "must be one of: pending, in_progress, completed"))
	}
	if f.DueBefore != nil && f.DueAfter != nil && model.DateOnly(*f.DueAfter).After(model.DateOnly(*f.DueBefore)) {
		errs = append(errs, invalid("due_after", "must not be after due_before"))
	}
	return merge(errs...)
}

func checkSort(sort model.TaskSort) error {
	switch sort.Field {
	case "", model.SortCreatedAt, model.SortDueDate:
		return nil
	}
	return invalid("sort", "must be one of: created_at, due_date")
}

func normalizeFilter(f model.TaskFilter) model.TaskFilter {
	if f.DueBefore != nil {
		d := model.DateOnly(*f.DueBefore)
		f.DueBefore = &d
	}
	if f.DueAfter != nil {
		d := model.DateOnly(*f.DueAfter)
		f.DueAfter = &d
	}
	return f
}
