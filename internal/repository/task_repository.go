package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"task-tracker/internal/model"
)

const overdueClause = "status <> 'completed' AND due_date IS NOT NULL AND due_date < ?"

// TaskRepository handles CRUD and queries for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a task. A referenced list must belong to the task owner;
// the check and the insert share one transaction.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ownsList(tx, task.OwnerID, task.ListID); err != nil {
			return err
		}
		if err := tx.Create(task).Error; err != nil {
			return fmt.Errorf("create task: %w", err)
		}
		return nil
	})
}

func (r *TaskRepository) FindByID(ctx context.Context, ownerID, taskID string) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("owner_id = ? AND id = ?", ownerID, taskID).First(&task).Error; err != nil {
		return nil, notFound(err)
	}
	return &task, nil
}

// Update writes every mutable field if the stored version still equals
// expectedVersion, then bumps the version.
func (r *TaskRepository) Update(ctx context.Context, task *model.Task, expectedVersion int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ownsList(tx, task.OwnerID, task.ListID); err != nil {
			return err
		}
		result := tx.Model(&model.Task{}).
			Where("owner_id = ? AND id = ? AND version = ?", task.OwnerID, task.ID, expectedVersion).
			Updates(map[string]interface{}{
				"title":       task.Title,
				"description": task.Description,
				"status":      task.Status,
				"due_date":    task.DueDate,
				"list_id":     task.ListID,
				"updated_at":  task.UpdatedAt,
				"version":     expectedVersion + 1,
			})
		if result.Error != nil {
			return fmt.Errorf("update task: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return missingOrStale(tx, &model.Task{}, task.OwnerID, task.ID)
		}
		task.Version = expectedVersion + 1
		return nil
	})
}

// Delete removes a task for the given owner.
func (r *TaskRepository) Delete(ctx context.Context, ownerID, taskID string) error {
	result := r.db.WithContext(ctx).Where("owner_id = ? AND id = ?", ownerID, taskID).Delete(&model.Task{})
	if result.Error != nil {
		return fmt.Errorf("delete task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Query returns one page of the owner's tasks matching filter plus the
// total number of matches. today anchors the overdue predicate.
func (r *TaskRepository) Query(ctx context.Context, ownerID string, filter model.TaskFilter, sort model.TaskSort, page model.PageRequest, today time.Time) ([]model.Task, int64, error) {
	db := applyFilter(r.db.WithContext(ctx).Model(&model.Task{}).Where("owner_id = ?", ownerID), filter, today).
		Session(&gorm.Session{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	var tasks []model.Task
	if err := db.Order(orderClause(sort)).
		Offset(page.Offset()).Limit(page.Size).
		Find(&tasks).Error; err != nil {
		return nil, 0, fmt.Errorf("find tasks: %w", err)
	}
	return tasks, total, nil
}

type statsRow struct {
	Total      int64
	Pending    int64
	InProgress int64
	Completed  int64
	Overdue    int64
}

func (row statsRow) statistics() model.Statistics {
	return model.Statistics{
		Total:      row.Total,
		Pending:    row.Pending,
		InProgress: row.InProgress,
		Completed:  row.Completed,
		Overdue:    row.Overdue,
	}
}

const statsColumns = "COUNT(tasks.id) AS total, " +
	"COALESCE(SUM(CASE WHEN tasks.status = 'pending' THEN 1 ELSE 0 END), 0) AS pending, " +
	"COALESCE(SUM(CASE WHEN tasks.status = 'in_progress' THEN 1 ELSE 0 END), 0) AS in_progress, " +
	"COALESCE(SUM(CASE WHEN tasks.status = 'completed' THEN 1 ELSE 0 END), 0) AS completed, " +
	"COALESCE(SUM(CASE WHEN tasks.status <> 'completed' AND tasks.due_date IS NOT NULL AND tasks.due_date < ? THEN 1 ELSE 0 END), 0) AS overdue"

// Stats counts the owner's tasks per status in a single aggregate.
func (r *TaskRepository) Stats(ctx context.Context, ownerID string, today time.Time) (model.Statistics, error) {
	var row statsRow
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Select(statsColumns, today).
		Where("owner_id = ?", ownerID).
		Scan(&row).Error; err != nil {
		return model.Statistics{}, fmt.Errorf("task stats: %w", err)
	}
	return row.statistics(), nil
}

type listSummaryRow struct {
	ListID     string
	Title      string
	Total      int64
	Pending    int64
	InProgress int64
	Completed  int64
	Overdue    int64
}

// ListSummaries counts tasks per list for the owner, empty lists included,
// newest list first.
func (r *TaskRepository) ListSummaries(ctx context.Context, ownerID string, today time.Time) ([]model.ListSummary, error) {
	var rows []listSummaryRow
	if err := r.db.WithContext(ctx).Table("lists").
		Select("lists.id AS list_id, lists.title AS title, "+statsColumns, today).
		Joins("LEFT JOIN tasks ON tasks.list_id = lists.id AND tasks.owner_id = lists.owner_id").
		Where("lists.owner_id = ?", ownerID).
		Group("lists.id, lists.title, lists.created_at").
		Order("lists.created_at DESC, lists.id DESC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}

	summaries := make([]model.ListSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, model.ListSummary{
			ListID:     row.ListID,
			Title:      row.Title,
			Statistics: statsRow{
				Total:      row.Total,
				Pending:    row.Pending,
				InProgress: row.InProgress,
				Completed:  row.Completed,
				Overdue:    row.Overdue,
			}.statistics(),
		})
	}
	return summaries, nil
}

func applyFilter(db *gorm.DB, filter model.TaskFilter, today time.Time) *gorm.DB {
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.ListID != nil {
		db = db.Where("list_id = ?", *filter.ListID)
	}
	if filter.DueBefore != nil {
		db = db.Where("due_date IS NOT NULL AND due_date < ?", *filter.DueBefore)
	}
	if filter.DueAfter != nil {
		db = db.Where("due_date IS NOT NULL AND due_date > ?", *filter.DueAfter)
	}
	if filter.Overdue != nil {
		if *filter.Overdue {
			db = db.Where(overdueClause, today)
		} else {
			db = db.Where("NOT ("+overdueClause+")", today)
		}
	}
	return db
}

func orderClause(sort model.TaskSort) string {
	dir := "DESC"
	if sort.Asc {
		dir = "ASC"
	}
	if sort.Field == model.SortDueDate {
		return "due_date " + dir + " NULLS LAST, created_at DESC, id DESC"
	}
	return "created_at " + dir + ", id " + dir
}

func ownsList(tx *gorm.DB, ownerID string, listID *string) error {
	if listID == nil {
		return nil
	}
	var count int64
	if err := tx.Model(&model.List{}).Where("owner_id = ? AND id = ?", ownerID, *listID).Count(&count).Error; err != nil {
		return fmt.Errorf("find list: %w", err)
	}
	if count == 0 {
		return ErrListNotFound
	}
	return nil
}
