package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"task-tracker/internal/model"
)

// ListRepository manages task lists.
type ListRepository struct {
	db *gorm.DB
}

func NewListRepository(db *gorm.DB) *ListRepository {
	return &ListRepository{db: db}
}

func (r *ListRepository) Create(ctx context.Context, list *model.List) error {
	if err := r.db.WithContext(ctx).Create(list).Error; err != nil {
		return fmt.Errorf("create list: %w", err)
	}
	return nil
}

func (r *ListRepository) FindByID(ctx context.Context, ownerID, listID string) (*model.List, error) {
	var list model.List
	if err := r.db.WithContext(ctx).Where("owner_id = ? AND id = ?", ownerID, listID).First(&list).Error; err != nil {
		return nil, notFound(err)
	}
	return &list, nil
}

// Update writes title, description and timestamp if the stored version still
// equals expectedVersion, then bumps the version.
func (r *ListRepository) Update(ctx context.Context, list *model.List, expectedVersion int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.List{}).
			Where("owner_id = ? AND id = ? AND version = ?", list.OwnerID, list.ID, expectedVersion).
			Updates(map[string]interface{}{
				"title":       list.Title,
				"description": list.Description,
				"updated_at":  list.UpdatedAt,
				"version":     expectedVersion + 1,
			})
		if result.Error != nil {
			return fmt.Errorf("update list: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return missingOrStale(tx, &model.List{}, list.OwnerID, list.ID)
		}
		list.Version = expectedVersion + 1
		return nil
	})
}

// Delete removes a list. With cascade its tasks go in the same transaction;
// without it a list that still has tasks is left untouched.
func (r *ListRepository) Delete(ctx context.Context, ownerID, listID string, cascade bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&model.List{}).Where("owner_id = ? AND id = ?", ownerID, listID).Count(&exists).Error; err != nil {
			return fmt.Errorf("find list: %w", err)
		}
		if exists == 0 {
			return ErrNotFound
		}

		tasks := tx.Where("owner_id = ? AND list_id = ?", ownerID, listID)
		if cascade {
			if err := tasks.Delete(&model.Task{}).Error; err != nil {
				return fmt.Errorf("delete list tasks: %w", err)
			}
		} else {
			var children int64
			if err := tasks.Model(&model.Task{}).Count(&children).Error; err != nil {
				return fmt.Errorf("count list tasks: %w", err)
			}
			if children > 0 {
				return ErrListNotEmpty
			}
		}

		if err := tx.Where("owner_id = ? AND id = ?", ownerID, listID).Delete(&model.List{}).Error; err != nil {
			return fmt.Errorf("delete list: %w", err)
		}
		return nil
	})
}

// ListByOwner returns one page of the owner's lists, newest first, with the total count.
func (r *ListRepository) ListByOwner(ctx context.Context, ownerID string, page model.PageRequest) ([]model.List, int64, error) {
	db := r.db.WithContext(ctx).Model(&model.List{}).Where("owner_id = ?", ownerID).Session(&gorm.Session{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count lists: %w", err)
	}

	var lists []model.List
	if err := db.Order("created_at DESC, id DESC").
		Offset(page.Offset()).Limit(page.Size).
		Find(&lists).Error; err != nil {
		return nil, 0, fmt.Errorf("find lists: %w", err)
	}
	return lists, total, nil
}

// missingOrStale tells a vanished row from one whose version moved on.
func missingOrStale(tx *gorm.DB, dst interface{}, ownerID, id string) error {
	var count int64
	if err := tx.Model(dst).Where("owner_id = ? AND id = ?", ownerID, id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrVersionConflict
}
