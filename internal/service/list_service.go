package service

import (
	"context"
	"iter"
	"strings"

	"github.com/google/uuid"

	"task-tracker/internal/model"
)

// ListStore persists lists. Lookups and writes are scoped to the owner.
type ListStore interface {
	Create(ctx context.Context, list *model.List) error
	FindByID(ctx context.Context, ownerID, listID string) (*model.List, error)
	Update(ctx context.Context, list *model.List, expectedVersion int) error
	Delete(ctx context.Context, ownerID, listID string, cascade bool) error
	ListByOwner(ctx context.Context, ownerID string, page model.PageRequest) ([]model.List, int64, error)
}

// DeletePolicy decides what happens to the tasks of a deleted list.
type DeletePolicy string

const (
	// DeleteCascade removes the list and its tasks atomically.
	DeleteCascade DeletePolicy = "cascade"
	// DeleteReject refuses to delete a list that still has tasks.
	DeleteReject DeletePolicy = "reject"
)

// ParseDeletePolicy maps a configured or requested policy name; empty means cascade.
func ParseDeletePolicy(raw string) (DeletePolicy, error) {
	switch DeletePolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", DeleteCascade:
		return DeleteCascade, nil
	case DeleteReject:
		return DeleteReject, nil
	default:
		return "", invalid("policy", "must be one of: cascade, reject")
	}
}

// ListInput carries the caller-supplied fields of a new list.
type ListInput struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"max=2000"`
}

// ListUpdate carries a partial list change. Nil fields are left alone;
// a non-nil Version must match the stored one.
type ListUpdate struct {
	Title       *string `json:"title" validate:"omitnil,min=1,max=255"`
	Description *string `json:"description" validate:"omitnil,max=2000"`
	Version     *int    `json:"version" validate:"omitnil,min=1"`
}

// ListService wraps list-related business logic.
type ListService struct {
	repo ListStore
	opts Options
}

func NewListService(repo ListStore, opts Options) *ListService {
	return &ListService{repo: repo, opts: opts.withDefaults()}
}

func (s *ListService) CreateList(ctx context.Context, ownerID string, input ListInput) (*model.List, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	if err := merge(requireOwner(ownerID), check(input)); err != nil {
		return nil, err
	}

	now := s.opts.now()
	list := model.List{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       input.Title,
		Description: input.Description,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ctx, cancel := s.opts.bound(ctx)
	defer cancel()
	if err := s.repo.Create(ctx, &list); err != nil {
		return nil, translate(ctx, err)
	}
	return &list, nil
}

func (s *ListService) GetList(ctx context.Context, ownerID, listID string) (*model.List, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()
	list, err := s.repo.FindByID(ctx, ownerID, listID)
	if err != nil {
		return nil, translate(ctx, err)
	}
	return list, nil
}

func (s *ListService) UpdateList(ctx context.Context, ownerID, listID string, update ListUpdate) (*model.List, error) {
	update.Title = trimmed(update.Title)
	update.Description = trimmed(update.Description)
	if err := check(update); err != nil {
		return nil, err
	}

	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	current, err := s.repo.FindByID(ctx, ownerID, listID)
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
	next.UpdatedAt = stamp(current.UpdatedAt, s.opts.now())

	if err := s.repo.Update(ctx, &next, current.Version); err != nil {
		return nil, translate(ctx, err)
	}
	return &next, nil
}

// DeleteList removes a list according to policy. A cascade either removes
// the list with all its tasks or changes nothing.
func (s *ListService) DeleteList(ctx context.Context, ownerID, listID string, policy DeletePolicy) error {
	if policy != DeleteCascade && policy != DeleteReject {
		return invalid("policy", "must be one of: cascade, reject")
	}

	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	current, err := s.repo.FindByID(ctx, ownerID, listID)
	if err != nil {
		return translate(ctx, err)
	}
	if err := Authorize(ownerID, current.OwnerID); err != nil {
		return ErrNotFound
	}
	if err := s.repo.Delete(ctx, ownerID, listID, policy == DeleteCascade); err != nil {
		return translate(ctx, err)
	}
	return nil
}

// ListLists returns one page of the owner's lists, newest first.
func (s *ListService) ListLists(ctx context.Context, ownerID string, page model.PageRequest) (*model.Page[model.List], error) {
	page, err := s.opts.pageRequest(page)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.opts.bound(ctx)
	defer cancel()
	lists, total, err := s.repo.ListByOwner(ctx, ownerID, page)
	if err != nil {
		return nil, translate(ctx, err)
	}
	return &model.Page[model.List]{Items: lists, Number: page.Number, Size: page.Size, Total: total}, nil
}

// AllLists walks every list of the owner lazily, pageSize rows per store call.
func (s *ListService) AllLists(ctx context.Context, ownerID string, pageSize int) iter.Seq2[model.List, error] {
	return paginate(ctx, pageSize, func(ctx context.Context, page model.PageRequest) (*model.Page[model.List], error) {
		return s.ListLists(ctx, ownerID, page)
	})
}

func requireOwner(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return invalid("owner_id", "is required")
	}
	return nil
}
