package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"task-tracker/internal/model"
)

// UserRepository handles CRUD for users.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// UpsertFromTelegram returns the user linked to profile.ID, creating it on
// first contact and refreshing the stored names on every call.
func (r *UserRepository) UpsertFromTelegram(ctx context.Context, profile model.TelegramProfile) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.
			Where(model.User{TelegramID: &profile.ID}).
			Attrs(model.User{ID: uuid.NewString()}).
			Assign(map[string]any{
				"first_name": profile.FirstName,
				"last_name":  profile.LastName,
				"username":   profile.Username,
			}).
			FirstOrCreate(&user).Error
	})
	if err != nil {
		return nil, fmt.Errorf("upsert telegram user %d: %w", profile.ID, err)
	}
	user.FirstName, user.LastName, user.Username = profile.FirstName, profile.LastName, profile.Username
	return &user, nil
}

func (r *UserRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// ListTelegramUsers returns every user reachable through the bot.
func (r *UserRepository) ListTelegramUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Where("telegram_id IS NOT NULL").Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
