package model

import "time"

// List groups tasks of a single owner.
type List struct {
	ID          string    `gorm:"primaryKey;size:36"`
	OwnerID     string    `gorm:"size:36;not null;index:idx_lists_owner_created,priority:1"`
	Title       string    `gorm:"size:255;not null"`
	Description string    `gorm:"size:2000"`
	Version     int       `gorm:"not null;default:1"`
	CreatedAt   time.Time `gorm:"autoCreateTime:false;index:idx_lists_owner_created,priority:2"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false"`
}
