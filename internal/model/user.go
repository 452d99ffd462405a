package model

import "time"

// User stores identity metadata. Telegram users are upserted by the bot;
// API callers are identified by the token subject and need no row.
type User struct {
	ID         string `gorm:"primaryKey;size:36"`
	TelegramID *int64 `gorm:"uniqueIndex"`
	FirstName  string
	LastName   string
	Username   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TelegramProfile is the sender identity Telegram attaches to every update.
type TelegramProfile struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
}

// DisplayName returns the best available human name.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return u.Username
	default:
		return u.ID
	}
}
