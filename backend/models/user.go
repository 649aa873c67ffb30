package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleLearner = "learner"
	RoleAdmin   = "admin"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"index:idx_users_email_lower,unique,expression:LOWER(email);not null" json:"email"`
	PasswordHash string    `gorm:"column:password;not null" json:"-"`
	Name         string    `gorm:"not null" json:"name"`
	Age          *int      `json:"age,omitempty"`
	Role         string    `gorm:"default:learner" json:"role"` // learner, admin
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleLearner
	}
	return nil
}

// UserStreak tracks consecutive login days, one row per user.
type UserStreak struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	UserID     uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	LastActive time.Time `json:"last_active"`
	StreakDays int       `gorm:"default:0" json:"streak_days"`
	BestStreak int       `gorm:"default:0" json:"best_streak"`
}

type LoginHistory struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	LoginTime time.Time `gorm:"index" json:"login_time"`
}
