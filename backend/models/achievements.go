package models

import (
	"time"

	"github.com/google/uuid"
)

type Achievement struct {
	ID          uint      `gorm:"primaryKey" json:"id" yaml:"id"`
	Title       string    `gorm:"not null" json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	Points      int       `gorm:"not null;default:0" json:"points" yaml:"points"`
	Icon        string    `json:"icon" yaml:"icon"`
	Rarity      string    `json:"rarity" yaml:"rarity"` // common, rare, epic, legendary
	IsActive    bool      `json:"is_active" yaml:"is_active"`
	CreatedAt   time.Time `json:"created_at" yaml:"-"`
}

type UserAchievement struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	UserID        uuid.UUID    `gorm:"type:uuid;uniqueIndex:idx_user_achievement;not null" json:"user_id"`
	AchievementID uint         `gorm:"uniqueIndex:idx_user_achievement;not null" json:"achievement_id"`
	EarnedAt      time.Time    `gorm:"not null" json:"earned_at"`
	Achievement   *Achievement `gorm:"foreignKey:AchievementID" json:"achievement,omitempty"`
}

type AchievementStatus struct {
	Achievement
	Earned     bool       `json:"earned"`
	EarnedDate *time.Time `json:"earned_date"`
}
