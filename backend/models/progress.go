package models

import (
	"time"

	"github.com/google/uuid"
)

// UserProgress is an append-only record that a user finished a lesson.
type UserProgress struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_lesson;not null" json:"user_id"`
	LessonID    uint      `gorm:"uniqueIndex:idx_user_lesson;index;not null" json:"lesson_id"`
	CompletedAt time.Time `gorm:"not null" json:"completed_at"`
	Lesson      *Lesson   `gorm:"foreignKey:LessonID" json:"lesson,omitempty"`
}

func (UserProgress) TableName() string {
	return "user_progress"
}

type MonthlyProgress struct {
	Month            time.Month     `json:"month"`
	Year             int            `json:"year"`
	StreakDays       int            `json:"streak_days"` // current streak, in the month of last activity
	BestStreak       int            `json:"best_streak"`
	LessonsCompleted int64          `json:"lessons_completed"`
	CoursesCompleted int64          `json:"courses_completed"`
	LoginFrequency   map[string]int `json:"login_frequency"` // day -> count
}

type CourseProgressSummary struct {
	CourseID   uint   `json:"course_id"`
	CourseName string `json:"course_name"`
	Progress   int    `json:"progress"`
}

type ProgressOverview struct {
	Progress       int                     `json:"progress"`
	CourseProgress []CourseProgressSummary `json:"course_progress"`
	TotalCourses   int                     `json:"total_courses"`
}

type UserStats struct {
	CompletedLessons  int64        `json:"completed_lessons"`
	TotalAchievements int64        `json:"total_achievements"`
	TotalPoints       int64        `json:"total_points"`
	CourseProgress    map[uint]int `json:"course_progress"`
	StreakDays        int          `json:"streak_days"`
}
