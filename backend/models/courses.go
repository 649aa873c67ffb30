package models

import "time"

type Course struct {
	ID           uint      `gorm:"primaryKey" json:"id" yaml:"id"`
	Title        string    `gorm:"not null" json:"title" yaml:"title"`
	Description  string    `json:"description" yaml:"description"`
	LessonsCount int       `gorm:"not null;default:0" json:"lessons_count" yaml:"lessons_count"`
	Duration     string    `json:"duration" yaml:"duration"`
	Difficulty   string    `json:"difficulty" yaml:"difficulty"` // Básico, Intermedio, Avanzado
	Icon         string    `json:"icon" yaml:"icon"`
	Color        string    `json:"color" yaml:"color"`
	OrderIndex   int       `gorm:"index;not null" json:"order_index" yaml:"order_index"`
	IsActive     bool      `json:"is_active" yaml:"is_active"`
	CreatedAt    time.Time `json:"created_at" yaml:"-"`
	Lessons      []Lesson  `json:"lessons,omitempty" yaml:"lessons"`
}

type Lesson struct {
	ID          uint      `gorm:"primaryKey" json:"id" yaml:"id"`
	CourseID    uint      `gorm:"index:idx_lesson_course_order;not null" json:"course_id" yaml:"-"`
	Title       string    `gorm:"not null" json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	Content     string    `json:"content" yaml:"content"` // markdown
	Duration    string    `json:"duration" yaml:"duration"`
	OrderIndex  int       `gorm:"index:idx_lesson_course_order;not null" json:"order_index" yaml:"order_index"`
	VideoURL    *string   `json:"video_url,omitempty" yaml:"video_url"`
	IsActive    bool      `json:"is_active" yaml:"is_active"`
	CreatedAt   time.Time `json:"created_at" yaml:"-"`
}

// CourseProgress is a derived view; it is never stored.
type CourseProgress struct {
	Course           Course `json:"course"`
	Percentage       int    `json:"progress"`
	CompletedLessons int64  `json:"completed_lessons"`
	TotalLessons     int    `json:"total_lessons"`
	Unlocked         bool   `json:"unlocked"`
	Completed        bool   `json:"completed"`
}

type LessonStatus struct {
	Lesson
	IsCompleted bool `json:"is_completed"`
	IsNext      bool `json:"is_next"`
	IsLocked    bool `json:"is_locked"`
}

type CourseAnalytics struct {
	CourseID          uint    `json:"course_id"`
	LearnersStarted   int64   `json:"learners_started"`
	LearnersCompleted int64   `json:"learners_completed"`
	AvgCompletionRate float64 `json:"avg_completion_rate"`
	LessonsCompleted  int64   `json:"lessons_completed"`
}
