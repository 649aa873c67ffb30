package services

import (
	"context"
	"errors"
	"math"

	"capdigital/backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Percentage is round(completed/total*100) clamped to [0,100]. A course with
// no declared lessons is at 0%.
func Percentage(completed int64, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	p := int(math.Round(float64(completed) / float64(total) * 100))
	if p > 100 {
		return 100
	}
	return p
}

func activeCourses(ctx context.Context, db *gorm.DB) ([]models.Course, error) {
	var courses []models.Course
	err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("order_index, id").
		Find(&courses).Error
	return courses, err
}

func findCourse(ctx context.Context, db *gorm.DB, courseID uint) (*models.Course, error) {
	var course models.Course
	if err := db.WithContext(ctx).First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return &course, nil
}

func countCompletedInCourse(ctx context.Context, db *gorm.DB, userID uuid.UUID, courseID uint) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&models.UserProgress{}).
		Joins("JOIN lessons ON lessons.id = user_progress.lesson_id").
		Where("user_progress.user_id = ? AND lessons.course_id = ?", userID, courseID).
		Count(&n).Error
	return n, err
}

// completedByCourse returns course id -> number of the user's progress records
// whose lesson belongs to that course.
func completedByCourse(ctx context.Context, db *gorm.DB, userID uuid.UUID) (map[uint]int64, error) {
	var rows []struct {
		CourseID  uint
		Completed int64
	}
	err := db.WithContext(ctx).Model(&models.UserProgress{}).
		Select("lessons.course_id AS course_id, COUNT(*) AS completed").
		Joins("JOIN lessons ON lessons.id = user_progress.lesson_id").
		Where("user_progress.user_id = ?", userID).
		Group("lessons.course_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uint]int64, len(rows))
	for _, r := range rows {
		out[r.CourseID] = r.Completed
	}
	return out, nil
}

func countUserProgress(ctx context.Context, db *gorm.DB, userID uuid.UUID) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&models.UserProgress{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	return n, err
}
