package services

import (
	"context"
	"errors"
	"strings"

	"capdigital/backend/models"

	"gorm.io/gorm"
)

// CatalogService reads courses and lessons without any per-user state.
type CatalogService struct {
	DB *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{DB: db}
}

func (s *CatalogService) Courses(ctx context.Context) ([]models.Course, error) {
	return activeCourses(ctx, s.DB)
}

func (s *CatalogService) Course(ctx context.Context, courseID uint) (*models.Course, error) {
	return findCourse(ctx, s.DB, courseID)
}

func (s *CatalogService) LessonsByCourse(ctx context.Context, courseID uint) ([]models.Lesson, error) {
	var lessons []models.Lesson
	err := s.DB.WithContext(ctx).
		Where("course_id = ? AND is_active = ?", courseID, true).
		Order("order_index, id").
		Find(&lessons).Error
	return lessons, err
}

func (s *CatalogService) Lesson(ctx context.Context, lessonID uint) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := s.DB.WithContext(ctx).First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLessonNotFound
		}
		return nil, err
	}
	return &lesson, nil
}

// likeEscaper makes LIKE wildcards in user input match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// SearchCourses filters active courses by a case-insensitive text match on
// title or description and by exact difficulty. page starts at 1.
func (s *CatalogService) SearchCourses(ctx context.Context, search, difficulty string, page, pageSize int) ([]models.Course, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := s.DB.WithContext(ctx).Model(&models.Course{}).Where("is_active = ?", true)
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
		query = query.Where(`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`, like, like)
	}
	if difficulty != "" {
		query = query.Where("difficulty = ?", difficulty)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var courses []models.Course
	err := query.Order("order_index, id").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&courses).Error
	return courses, total, err
}
