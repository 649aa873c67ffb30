package services

import (
	"context"
	"fmt"
	"log"

	"capdigital/backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RepairService backs the operator tooling that keeps the catalog and the
// progress log consistent.
type RepairService struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewRepairService(db *gorm.DB, logger *log.Logger) *RepairService {
	return &RepairService{DB: db, Logger: logger}
}

type CourseAudit struct {
	CourseID      uint   `json:"course_id"`
	Title         string `json:"title"`
	DeclaredCount int    `json:"declared_count"`
	ActualCount   int64  `json:"actual_count"`
	InSync        bool   `json:"in_sync"`
}

type CatalogAudit struct {
	Courses       []CourseAudit   `json:"courses"`
	OrphanLessons []models.Lesson `json:"orphan_lessons"`
}

func (a *CatalogAudit) Drifted() int {
	n := 0
	for _, c := range a.Courses {
		if !c.InSync {
			n++
		}
	}
	return n
}

func (s *RepairService) activeLessonCounts(ctx context.Context) (map[uint]int64, error) {
	var rows []struct {
		CourseID uint
		Total    int64
	}
	err := s.DB.WithContext(ctx).Model(&models.Lesson{}).
		Select("course_id, COUNT(*) AS total").
		Where("is_active = ?", true).
		Group("course_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uint]int64, len(rows))
	for _, r := range rows {
		out[r.CourseID] = r.Total
	}
	return out, nil
}

// AuditCatalog compares every course's declared lesson count with its active
// lessons and lists lessons whose course no longer exists.
func (s *RepairService) AuditCatalog(ctx context.Context) (*CatalogAudit, error) {
	var courses []models.Course
	if err := s.DB.WithContext(ctx).Order("order_index, id").Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	counts, err := s.activeLessonCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count lessons: %w", err)
	}

	audit := &CatalogAudit{Courses: make([]CourseAudit, 0, len(courses))}
	for _, c := range courses {
		actual := counts[c.ID]
		audit.Courses = append(audit.Courses, CourseAudit{
			CourseID:      c.ID,
			Title:         c.Title,
			DeclaredCount: c.LessonsCount,
			ActualCount:   actual,
			InSync:        int64(c.LessonsCount) == actual,
		})
	}

	if err := s.DB.WithContext(ctx).
		Where("course_id NOT IN (?)", s.DB.Model(&models.Course{}).Select("id")).
		Order("id").
		Find(&audit.OrphanLessons).Error; err != nil {
		return nil, fmt.Errorf("orphan lessons: %w", err)
	}
	return audit, nil
}

// SyncLessonCounts sets lessons_count to the number of active lessons for
// every course that drifted and returns the courses it changed.
func (s *RepairService) SyncLessonCounts(ctx context.Context) ([]CourseAudit, error) {
	audit, err := s.AuditCatalog(ctx)
	if err != nil {
		return nil, err
	}
	var changed []CourseAudit
	for _, c := range audit.Courses {
		if c.InSync {
			continue
		}
		if err := s.DB.WithContext(ctx).Model(&models.Course{}).
			Where("id = ?", c.CourseID).
			Update("lessons_count", c.ActualCount).Error; err != nil {
			return changed, fmt.Errorf("update course %d: %w", c.CourseID, err)
		}
		if s.Logger != nil {
			s.Logger.Printf("course %d lessons_count %d -> %d", c.CourseID, c.DeclaredCount, c.ActualCount)
		}
		changed = append(changed, c)
	}
	return changed, nil
}

func orphanProgress(db *gorm.DB) *gorm.DB {
	return db.Model(&models.UserProgress{}).
		Where("lesson_id NOT IN (?)", db.Model(&models.Lesson{}).Select("id"))
}

// OrphanedProgress lists progress records whose lesson no longer exists.
func (s *RepairService) OrphanedProgress(ctx context.Context) ([]models.UserProgress, error) {
	var out []models.UserProgress
	err := orphanProgress(s.DB.WithContext(ctx)).Order("id").Find(&out).Error
	return out, err
}

func (s *RepairService) DeleteOrphanedProgress(ctx context.Context) (int64, error) {
	db := s.DB.WithContext(ctx)
	res := db.Where("lesson_id NOT IN (?)", db.Model(&models.Lesson{}).Select("id")).
		Delete(&models.UserProgress{})
	if res.Error != nil {
		return 0, res.Error
	}
	if s.Logger != nil && res.RowsAffected > 0 {
		s.Logger.Printf("deleted %d orphaned progress records", res.RowsAffected)
	}
	return res.RowsAffected, nil
}

type LessonReport struct {
	LessonID   uint   `json:"lesson_id"`
	OrderIndex int    `json:"order_index"`
	Title      string `json:"title"`
	Completed  bool   `json:"completed"`
}

type CourseReport struct {
	CourseID   uint           `json:"course_id"`
	Title      string         `json:"title"`
	Percentage int            `json:"progress"`
	Lessons    []LessonReport `json:"lessons"`
}

// UserReport lists every active course with each lesson's completion flag.
func (s *RepairService) UserReport(ctx context.Context, userID uuid.UUID) ([]CourseReport, error) {
	courses, err := activeCourses(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	var completedIDs []uint
	if err := s.DB.WithContext(ctx).Model(&models.UserProgress{}).
		Where("user_id = ?", userID).
		Pluck("lesson_id", &completedIDs).Error; err != nil {
		return nil, err
	}
	completed := make(map[uint]bool, len(completedIDs))
	for _, id := range completedIDs {
		completed[id] = true
	}
	done, err := completedByCourse(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}

	reports := make([]CourseReport, 0, len(courses))
	for _, c := range courses {
		var lessons []models.Lesson
		if err := s.DB.WithContext(ctx).
			Where("course_id = ?", c.ID).
			Order("order_index, id").
			Find(&lessons).Error; err != nil {
			return nil, err
		}
		r := CourseReport{
			CourseID:   c.ID,
			Title:      c.Title,
			Percentage: Percentage(done[c.ID], c.LessonsCount),
			Lessons:    make([]LessonReport, 0, len(lessons)),
		}
		for _, l := range lessons {
			r.Lessons = append(r.Lessons, LessonReport{
				LessonID:   l.ID,
				OrderIndex: l.OrderIndex,
				Title:      l.Title,
				Completed:  completed[l.ID],
			})
		}
		reports = append(reports, r)
	}
	return reports, nil
}
