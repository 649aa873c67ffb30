package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"capdigital/backend/metrics"
	"capdigital/backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProgressService struct {
	DB           *gorm.DB
	Achievements *AchievementService
	Logger       *log.Logger
	Now          func() time.Time
}

func NewProgressService(db *gorm.DB, achievements *AchievementService, logger *log.Logger) *ProgressService {
	return &ProgressService{DB: db, Achievements: achievements, Logger: logger, Now: time.Now}
}

// CompletionResult describes the outcome of marking a lesson complete.
type CompletionResult struct {
	Progress         *models.UserProgress `json:"progress"`
	AlreadyCompleted bool                 `json:"already_completed"`
	CourseID         uint                 `json:"course_id"`
	CourseProgress   int                  `json:"course_progress"`
	NewAchievements  []models.Achievement `json:"new_achievements"`
}

// CourseProgress returns the user's completion percentage for the course,
// computed from the declared lesson count.
func (s *ProgressService) CourseProgress(ctx context.Context, userID uuid.UUID, courseID uint) (int, error) {
	course, err := findCourse(ctx, s.DB, courseID)
	if err != nil {
		return 0, err
	}
	completed, err := countCompletedInCourse(ctx, s.DB, userID, courseID)
	if err != nil {
		return 0, fmt.Errorf("count completed lessons: %w", err)
	}
	return Percentage(completed, course.LessonsCount), nil
}

// CourseProgressList returns every active course in order with the user's
// progress. A course is unlocked when it is first or its predecessor is at 100%.
func (s *ProgressService) CourseProgressList(ctx context.Context, userID uuid.UUID) ([]models.CourseProgress, error) {
	courses, err := activeCourses(ctx, s.DB)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	done, err := completedByCourse(ctx, s.DB, userID)
	if err != nil {
		return nil, fmt.Errorf("progress by course: %w", err)
	}

	out := make([]models.CourseProgress, 0, len(courses))
	for i, c := range courses {
		pct := Percentage(done[c.ID], c.LessonsCount)
		out = append(out, models.CourseProgress{
			Course:           c,
			Percentage:       pct,
			CompletedLessons: done[c.ID],
			TotalLessons:     c.LessonsCount,
			Unlocked:         i == 0 || out[i-1].Percentage == 100,
			Completed:        pct == 100,
		})
	}
	return out, nil
}

func (s *ProgressService) IsCourseCompleted(ctx context.Context, userID uuid.UUID, courseID uint) (bool, error) {
	pct, err := s.CourseProgress(ctx, userID, courseID)
	if err != nil {
		return false, err
	}
	return pct == 100, nil
}

func (s *ProgressService) IsCourseUnlocked(ctx context.Context, userID uuid.UUID, courseID uint) (bool, error) {
	list, err := s.CourseProgressList(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, cp := range list {
		if cp.Course.ID == courseID {
			return cp.Unlocked, nil
		}
	}
	return false, ErrCourseNotFound
}

// NextAvailableCourse returns the first active course below 100%, or nil when
// the user has finished everything.
func (s *ProgressService) NextAvailableCourse(ctx context.Context, userID uuid.UUID) (*models.CourseProgress, error) {
	list, err := s.CourseProgressList(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].Percentage < 100 {
			return &list[i], nil
		}
	}
	return nil, nil
}

// OverallProgress averages course percentages across active courses.
func (s *ProgressService) OverallProgress(ctx context.Context, userID uuid.UUID) (*models.ProgressOverview, error) {
	list, err := s.CourseProgressList(ctx, userID)
	if err != nil {
		return nil, err
	}
	overview := &models.ProgressOverview{
		CourseProgress: make([]models.CourseProgressSummary, 0, len(list)),
		TotalCourses:   len(list),
	}
	total := 0
	for _, cp := range list {
		total += cp.Percentage
		overview.CourseProgress = append(overview.CourseProgress, models.CourseProgressSummary{
			CourseID:   cp.Course.ID,
			CourseName: cp.Course.Title,
			Progress:   cp.Percentage,
		})
	}
	if len(list) > 0 {
		overview.Progress = int(math.Round(float64(total) / float64(len(list))))
	}
	return overview, nil
}

// AvailableLessons lists the course's active lessons with completion and lock
// state. The next lesson is the first one not completed whose predecessor is.
func (s *ProgressService) AvailableLessons(ctx context.Context, userID uuid.UUID, courseID uint) ([]models.LessonStatus, error) {
	if _, err := findCourse(ctx, s.DB, courseID); err != nil {
		return nil, err
	}
	var lessons []models.Lesson
	if err := s.DB.WithContext(ctx).
		Where("course_id = ? AND is_active = ?", courseID, true).
		Order("order_index, id").
		Find(&lessons).Error; err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	if len(lessons) == 0 {
		return []models.LessonStatus{}, nil
	}

	ids := make([]uint, len(lessons))
	for i, l := range lessons {
		ids[i] = l.ID
	}
	var completedIDs []uint
	if err := s.DB.WithContext(ctx).Model(&models.UserProgress{}).
		Where("user_id = ? AND lesson_id IN ?", userID, ids).
		Pluck("lesson_id", &completedIDs).Error; err != nil {
		return nil, fmt.Errorf("load completed lessons: %w", err)
	}
	completed := make(map[uint]bool, len(completedIDs))
	for _, id := range completedIDs {
		completed[id] = true
	}

	out := make([]models.LessonStatus, len(lessons))
	for i, l := range lessons {
		isCompleted := completed[l.ID]
		isNext := !isCompleted && (i == 0 || completed[lessons[i-1].ID])
		out[i] = models.LessonStatus{
			Lesson:      l,
			IsCompleted: isCompleted,
			IsNext:      isNext,
			IsLocked:    !isCompleted && !isNext,
		}
	}
	return out, nil
}

// UserProgress returns the user's progress records with their lessons, oldest first.
func (s *ProgressService) UserProgress(ctx context.Context, userID uuid.UUID) ([]models.UserProgress, error) {
	var out []models.UserProgress
	err := s.DB.WithContext(ctx).
		Preload("Lesson").
		Where("user_id = ?", userID).
		Order("completed_at, id").
		Find(&out).Error
	return out, err
}

// ResolveLessonID maps a lesson's ordinal position within a course to its id.
func (s *ProgressService) ResolveLessonID(ctx context.Context, courseID uint, ordinal int) (*models.Lesson, error) {
	var lesson models.Lesson
	err := s.DB.WithContext(ctx).
		Where("course_id = ? AND order_index = ?", courseID, ordinal).
		First(&lesson).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("course %d lesson %d: %w", courseID, ordinal, ErrLessonNotFound)
		}
		return nil, err
	}
	return &lesson, nil
}

// CompleteLessonByCourse marks the lesson at the given ordinal position of the
// course as completed for the user.
func (s *ProgressService) CompleteLessonByCourse(ctx context.Context, userID uuid.UUID, courseID uint, ordinal int) (*CompletionResult, error) {
	lesson, err := s.ResolveLessonID(ctx, courseID, ordinal)
	if err != nil {
		return nil, err
	}
	return s.complete(ctx, userID, lesson)
}

// CompleteLesson marks a lesson, addressed by id, as completed for the user.
func (s *ProgressService) CompleteLesson(ctx context.Context, userID uuid.UUID, lessonID uint) (*CompletionResult, error) {
	var lesson models.Lesson
	if err := s.DB.WithContext(ctx).First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLessonNotFound
		}
		return nil, err
	}
	return s.complete(ctx, userID, &lesson)
}

func (s *ProgressService) complete(ctx context.Context, userID uuid.UUID, lesson *models.Lesson) (*CompletionResult, error) {
	result := &CompletionResult{CourseID: lesson.CourseID}

	var existing models.UserProgress
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND lesson_id = ?", userID, lesson.ID).
		First(&existing).Error
	switch {
	case err == nil:
		result.Progress = &existing
		result.AlreadyCompleted = true
	case errors.Is(err, gorm.ErrRecordNotFound):
		rec, inserted, err := s.insertProgress(ctx, userID, lesson.ID)
		if err != nil {
			return nil, err
		}
		result.Progress = rec
		result.AlreadyCompleted = !inserted
	default:
		return nil, fmt.Errorf("check progress: %w", err)
	}

	if result.AlreadyCompleted {
		metrics.LessonCompletions.WithLabelValues("duplicate").Inc()
	} else {
		metrics.LessonCompletions.WithLabelValues("new").Inc()
		if s.Achievements != nil {
			granted, err := s.Achievements.Evaluate(ctx, userID)
			if err != nil && s.Logger != nil {
				s.Logger.Printf("evaluate achievements for user %s: %v", userID, err)
			}
			result.NewAchievements = granted
		}
	}

	pct, err := s.CourseProgress(ctx, userID, lesson.CourseID)
	if err != nil && !errors.Is(err, ErrCourseNotFound) {
		return nil, err
	}
	result.CourseProgress = pct
	return result, nil
}

// insertProgress appends a progress record. A unique violation means another
// request got there first; the stored record is returned as not inserted.
func (s *ProgressService) insertProgress(ctx context.Context, userID uuid.UUID, lessonID uint) (*models.UserProgress, bool, error) {
	rec := &models.UserProgress{
		UserID:      userID,
		LessonID:    lessonID,
		CompletedAt: s.Now().UTC(),
	}
	if err := s.DB.WithContext(ctx).Create(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var existing models.UserProgress
			if err := s.DB.WithContext(ctx).
				Where("user_id = ? AND lesson_id = ?", userID, lessonID).
				First(&existing).Error; err != nil {
				return nil, false, fmt.Errorf("load existing progress: %w", err)
			}
			return &existing, false, nil
		}
		return nil, false, fmt.Errorf("insert progress: %w", err)
	}
	return rec, true, nil
}

// UserStats summarises lessons, achievements, points and per-course progress
// for courses the user has started.
func (s *ProgressService) UserStats(ctx context.Context, userID uuid.UUID) (*models.UserStats, error) {
	stats := &models.UserStats{CourseProgress: map[uint]int{}}

	n, err := countUserProgress(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	stats.CompletedLessons = n

	if s.Achievements != nil {
		count, points, err := s.Achievements.TotalPoints(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("sum achievement points: %w", err)
		}
		stats.TotalAchievements = count
		stats.TotalPoints = points
	}

	done, err := completedByCourse(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	if len(done) > 0 {
		ids := make([]uint, 0, len(done))
		for id := range done {
			ids = append(ids, id)
		}
		var courses []models.Course
		if err := s.DB.WithContext(ctx).Where("id IN ?", ids).Find(&courses).Error; err != nil {
			return nil, err
		}
		for _, c := range courses {
			stats.CourseProgress[c.ID] = Percentage(done[c.ID], c.LessonsCount)
		}
	}

	var streak models.UserStreak
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&streak).Error; err == nil {
		stats.StreakDays = streak.StreakDays
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return stats, nil
}

// MonthlyActivity reports the last n calendar months, newest first.
func (s *ProgressService) MonthlyActivity(ctx context.Context, userID uuid.UUID, months int) ([]models.MonthlyProgress, error) {
	if months <= 0 {
		months = 4
	}
	now := s.Now().UTC()
	oldest := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)

	records, err := s.UserProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	list, err := s.CourseProgressList(ctx, userID)
	if err != nil {
		return nil, err
	}
	finished := make(map[uint]bool, len(list))
	for _, cp := range list {
		finished[cp.Course.ID] = cp.Completed
	}
	// A finished course counts in the month of its last lesson completion.
	lastCompletion := map[uint]time.Time{}
	for _, r := range records {
		if r.Lesson == nil || !finished[r.Lesson.CourseID] {
			continue
		}
		if r.CompletedAt.After(lastCompletion[r.Lesson.CourseID]) {
			lastCompletion[r.Lesson.CourseID] = r.CompletedAt
		}
	}

	var logins []models.LoginHistory
	if err := s.DB.WithContext(ctx).
		Where("user_id = ? AND login_time >= ?", userID, oldest).
		Find(&logins).Error; err != nil {
		return nil, err
	}

	var streak models.UserStreak
	hasStreak := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&streak).Error == nil

	out := make([]models.MonthlyProgress, months)
	for i := 0; i < months; i++ {
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -i, 0)
		end := start.AddDate(0, 1, 0)
		within := func(t time.Time) bool {
			t = t.UTC()
			return !t.Before(start) && t.Before(end)
		}

		mp := models.MonthlyProgress{
			Month:          start.Month(),
			Year:           start.Year(),
			LoginFrequency: map[string]int{},
		}
		for _, r := range records {
			if within(r.CompletedAt) {
				mp.LessonsCompleted++
			}
		}
		for _, at := range lastCompletion {
			if within(at) {
				mp.CoursesCompleted++
			}
		}
		for _, l := range logins {
			if within(l.LoginTime) {
				mp.LoginFrequency[l.LoginTime.UTC().Format("2006-01-02")]++
			}
		}
		if hasStreak {
			mp.BestStreak = streak.BestStreak
			if within(streak.LastActive) {
				mp.StreakDays = streak.StreakDays
			}
		}
		out[i] = mp
	}
	return out, nil
}

// CourseAnalytics aggregates progress of every learner who started the course.
func (s *ProgressService) CourseAnalytics(ctx context.Context, courseID uint) (*models.CourseAnalytics, error) {
	course, err := findCourse(ctx, s.DB, courseID)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		UserID    uuid.UUID
		Completed int64
	}
	if err := s.DB.WithContext(ctx).Model(&models.UserProgress{}).
		Select("user_progress.user_id AS user_id, COUNT(*) AS completed").
		Joins("JOIN lessons ON lessons.id = user_progress.lesson_id").
		Where("lessons.course_id = ?", courseID).
		Group("user_progress.user_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	a := &models.CourseAnalytics{CourseID: course.ID, LearnersStarted: int64(len(rows))}
	sum := 0
	for _, r := range rows {
		pct := Percentage(r.Completed, course.LessonsCount)
		sum += pct
		a.LessonsCompleted += r.Completed
		if pct == 100 {
			a.LearnersCompleted++
		}
	}
	if len(rows) > 0 {
		a.AvgCompletionRate = math.Round(float64(sum)/float64(len(rows))*100) / 100
	}
	return a, nil
}
