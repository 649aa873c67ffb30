package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"capdigital/backend/metrics"
	"capdigital/backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Achievement ids are fixed by the seeded catalog.
const (
	AchievementWelcome          uint = 1
	AchievementFirstLesson      uint = 2
	AchievementDedicatedStudent uint = 4
	AchievementPhoneExpert      uint = 5
	AchievementWebNavigator     uint = 6
	AchievementDigitalMaster    uint = 7
	AchievementWeekStreak       uint = 8
)

const defaultRecentAchievements = 3

// learnerFacts is what the grant rules look at.
type learnerFacts struct {
	CompletedLessons int64
	CourseProgress   map[uint]int // active courses only
	StreakDays       int
}

func (f learnerFacts) courseDone(courseID uint) bool {
	return f.CourseProgress[courseID] == 100
}

func (f learnerFacts) allCoursesDone() bool {
	if len(f.CourseProgress) == 0 {
		return false
	}
	for _, p := range f.CourseProgress {
		if p != 100 {
			return false
		}
	}
	return true
}

type achievementRule struct {
	AchievementID uint
	Applies       func(learnerFacts) bool
}

var achievementRules = []achievementRule{
	{AchievementFirstLesson, func(f learnerFacts) bool { return f.CompletedLessons >= 1 }},
	{AchievementDedicatedStudent, func(f learnerFacts) bool { return f.CompletedLessons >= 5 }},
	{AchievementPhoneExpert, func(f learnerFacts) bool { return f.courseDone(1) }},
	{AchievementWebNavigator, func(f learnerFacts) bool { return f.courseDone(2) }},
	{AchievementDigitalMaster, learnerFacts.allCoursesDone},
	{AchievementWeekStreak, func(f learnerFacts) bool { return f.StreakDays >= 7 }},
}

type AchievementService struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewAchievementService(db *gorm.DB, logger *log.Logger) *AchievementService {
	return &AchievementService{DB: db, Logger: logger}
}

// Grant gives the achievement to the user once. It reports whether this call
// created the grant; holding it already is not an error.
func (s *AchievementService) Grant(ctx context.Context, userID uuid.UUID, achievementID uint) (bool, error) {
	var existing models.UserAchievement
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND achievement_id = ?", userID, achievementID).
		First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("check achievement %d: %w", achievementID, err)
	}

	grant := models.UserAchievement{
		UserID:        userID,
		AchievementID: achievementID,
		EarnedAt:      time.Now().UTC(),
	}
	if err := s.DB.WithContext(ctx).Create(&grant).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, fmt.Errorf("grant achievement %d: %w", achievementID, err)
	}
	metrics.AchievementsGranted.WithLabelValues(strconv.FormatUint(uint64(achievementID), 10)).Inc()
	if s.Logger != nil {
		s.Logger.Printf("achievement %d granted to user %s", achievementID, userID)
	}
	return true, nil
}

// Evaluate runs every rule against the user's current progress and grants
// whatever is now due. It returns the achievements granted by this call.
func (s *AchievementService) Evaluate(ctx context.Context, userID uuid.UUID) ([]models.Achievement, error) {
	facts, err := s.facts(ctx, userID)
	if err != nil {
		return nil, err
	}

	var granted []uint
	for _, rule := range achievementRules {
		if !rule.Applies(facts) {
			continue
		}
		isNew, err := s.Grant(ctx, userID, rule.AchievementID)
		if err != nil {
			return nil, err
		}
		if isNew {
			granted = append(granted, rule.AchievementID)
		}
	}
	if len(granted) == 0 {
		return nil, nil
	}

	var out []models.Achievement
	if err := s.DB.WithContext(ctx).Where("id IN ?", granted).Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *AchievementService) facts(ctx context.Context, userID uuid.UUID) (learnerFacts, error) {
	var f learnerFacts

	total, err := countUserProgress(ctx, s.DB, userID)
	if err != nil {
		return f, fmt.Errorf("count progress: %w", err)
	}
	f.CompletedLessons = total

	courses, err := activeCourses(ctx, s.DB)
	if err != nil {
		return f, fmt.Errorf("list courses: %w", err)
	}
	done, err := completedByCourse(ctx, s.DB, userID)
	if err != nil {
		return f, fmt.Errorf("progress by course: %w", err)
	}
	f.CourseProgress = make(map[uint]int, len(courses))
	for _, c := range courses {
		f.CourseProgress[c.ID] = Percentage(done[c.ID], c.LessonsCount)
	}

	var streak models.UserStreak
	err = s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&streak).Error
	switch {
	case err == nil:
		f.StreakDays = streak.StreakDays
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return f, fmt.Errorf("load streak: %w", err)
	}
	return f, nil
}

// UserAchievements returns the user's grants with their achievement, newest first.
func (s *AchievementService) UserAchievements(ctx context.Context, userID uuid.UUID) ([]models.UserAchievement, error) {
	var out []models.UserAchievement
	err := s.DB.WithContext(ctx).
		Preload("Achievement").
		Where("user_id = ?", userID).
		Order("earned_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (s *AchievementService) RecentAchievements(ctx context.Context, userID uuid.UUID, limit int) ([]models.UserAchievement, error) {
	if limit <= 0 {
		limit = defaultRecentAchievements
	}
	var out []models.UserAchievement
	err := s.DB.WithContext(ctx).
		Preload("Achievement").
		Where("user_id = ?", userID).
		Order("earned_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// AllWithStatus lists every active achievement and whether the user holds it.
func (s *AchievementService) AllWithStatus(ctx context.Context, userID uuid.UUID) ([]models.AchievementStatus, error) {
	var all []models.Achievement
	if err := s.DB.WithContext(ctx).Where("is_active = ?", true).Order("id").Find(&all).Error; err != nil {
		return nil, err
	}

	var held []models.UserAchievement
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Find(&held).Error; err != nil {
		return nil, err
	}
	earned := make(map[uint]time.Time, len(held))
	for _, h := range held {
		earned[h.AchievementID] = h.EarnedAt
	}

	out := make([]models.AchievementStatus, 0, len(all))
	for _, a := range all {
		st := models.AchievementStatus{Achievement: a}
		if at, ok := earned[a.ID]; ok {
			st.Earned = true
			st.EarnedDate = &at
		}
		out = append(out, st)
	}
	return out, nil
}

// TotalPoints sums the points of every achievement the user holds.
func (s *AchievementService) TotalPoints(ctx context.Context, userID uuid.UUID) (count int64, points int64, err error) {
	var row struct {
		Count  int64
		Points int64
	}
	err = s.DB.WithContext(ctx).Model(&models.UserAchievement{}).
		Select("COUNT(*) AS count, COALESCE(SUM(achievements.points), 0) AS points").
		Joins("LEFT JOIN achievements ON achievements.id = user_achievements.achievement_id").
		Where("user_achievements.user_id = ?", userID).
		Scan(&row).Error
	return row.Count, row.Points, err
}
