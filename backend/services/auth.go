package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"capdigital/backend/metrics"
	"capdigital/backend/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const DefaultBcryptCost = 12

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

type AuthService struct {
	DB           *gorm.DB
	Achievements *AchievementService
	Cost         int
	Logger       *log.Logger
	Now          func() time.Time
}

func NewAuthService(db *gorm.DB, achievements *AchievementService, cost int, logger *log.Logger) *AuthService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &AuthService{DB: db, Achievements: achievements, Cost: cost, Logger: logger, Now: time.Now}
}

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Name     string `json:"name" validate:"required"`
	Age      *int   `json:"age" validate:"omitempty,min=1,max=120"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// byEmail matches stored addresses case-insensitively; older rows keep the
// casing they were registered with.
func byEmail(db *gorm.DB, email string) *gorm.DB {
	return db.Where("LOWER(email) = ?", normalizeEmail(email))
}

// Register creates a learner account and grants the welcome achievement.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := normalizeEmail(in.Email)
	if len(in.Password) > MaxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	var n int64
	if err := byEmail(s.DB.WithContext(ctx).Model(&models.User{}), email).Count(&n).Error; err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if n > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.Cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(in.Name),
		Age:          in.Age,
		Role:         models.RoleLearner,
	}
	if err := s.DB.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	metrics.Registrations.Inc()

	if s.Achievements != nil {
		if _, err := s.Achievements.Grant(ctx, user.ID, AchievementWelcome); err != nil && s.Logger != nil {
			s.Logger.Printf("grant welcome achievement to %s: %v", user.ID, err)
		}
	}
	return user, nil
}

// Login checks the credentials. A stored password that is not a bcrypt hash
// is compared as plaintext and, on a match, replaced by its hash.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	if err := byEmail(s.DB.WithContext(ctx), email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.Logins.WithLabelValues("rejected").Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	migrated, err := s.verifyPassword(ctx, &user, password)
	if err != nil {
		if errors.Is(err, ErrWrongPassword) {
			metrics.Logins.WithLabelValues("rejected").Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if migrated {
		metrics.Logins.WithLabelValues("migrated").Inc()
	} else {
		metrics.Logins.WithLabelValues("ok").Inc()
	}

	if err := s.recordLogin(ctx, user.ID); err != nil && s.Logger != nil {
		s.Logger.Printf("record login for %s: %v", user.ID, err)
	}
	if s.Achievements != nil {
		if _, err := s.Achievements.Evaluate(ctx, user.ID); err != nil && s.Logger != nil {
			s.Logger.Printf("evaluate achievements for %s: %v", user.ID, err)
		}
	}
	return &user, nil
}

// verifyPassword returns ErrWrongPassword on mismatch and reports whether a
// legacy plaintext password was migrated.
func (s *AuthService) verifyPassword(ctx context.Context, user *models.User, password string) (bool, error) {
	stored := []byte(user.PasswordHash)
	if _, err := bcrypt.Cost(stored); err == nil {
		if err := bcrypt.CompareHashAndPassword(stored, []byte(password)); err != nil {
			return false, ErrWrongPassword
		}
		return false, nil
	}

	if len(stored) == 0 || subtle.ConstantTimeCompare(stored, []byte(password)) != 1 {
		return false, ErrWrongPassword
	}
	// bcrypt cannot hash it; the user keeps the plaintext until a password change.
	if len(password) > MaxPasswordBytes {
		if s.Logger != nil {
			s.Logger.Printf("legacy password for user %s too long to migrate", user.ID)
		}
		return false, nil
	}
	if err := s.setPassword(ctx, user, password); err != nil {
		return false, fmt.Errorf("migrate legacy password: %w", err)
	}
	if s.Logger != nil {
		s.Logger.Printf("migrated legacy password for user %s", user.ID)
	}
	return true, nil
}

func (s *AuthService) setPassword(ctx context.Context, user *models.User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.Cost)
	if err != nil {
		return err
	}
	if err := s.DB.WithContext(ctx).Model(user).Update("password", string(hash)).Error; err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	return nil
}

// recordLogin appends a login history row and advances the daily streak.
// A login on the day after the last active day extends it; a gap resets it.
func (s *AuthService) recordLogin(ctx context.Context, userID uuid.UUID) error {
	now := s.Now().UTC()
	if err := s.DB.WithContext(ctx).Create(&models.LoginHistory{UserID: userID, LoginTime: now}).Error; err != nil {
		return fmt.Errorf("login history: %w", err)
	}

	var streak models.UserStreak
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&streak).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		streak = models.UserStreak{UserID: userID, LastActive: now, StreakDays: 1, BestStreak: 1}
		return s.DB.WithContext(ctx).Create(&streak).Error
	}
	if err != nil {
		return err
	}

	switch days := daysBetween(streak.LastActive, now); {
	case days == 0:
	case days == 1:
		streak.StreakDays++
	default:
		streak.StreakDays = 1
	}
	if streak.StreakDays > streak.BestStreak {
		streak.BestStreak = streak.StreakDays
	}
	streak.LastActive = now
	return s.DB.WithContext(ctx).Save(&streak).Error
}

func daysBetween(from, to time.Time) int {
	a := time.Date(from.UTC().Year(), from.UTC().Month(), from.UTC().Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// ChangePassword replaces the password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	if len(next) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if _, err := s.verifyPassword(ctx, user, current); err != nil {
		return err
	}
	if err := s.setPassword(ctx, user, next); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (s *AuthService) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindUser accepts a user id or an email address.
func (s *AuthService) FindUser(ctx context.Context, ref string) (*models.User, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return s.GetUser(ctx, id)
	}
	var user models.User
	if err := byEmail(s.DB.WithContext(ctx), ref).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
