// Package testutil provides in-memory databases and fixtures for tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"capdigital/backend/config"
	"capdigital/backend/models"
	"capdigital/backend/seed"
	"capdigital/backend/utils"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Config returns settings suitable for tests: a fixed secret and the cheapest
// bcrypt cost.
func Config() *config.Config {
	return &config.Config{
		JWTSecret:   "testsecret",
		JWTTTL:      time.Hour,
		ServerPort:  "8080",
		CORSOrigins: "*",
		BcryptCost:  bcrypt.MinCost,
		DBLogLevel:  "silent",
	}
}

// OpenInMemoryDB opens a private in-memory SQLite database and migrates the
// schema. It is closed when the test ends.
func OpenInMemoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	gc := utils.GormConfig(nil, nil)
	gc.Logger = gormlogger.Default.LogMode(gormlogger.Silent)
	db, err := gorm.Open(sqlite.Open(dsn), gc)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("test db handle: %v", err)
	}
	// A single connection keeps the memory database alive and serialises writes.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := utils.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// OpenSeededDB is OpenInMemoryDB plus the embedded course catalog.
func OpenSeededDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := OpenInMemoryDB(t)
	cat, err := seed.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if err := seed.Apply(context.Background(), db, cat); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	return db
}

// CreateUser inserts a learner whose password is "password123".
func CreateUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{Email: email, PasswordHash: string(hash), Name: "Test User"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// CompleteLessons inserts progress records directly, bypassing the services.
func CompleteLessons(t *testing.T, db *gorm.DB, userID uuid.UUID, lessonIDs ...uint) {
	t.Helper()
	for _, id := range lessonIDs {
		rec := models.UserProgress{UserID: userID, LessonID: id, CompletedAt: time.Now().UTC()}
		if err := db.Create(&rec).Error; err != nil {
			t.Fatalf("complete lesson %d: %v", id, err)
		}
	}
}

// LessonIDs returns the ids of a course's lessons in order.
func LessonIDs(t *testing.T, db *gorm.DB, courseID uint) []uint {
	t.Helper()
	var ids []uint
	if err := db.Model(&models.Lesson{}).
		Where("course_id = ?", courseID).
		Order("order_index").
		Pluck("id", &ids).Error; err != nil {
		t.Fatalf("lesson ids: %v", err)
	}
	return ids
}

// BearerToken signs a token for the user with cfg's secret.
func BearerToken(t *testing.T, cfg *config.Config, userID uuid.UUID) string {
	t.Helper()
	token, err := utils.GenerateJWTToken(userID, cfg)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + token
}
