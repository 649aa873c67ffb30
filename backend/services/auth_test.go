package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"capdigital/backend/models"
	"capdigital/backend/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	db := testutil.OpenSeededDB(t)
	return NewAuthService(db, NewAchievementService(db, nil), bcrypt.MinCost, nil)
}

func reloadUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	var u models.User
	require.NoError(t, db.Where("email = ?", email).First(&u).Error)
	return u
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t)
	age := 67

	user, err := svc.Register(ctx, RegisterInput{
		Email:    "  Maria@Example.com ",
		Password: "secreto1",
		Name:     "María",
		Age:      &age,
	})
	require.NoError(t, err)
	assert.Equal(t, "maria@example.com", user.Email)
	assert.Equal(t, models.RoleLearner, user.Role)
	assert.NotEqual(t, "secreto1", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secreto1")))

	var grants []models.UserAchievement
	require.NoError(t, svc.DB.Where("user_id = ?", user.ID).Find(&grants).Error)
	require.Len(t, grants, 1)
	assert.Equal(t, AchievementWelcome, grants[0].AchievementID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t)

	_, err := svc.Register(ctx, RegisterInput{Email: "maria@example.com", Password: "secreto1", Name: "María"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Email: "MARIA@example.com", Password: "otro123", Name: "Otra"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t)
	_, err := svc.Register(ctx, RegisterInput{Email: "maria@example.com", Password: "secreto1", Name: "María"})
	require.NoError(t, err)

	user, err := svc.Login(ctx, "Maria@example.com", "secreto1")
	require.NoError(t, err)
	assert.Equal(t, "maria@example.com", user.Email)

	_, err = svc.Login(ctx, "maria@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "secreto1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	var logins int64
	require.NoError(t, svc.DB.Model(&models.LoginHistory{}).Where("user_id = ?", user.ID).Count(&logins).Error)
	assert.Equal(t, int64(1), logins)
}

func TestLoginMigratesLegacyPassword(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t)
	require.NoError(t, svc.DB.Create(&models.User{
		Email:        "legacy@example.com",
		PasswordHash: "plain-pass",
		Name:         "Legacy",
	}).Error)

	_, err := svc.Login(ctx, "legacy@example.com", "not-it")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, "plain-pass", reloadUser(t, svc.DB, "legacy@example.com").PasswordHash)

	_, err = svc.Login(ctx, "legacy@example.com", "plain-pass")
	require.NoError(t, err)

	stored := reloadUser(t, svc.DB, "legacy@example.com").PasswordHash
	_, err = bcrypt.Cost([]byte(stored))
	require.NoError(t, err, "password should be a bcrypt hash after migration")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored), []byte("plain-pass")))

	// The plaintext no longer matches as-is, only through the hash.
	_, err = svc.Login(ctx, "legacy@example.com", "plain-pass")
	assert.NoError(t, err)
	_, err = svc.Login(ctx, "legacy@example.com", stored)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestMixedCaseLegacyEmail(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t)
	require.NoError(t, svc.DB.Create(&models.User{
		Email:        "Ana.Lopez@Example.com",
		PasswordHash: "plain-pass",
		Name:         "Ana",
	}).Error)

	user, err := svc.Login(ctx, "Ana.Lopez@Example.com", "plain-pass")
	require.NoError(t, err)
	assert.Equal(t, "Ana.Lopez@Example.com", user.Email)
	_, err = bcrypt.Cost([]byte(user.PasswordHash))
	assert.NoError(t, err)

	_, err = svc.Login(ctx, "ana.lopez@example.com", "plain-pass")
	assert.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Email: "ana.lopez@example.com", Password: "secreto1", Name: "Ana"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	found, err := svc.FindUser(ctx, "ANA.LOPEZ@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	var n int64
	require.NoError(t, svc.DB.Model(&models.User{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestEmailUniqueIgnoresCase(t *testing.T) {
	db := testutil.OpenInMemoryDB(t)
	require.NoError(t, db.Create(&models.User{Email: "ana@example.com", PasswordHash: "x", Name: "Ana"}).Error)

	err := db.Create(&models.User{Email: "ANA@example.com", PasswordHash: "y", Name: "Ana"}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestPasswordLengthLimit(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t)
	long := strings.Repeat("a", MaxPasswordBytes+8)

	_, err := svc.Register(ctx, RegisterInput{Email: "maria@example.com", Password: long, Name: "María"})
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	// 36 runes, 72 bytes.
	user, err := svc.Register(ctx, RegisterInput{Email: "maria@example.com", Password: strings.Repeat("ñ", 36), Name: "María"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterInput{Email: "jose@example.com", Password: strings.Repeat("ñ", 37), Name: "José"})
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	err = svc.ChangePassword(ctx, user.ID, strings.Repeat("ñ", 36), long)
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestLoginKeepsOverlongLegacyPassword(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t)
	long := strings.Repeat("p", 80)
	require.NoError(t, svc.DB.Create(&models.User{
		Email:        "legacy@example.com",
		PasswordHash: long,
		Name:         "Legacy",
	}).Error)

	user, err := svc.Login(ctx, "legacy@example.com", long)
	require.NoError(t, err)
	assert.Equal(t, long, reloadUser(t, svc.DB, "legacy@example.com").PasswordHash)

	require.NoError(t, svc.ChangePassword(ctx, user.ID, long, "nuevo123"))
	_, err = svc.Login(ctx, "legacy@example.com", "nuevo123")
	assert.NoError(t, err)
}

func TestLoginStreak(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t)
	user, err := svc.Register(ctx, RegisterInput{Email: "maria@example.com", Password: "secreto1", Name: "María"})
	require.NoError(t, err)

	day := time.Date(2026, time.May, 1, 20, 0, 0, 0, time.UTC)
	loginOn := func(at time.Time) models.UserStreak {
		t.Helper()
		svc.Now = func() time.Time { return at }
		_, err := svc.Login(ctx, "maria@example.com", "secreto1")
		require.NoError(t, err)
		var s models.UserStreak
		require.NoError(t, svc.DB.Where("user_id = ?", user.ID).First(&s).Error)
		return s
	}

	assert.Equal(t, 1, loginOn(day).StreakDays)
	assert.Equal(t, 1, loginOn(day.Add(2*time.Hour)).StreakDays)
	assert.Equal(t, 2, loginOn(day.Add(6*time.Hour)).StreakDays) // next calendar day
	s := loginOn(day.AddDate(0, 0, 4))
	assert.Equal(t, 1, s.StreakDays)
	assert.Equal(t, 2, s.BestStreak)
}

func TestLoginGrantsWeekStreak(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t)
	user, err := svc.Register(ctx, RegisterInput{Email: "maria@example.com", Password: "secreto1", Name: "María"})
	require.NoError(t, err)

	now := time.Date(2026, time.May, 8, 9, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return now }
	require.NoError(t, svc.DB.Create(&models.UserStreak{
		UserID:     user.ID,
		LastActive: now.AddDate(0, 0, -1),
		StreakDays: 6,
		BestStreak: 6,
	}).Error)

	_, err = svc.Login(ctx, "maria@example.com", "secreto1")
	require.NoError(t, err)

	var n int64
	require.NoError(t, svc.DB.Model(&models.UserAchievement{}).
		Where("user_id = ? AND achievement_id = ?", user.ID, AchievementWeekStreak).
		Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t)
	user, err := svc.Register(ctx, RegisterInput{Email: "maria@example.com", Password: "secreto1", Name: "María"})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, user.ID, "wrong", "nuevo123")
	assert.ErrorIs(t, err, ErrWrongPassword)

	require.NoError(t, svc.ChangePassword(ctx, user.ID, "secreto1", "nuevo123"))
	_, err = svc.Login(ctx, "maria@example.com", "nuevo123")
	assert.NoError(t, err)
	_, err = svc.Login(ctx, "maria@example.com", "secreto1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestFindUser(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t)
	user := testutil.CreateUser(t, svc.DB, "maria@example.com")

	byID, err := svc.FindUser(ctx, user.ID.String())
	require.NoError(t, err)
	assert.Equal(t, user.ID, byID.ID)

	found, err := svc.FindUser(ctx, "MARIA@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = svc.FindUser(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestNewAuthServiceDefaultsCost(t *testing.T) {
	svc := NewAuthService(nil, nil, 0, nil)
	assert.Equal(t, DefaultBcryptCost, svc.Cost)
}
