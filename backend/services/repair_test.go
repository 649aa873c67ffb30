package services

import (
	"context"
	"testing"

	"capdigital/backend/models"
	"capdigital/backend/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditCatalogInSync(t *testing.T) {
	db := testutil.OpenSeededDB(t)
	svc := NewRepairService(db, nil)

	audit, err := svc.AuditCatalog(context.Background())
	require.NoError(t, err)
	require.Len(t, audit.Courses, 6)
	assert.Zero(t, audit.Drifted())
	assert.Empty(t, audit.OrphanLessons)
}

func TestSyncLessonCounts(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenSeededDB(t)
	svc := NewRepairService(db, nil)

	require.NoError(t, db.Model(&models.Course{}).Where("id = ?", 1).Update("lessons_count", 5).Error)
	// An inactive lesson does not count.
	require.NoError(t, db.Model(&models.Lesson{}).Where("id = ?", testutil.LessonIDs(t, db, 2)[0]).Update("is_active", false).Error)

	audit, err := svc.AuditCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, audit.Drifted())

	changed, err := svc.SyncLessonCounts(ctx)
	require.NoError(t, err)
	require.Len(t, changed, 2)
	assert.Equal(t, uint(1), changed[0].CourseID)
	assert.Equal(t, int64(8), changed[0].ActualCount)
	assert.Equal(t, uint(2), changed[1].CourseID)
	assert.Equal(t, int64(9), changed[1].ActualCount)

	var c models.Course
	require.NoError(t, db.First(&c, 2).Error)
	assert.Equal(t, 9, c.LessonsCount)

	changed, err = svc.SyncLessonCounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, changed)
}

func TestAuditFindsOrphanLessons(t *testing.T) {
	db := testutil.OpenSeededDB(t)
	require.NoError(t, db.Create(&models.Lesson{ID: 900, CourseID: 77, Title: "Huérfana", OrderIndex: 1, IsActive: true}).Error)

	audit, err := NewRepairService(db, nil).AuditCatalog(context.Background())
	require.NoError(t, err)
	require.Len(t, audit.OrphanLessons, 1)
	assert.Equal(t, uint(900), audit.OrphanLessons[0].ID)
}

func TestOrphanedProgress(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenSeededDB(t)
	svc := NewRepairService(db, nil)
	user := testutil.CreateUser(t, db, "learner@example.com")

	testutil.CompleteLessons(t, db, user.ID, 1, 2, 9999)

	orphans, err := svc.OrphanedProgress(ctx)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, uint(9999), orphans[0].LessonID)

	n, err := svc.DeleteOrphanedProgress(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var left int64
	require.NoError(t, db.Model(&models.UserProgress{}).Where("user_id = ?", user.ID).Count(&left).Error)
	assert.Equal(t, int64(2), left)

	orphans, err = svc.OrphanedProgress(ctx)
	require.NoError(t, err)
	assert.Empty(t, orphans)
}

func TestUserReport(t *testing.T) {
	db := testutil.OpenSeededDB(t)
	user := testutil.CreateUser(t, db, "learner@example.com")
	lessons := testutil.LessonIDs(t, db, 1)
	testutil.CompleteLessons(t, db, user.ID, lessons[0], lessons[1])

	report, err := NewRepairService(db, nil).UserReport(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, report, 6)
	assert.Equal(t, 25, report[0].Percentage)
	require.Len(t, report[0].Lessons, 8)
	assert.True(t, report[0].Lessons[0].Completed)
	assert.True(t, report[0].Lessons[1].Completed)
	assert.False(t, report[0].Lessons[2].Completed)
	assert.Equal(t, 0, report[1].Percentage)
}
