package seed_test

import (
	"context"
	"testing"

	"capdigital/backend/models"
	"capdigital/backend/seed"
	"capdigital/backend/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCatalog(t *testing.T) {
	cat, err := seed.Load()
	require.NoError(t, err)
	require.Len(t, cat.Courses, 6)
	assert.Len(t, cat.Achievements, 10)

	seen := map[uint]bool{}
	for _, c := range cat.Courses {
		assert.Equal(t, c.LessonsCount, len(c.Lessons), "course %d declared count", c.ID)
		assert.True(t, c.IsActive)
		for i, l := range c.Lessons {
			assert.Equal(t, c.ID, l.CourseID)
			assert.Equal(t, i+1, l.OrderIndex)
			assert.False(t, seen[l.ID], "lesson id %d reused", l.ID)
			seen[l.ID] = true
		}
	}
}

func TestParseRejectsBadYAML(t *testing.T) {
	_, err := seed.Parse([]byte("courses: [unterminated"))
	assert.Error(t, err)
}

func TestApplyIsIdempotentAndKeepsEdits(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenInMemoryDB(t)
	cat, err := seed.Load()
	require.NoError(t, err)

	require.NoError(t, seed.Apply(ctx, db, cat))
	require.NoError(t, db.Model(&models.Course{}).Where("id = ?", 1).Update("title", "Editado").Error)
	require.NoError(t, seed.Apply(ctx, db, cat))

	var courses, lessons, achievements int64
	require.NoError(t, db.Model(&models.Course{}).Count(&courses).Error)
	require.NoError(t, db.Model(&models.Lesson{}).Count(&lessons).Error)
	require.NoError(t, db.Model(&models.Achievement{}).Count(&achievements).Error)
	assert.Equal(t, int64(6), courses)
	assert.Equal(t, int64(54), lessons)
	assert.Equal(t, int64(10), achievements)

	var first models.Course
	require.NoError(t, db.First(&first, 1).Error)
	assert.Equal(t, "Editado", first.Title)
}
