package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"capdigital/backend/models"
	"capdigital/backend/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// run executes the root command against db and returns stdout.
func run(t *testing.T, testDB *gorm.DB, args ...string) (string, error) {
	t.Helper()
	db = testDB
	jsonOutput, deleteOrphs = false, false
	t.Cleanup(func() { db = nil })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAuditAndSyncCommands(t *testing.T) {
	testDB := testutil.OpenSeededDB(t)
	require.NoError(t, testDB.Model(&models.Course{}).Where("id = ?", 4).Update("lessons_count", 9).Error)

	out, err := run(t, testDB, "audit")
	require.NoError(t, err)
	assert.Contains(t, out, "DRIFT course 4")
	assert.Contains(t, out, "1 course(s) drifted, 0 orphan lesson(s)")

	out, err = run(t, testDB, "sync-counts")
	require.NoError(t, err)
	assert.Contains(t, out, "9 -> 6")

	out, err = run(t, testDB, "audit", "--json")
	require.NoError(t, err)
	var audit struct {
		Courses []struct {
			InSync bool `json:"in_sync"`
		} `json:"courses"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &audit))
	require.Len(t, audit.Courses, 6)
	for _, c := range audit.Courses {
		assert.True(t, c.InSync)
	}
}

func TestOrphansCommand(t *testing.T) {
	testDB := testutil.OpenSeededDB(t)
	user := testutil.CreateUser(t, testDB, "learner@example.com")
	testutil.CompleteLessons(t, testDB, user.ID, 1, 5000)

	out, err := run(t, testDB, "orphans")
	require.NoError(t, err)
	assert.Contains(t, out, "lesson=5000")
	assert.Contains(t, out, "1 orphaned progress record(s)")

	out, err = run(t, testDB, "orphans", "--delete")
	require.NoError(t, err)
	assert.Contains(t, out, "1 orphaned progress record(s) deleted")

	var left int64
	require.NoError(t, testDB.Model(&models.UserProgress{}).Count(&left).Error)
	assert.Equal(t, int64(1), left)
}

func TestUserReportAndReevaluate(t *testing.T) {
	testDB := testutil.OpenSeededDB(t)
	user := testutil.CreateUser(t, testDB, "learner@example.com")
	testutil.CompleteLessons(t, testDB, user.ID, testutil.LessonIDs(t, testDB, 1)...)

	out, err := run(t, testDB, "user-report", "learner@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, `course 1 "Fundamentos del Celular": 100%`)
	assert.Contains(t, out, "[x]  1")

	out, err = run(t, testDB, "reevaluate", user.ID.String())
	require.NoError(t, err)
	assert.Contains(t, out, "3 achievement(s) granted")

	out, err = run(t, testDB, "reevaluate", user.ID.String())
	require.NoError(t, err)
	assert.Contains(t, out, "0 achievement(s) granted")

	_, err = run(t, testDB, "user-report", "nobody@example.com")
	assert.Error(t, err)
}
