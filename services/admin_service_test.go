// services/admin_service_test.go
package services

import (
	"net/http"
	"testing"

	"rithm-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func adminApp(svc *AdminService) *fiber.App {
	app := fiber.New()
	app.Get("/admin/scores", svc.ListScores)
	app.Get("/admin/weekly-scores", svc.ListWeeklyScores)
	return app
}

func seedAdminFixtures(t *testing.T, db *gorm.DB) {
	t.Helper()
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	for _, s := range []struct {
		user *models.User
		game string
	}{
		{alice, models.GameNote},
		{alice, models.GameChord},
		{bob, models.GameNote},
	} {
		require.NoError(t, db.Create(&models.Score{
			ID: uuid.NewString(), UserID: s.user.ID,
			Game: s.game, Difficulty: models.DifficultyBeginner,
			Correct: 8, Total: 10,
		}).Error)
	}
}

func TestAdminListScores(t *testing.T) {
	db := openTestDB(t)
	seedAdminFixtures(t, db)
	app := adminApp(NewAdminService(db))

	status, body := doJSON(t, app, http.MethodGet, "/admin/scores", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["scores"].([]interface{}), 3)

	status, body = doJSON(t, app, http.MethodGet, "/admin/scores?game=note&username=alice", nil)
	require.Equal(t, http.StatusOK, status)
	rows := body["scores"].([]interface{})
	require.Len(t, rows, 1)
	row := rows[0].(map[string]interface{})
	assert.Equal(t, "alice", row["username"])
	assert.Equal(t, "note", row["game"])
	assert.Equal(t, float64(80), row["accuracy"])
}

func TestAdminListWeeklyScores(t *testing.T) {
	db := openTestDB(t)
	svc := NewLeaderboardService(db)
	user := createUser(t, db, "alice")
	app := boardApp(svc, user.ID)

	status, _ := doJSON(t, app, http.MethodPost, "/leaderboard/api/submit", submitPayload("note", "beginner", 8, 10, 4))
	require.Equal(t, http.StatusOK, status)

	admin := adminApp(NewAdminService(db))
	week := svc.currentWeekStart().Format("2006-01-02")

	status, body := doJSON(t, admin, http.MethodGet, "/admin/weekly-scores?game=note&week_start="+week, nil)
	require.Equal(t, http.StatusOK, status)
	rows := body["weekly_scores"].([]interface{})
	require.Len(t, rows, 1)
	assert.Equal(t, "alice", rows[0].(map[string]interface{})["username"])

	status, body = doJSON(t, admin, http.MethodGet, "/admin/weekly-scores?week_start=garbage", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid week_start, expected YYYY-MM-DD", body["error"])
}
