// workers/token_cleanup_worker_test.go
package workers

import (
	"fmt"
	"testing"
	"time"

	"rithm-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.EmailVerificationToken{}))
	return db
}

func seedToken(t *testing.T, db *gorm.DB, userID string, expiresAt time.Time, used bool) string {
	t.Helper()
	token := models.EmailVerificationToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     uuid.NewString(),
		ExpiresAt: expiresAt,
	}
	if used {
		now := time.Now()
		token.UsedAt = &now
	}
	require.NoError(t, db.Create(&token).Error)
	return token.ID
}

func TestPurgeOnce(t *testing.T) {
	db := openTestDB(t)
	user := models.User{ID: uuid.NewString(), Username: "alice", Email: "alice@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)

	expired := seedToken(t, db, user.ID, time.Now().Add(-time.Hour), false)
	used := seedToken(t, db, user.ID, time.Now().Add(time.Hour), true)
	live := seedToken(t, db, user.ID, time.Now().Add(time.Hour), false)

	client := NewTokenCleanupClient(db)
	purged, err := client.PurgeOnce()
	require.NoError(t, err)
	assert.Equal(t, int64(2), purged)

	var remaining []models.EmailVerificationToken
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, live, remaining[0].ID)

	for _, gone := range []string{expired, used} {
		var count int64
		require.NoError(t, db.Model(&models.EmailVerificationToken{}).Where("id = ?", gone).Count(&count).Error)
		assert.Zero(t, count)
	}

	t.Run("second run is a no-op", func(t *testing.T) {
		purged, err := client.PurgeOnce()
		require.NoError(t, err)
		assert.Zero(t, purged)
	})
}
