// workers/token_cleanup_worker.go
package workers

import (
	"context"
	"log"
	"time"

	"rithm-backend/models"

	"gorm.io/gorm"
)

// TokenCleanupClient deletes verification tokens that can never be
// redeemed again. Tokens carry no soft-delete column on purpose; a
// spent or expired token has no audit value.
type TokenCleanupClient struct {
	DB *gorm.DB
}

func NewTokenCleanupClient(db *gorm.DB) *TokenCleanupClient {
	return &TokenCleanupClient{DB: db}
}

// PurgeOnce removes every expired or already-used token and reports how
// many rows went away.
func (c *TokenCleanupClient) PurgeOnce() (int64, error) {
	res := c.DB.Where("expires_at < ? OR used_at IS NOT NULL", time.Now()).
		Delete(&models.EmailVerificationToken{})
	return res.RowsAffected, res.Error
}

// PollExpiredTokens runs the purge on a ticker until ctx is cancelled.
func PollExpiredTokens(ctx context.Context, client *TokenCleanupClient, pollInterval time.Duration) {
	log.Println("Starting verification token cleanup...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Token cleanup stopped.")
			return
		case <-ticker.C:
			purged, err := client.PurgeOnce()
			if err != nil {
				log.Printf("❌ Error purging verification tokens: %v", err)
				continue
			}
			if purged > 0 {
				log.Printf("🧹 Purged %d expired verification token(s)", purged)
			}
		}
	}
}
