// services/archive_service.go
package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"rithm-backend/models"
	"rithm-backend/utils"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// ArchiveService snapshots each closed week's leaderboards to object
// storage. The boards themselves always come from the database; the
// archive exists for history pages and offline analysis.
type ArchiveService struct {
	DB          *gorm.DB
	Leaderboard *LeaderboardService
}

func NewArchiveService(db *gorm.DB, lb *LeaderboardService) *ArchiveService {
	return &ArchiveService{DB: db, Leaderboard: lb}
}

// StartArchiveScheduler runs the export hourly. The per-week marker row
// makes repeated runs cheap, so a tight interval just narrows the window
// between week close and archive without re-uploading anything.
func (a *ArchiveService) StartArchiveScheduler() {
	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("❌ Failed to create archive scheduler: %v", err)
		return
	}

	_, err = sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(func() {
			if err := a.ExportPreviousWeek(); err != nil {
				log.Printf("⚠️  Weekly archive export failed: %v", err)
			}
		}),
	)
	if err != nil {
		log.Printf("❌ Failed to schedule archive job: %v", err)
		return
	}

	sched.Start()
	log.Println("✅ Weekly archive scheduler started (hourly)")
}

type archiveDocument struct {
	WeekStart  string       `json:"week_start"`
	Game       string       `json:"game"`
	Difficulty string       `json:"difficulty"`
	ExportedAt time.Time    `json:"exported_at"`
	Rows       []RankingRow `json:"rows"`
}

// ExportPreviousWeek uploads one JSON object per non-empty
// (game, difficulty) board of the most recently closed week, then
// records the week so it is never exported again.
func (a *ArchiveService) ExportPreviousWeek() error {
	if !utils.R2Enabled() {
		return nil
	}

	prev := WeekStart(a.Leaderboard.Now().AddDate(0, 0, -7))

	var existing models.WeeklyArchive
	err := a.DB.Where("week_start = ?", prev).First(&existing).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	exported := 0
	for _, game := range models.Games {
		for _, difficulty := range models.Difficulties {
			rows, err := a.Leaderboard.aggregateWeekly(game, difficulty, prev, 0)
			if err != nil {
				return fmt.Errorf("aggregate %s/%s: %w", game, difficulty, err)
			}
			if len(rows) == 0 {
				continue
			}

			doc := archiveDocument{
				WeekStart:  prev.Format("2006-01-02"),
				Game:       game,
				Difficulty: difficulty,
				ExportedAt: time.Now().UTC(),
				Rows:       make([]RankingRow, 0, len(rows)),
			}
			for i, r := range rows {
				doc.Rows = append(doc.Rows, RankingRow{
					Rank:     i + 1,
					Username: r.Username,
					Correct:  r.TotalCorrect,
					Accuracy: r.Accuracy,
				})
			}

			body, err := json.Marshal(doc)
			if err != nil {
				return fmt.Errorf("marshal %s/%s: %w", game, difficulty, err)
			}

			key := fmt.Sprintf("archives/%s/%s.json", prev.Format("2006-01-02"), slug.Make(game+" "+difficulty))
			if _, err := utils.UploadJSONToR2(key, body); err != nil {
				return fmt.Errorf("upload %s: %w", key, err)
			}
			exported++
		}
	}

	if exported == 0 {
		// Nothing played that week; still mark it closed.
		log.Printf("⚠️  No leaderboard rows for week %s, recording empty archive", prev.Format("2006-01-02"))
	}

	archive := models.WeeklyArchive{
		ID:          uuid.NewString(),
		WeekStart:   prev,
		ObjectCount: exported,
		ExportedAt:  time.Now().UTC(),
	}
	if err := a.DB.Create(&archive).Error; err != nil {
		return err
	}

	log.Printf("✅ Archived week %s (%d objects)", prev.Format("2006-01-02"), exported)
	return nil
}
