// services/stats_service.go
package services

import (
	"errors"

	"rithm-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StatsService struct {
	DB *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{DB: db}
}

// EnsureStat returns the (user, game) stat row, creating a zeroed one on
// first access so callers never deal with a missing record.
func (s *StatsService) EnsureStat(db *gorm.DB, userID, game string) (*models.GameStat, error) {
	var stat models.GameStat
	err := db.Where("user_id = ? AND game = ?", userID, game).First(&stat).Error
	if err == nil {
		return &stat, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	stat = models.GameStat{
		ID:         uuid.NewString(),
		UserID:     userID,
		Game:       game,
		Difficulty: models.DifficultyBeginner,
	}
	if err := db.Create(&stat).Error; err != nil {
		return nil, err
	}
	return &stat, nil
}

func statPayload(stat *models.GameStat) fiber.Map {
	return fiber.Map{
		"correct":    stat.TotalCorrect,
		"total":      stat.TotalAttempts,
		"streak":     stat.CurrentStreak,
		"bestStreak": stat.BestStreak,
		"accuracy":   stat.Accuracy(),
		"difficulty": stat.Difficulty,
	}
}

// GetStats returns the running totals for one game. Anonymous visitors
// get {"authenticated": false} rather than an error, the game pages
// poll this on load regardless of login state.
func (s *StatsService) GetStats(c *fiber.Ctx) error {
	game := c.Params("game")
	if !models.ValidGame(game) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Invalid game"})
	}

	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.JSON(fiber.Map{"authenticated": false})
	}

	stat, err := s.EnsureStat(s.DB, userID, game)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "failed to load stats", "details": err.Error()})
	}

	return c.JSON(fiber.Map{"authenticated": true, "stats": statPayload(stat)})
}

type updateStatsRequest struct {
	Correct    *int    `json:"correct"`
	Total      *int    `json:"total"`
	Streak     *int    `json:"streak"`
	BestStreak *int    `json:"bestStreak"`
	Difficulty *string `json:"difficulty"`
}

// UpdateStats overwrites the running totals with the absolute values the
// game page reports. Only best_streak is monotonic, everything else is
// taken as sent. Omitted fields keep their stored values.
func (s *StatsService) UpdateStats(c *fiber.Ctx) error {
	game := c.Params("game")
	if !models.ValidGame(game) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Invalid game"})
	}

	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "Not authenticated"})
	}

	var req updateStatsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}
	if req.Difficulty != nil && !models.ValidDifficulty(*req.Difficulty) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Invalid difficulty"})
	}

	var stat *models.GameStat
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		stat, err = s.EnsureStat(tx, userID, game)
		if err != nil {
			return err
		}

		if req.Correct != nil {
			stat.TotalCorrect = *req.Correct
		}
		if req.Total != nil {
			stat.TotalAttempts = *req.Total
		}
		if req.Streak != nil {
			stat.CurrentStreak = *req.Streak
		}
		if req.BestStreak != nil && *req.BestStreak > stat.BestStreak {
			stat.BestStreak = *req.BestStreak
		}
		if req.Difficulty != nil {
			stat.Difficulty = *req.Difficulty
		}
		return tx.Save(stat).Error
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	return c.JSON(fiber.Map{"success": true, "stats": statPayload(stat)})
}
