// services/admin_service.go
package services

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AdminService struct {
	DB *gorm.DB
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{DB: db}
}

type adminScoreRow struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Game       string    `json:"game"`
	Difficulty string    `json:"difficulty"`
	Correct    int       `json:"correct"`
	Total      int       `json:"total"`
	Accuracy   float64   `json:"accuracy"`
	BestStreak int       `json:"best_streak"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListScores returns raw session rows for support and moderation work,
// newest first, optionally filtered by game and username.
func (s *AdminService) ListScores(c *fiber.Ctx) error {
	q := s.DB.Table("scores AS s").
		Select("s.id, u.username, s.game, s.difficulty, s.correct, s.total, s.accuracy, s.best_streak, s.created_at").
		Joins("JOIN users u ON u.id = s.user_id").
		Order("s.created_at DESC").
		Limit(clampBoardLimit(c.Query("limit", "50")))

	if game := c.Query("game"); game != "" {
		q = q.Where("s.game = ?", game)
	}
	if username := c.Query("username"); username != "" {
		q = q.Where("u.username = ?", username)
	}

	rows := make([]adminScoreRow, 0)
	if err := q.Scan(&rows).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "failed to list scores", "details": err.Error()})
	}
	return c.JSON(fiber.Map{"scores": rows})
}

type adminWeeklyRow struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Game           string    `json:"game"`
	Difficulty     string    `json:"difficulty"`
	WeekStart      time.Time `json:"week_start"`
	TotalCorrect   int       `json:"total_correct"`
	TotalAttempts  int       `json:"total_attempts"`
	Accuracy       float64   `json:"accuracy"`
	BestStreak     int       `json:"best_streak"`
	SessionsPlayed int       `json:"sessions_played"`
}

// ListWeeklyScores returns weekly aggregate rows, most recent week
// first, optionally filtered by game and week_start (YYYY-MM-DD).
func (s *AdminService) ListWeeklyScores(c *fiber.Ctx) error {
	q := s.DB.Table("weekly_scores AS ws").
		Select("ws.id, u.username, ws.game, ws.difficulty, ws.week_start, ws.total_correct, ws.total_attempts, ws.accuracy, ws.best_streak, ws.sessions_played").
		Joins("JOIN users u ON u.id = ws.user_id").
		Order("ws.week_start DESC, ws.game ASC").
		Limit(clampBoardLimit(c.Query("limit", "50")))

	if game := c.Query("game"); game != "" {
		q = q.Where("ws.game = ?", game)
	}
	if raw := c.Query("week_start"); raw != "" {
		week, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Invalid week_start, expected YYYY-MM-DD"})
		}
		q = q.Where("ws.week_start = ?", week)
	}

	rows := make([]adminWeeklyRow, 0)
	if err := q.Scan(&rows).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "failed to list weekly scores", "details": err.Error()})
	}
	return c.JSON(fiber.Map{"weekly_scores": rows})
}
