// services/leaderboard_service.go
package services

import (
	"strconv"
	"time"

	"rithm-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// Anti-gaming floor: a session shorter than this cannot reach the board
	minSessionAttempts = 10

	defaultBoardLimit = 10
	maxBoardLimit     = 50

	PeriodAllTime = "alltime"
	PeriodWeekly  = "weekly"
)

type LeaderboardService struct {
	DB *gorm.DB

	// Now is the clock used for week bucketing; overridable in tests.
	Now func() time.Time
}

func NewLeaderboardService(db *gorm.DB) *LeaderboardService {
	return &LeaderboardService{DB: db, Now: time.Now}
}

// WeekStart returns the Monday on or before t, at midnight UTC. Every
// read and write path buckets weeks through this one function — two call
// sites disagreeing on the boundary would split a user's week in half.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	monday := t.AddDate(0, 0, -offset)
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *LeaderboardService) currentWeekStart() time.Time {
	return WeekStart(s.Now())
}

// BoardRow is one leaderboard line as rendered on the leaderboard page.
type BoardRow struct {
	Rank       int     `json:"rank"`
	Username   string  `json:"username"`
	Correct    int     `json:"correct"`
	Accuracy   float64 `json:"accuracy"`
	BestStreak int     `json:"best_streak"`
	Sessions   int     `json:"sessions"`
}

// RankingRow is the slimmer shape the public rankings API returns.
type RankingRow struct {
	Rank     int     `json:"rank"`
	Username string  `json:"username"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
}

type submitScoreRequest struct {
	Game       string `json:"game"`
	Difficulty string `json:"difficulty"`
	Correct    int    `json:"correct"`
	Total      int    `json:"total"`
	BestStreak int    `json:"bestStreak"`
}

// SubmitScore validates and records one finished session, folds it into
// the caller's weekly aggregate and answers with their fresh all-time
// rank. All three writes commit or roll back together.
func (s *LeaderboardService) SubmitScore(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "Not authenticated"})
	}

	var req submitScoreRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}
	if req.Difficulty == "" {
		req.Difficulty = models.DifficultyBeginner
	}

	if !models.ValidGame(req.Game) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Invalid game"})
	}
	if !models.ValidDifficulty(req.Difficulty) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Invalid difficulty"})
	}
	if req.Total < minSessionAttempts {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Minimum 10 attempts required"})
	}
	if req.Correct < 0 || req.Correct > req.Total {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Invalid score values"})
	}

	score := &models.Score{
		ID:         uuid.NewString(),
		UserID:     userID,
		Game:       req.Game,
		Difficulty: req.Difficulty,
		Correct:    req.Correct,
		Total:      req.Total,
		BestStreak: req.BestStreak,
	}

	var rank int
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(score).Error; err != nil {
			return err
		}
		if err := s.accumulateWeekly(tx, score); err != nil {
			return err
		}
		r, err := s.rankOnSubmit(tx, userID, req.Game, req.Difficulty)
		if err != nil {
			return err
		}
		rank = r
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"score_id":   score.ID,
		"rank":       rank,
		"difficulty": req.Difficulty,
	})
}

// accumulateWeekly folds one session into the caller's aggregate row for
// the current week. Insert-then-locked-read keeps two concurrent
// submissions from the same user from losing an update: the ON CONFLICT
// insert guarantees the row exists, the locked re-read serializes the
// increment.
func (s *LeaderboardService) accumulateWeekly(tx *gorm.DB, score *models.Score) error {
	weekStart := s.currentWeekStart()

	blank := models.WeeklyScore{
		ID:         uuid.NewString(),
		UserID:     score.UserID,
		Game:       score.Game,
		Difficulty: score.Difficulty,
		WeekStart:  weekStart,
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"}, {Name: "game"}, {Name: "difficulty"}, {Name: "week_start"},
		},
		DoNothing: true,
	}).Create(&blank).Error; err != nil {
		return err
	}

	q := tx
	// SQLite serializes writers and has no FOR UPDATE syntax
	if tx.Dialector.Name() != "sqlite" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var weekly models.WeeklyScore
	if err := q.Where(
		"user_id = ? AND game = ? AND difficulty = ? AND week_start = ?",
		score.UserID, score.Game, score.Difficulty, weekStart,
	).First(&weekly).Error; err != nil {
		return err
	}

	weekly.TotalCorrect += score.Correct
	weekly.TotalAttempts += score.Total
	weekly.SessionsPlayed++
	if score.BestStreak > weekly.BestStreak {
		weekly.BestStreak = score.BestStreak
	}
	return tx.Save(&weekly).Error
}

// rankOnSubmit is "count of users whose all-time correct-sum strictly
// exceeds the caller's, plus one", evaluated against the rows this
// transaction just wrote.
func (s *LeaderboardService) rankOnSubmit(tx *gorm.DB, userID, game, difficulty string) (int, error) {
	var mine int
	if err := tx.Model(&models.Score{}).
		Where("user_id = ? AND game = ? AND difficulty = ?", userID, game, difficulty).
		Select("COALESCE(SUM(correct), 0)").
		Scan(&mine).Error; err != nil {
		return 0, err
	}

	var ahead int64
	err := tx.Raw(`
		SELECT COUNT(*) FROM (
			SELECT user_id
			FROM scores
			WHERE game = ? AND difficulty = ?
			GROUP BY user_id
			HAVING SUM(correct) > ?
		) ahead
	`, game, difficulty, mine).Scan(&ahead).Error
	if err != nil {
		return 0, err
	}
	return int(ahead) + 1, nil
}

type aggregatedRow struct {
	UserID     string
	Username   string
	Correct    int
	Attempts   int
	BestStreak int
	Sessions   int
}

// aggregateAllTime groups every score for (game, difficulty) by user and
// orders by summed correct. Ties break on derived accuracy, then user id,
// so the ordering is total and stable. difficulty "" matches every
// difficulty (the public rankings API does not filter on it); limit <= 0
// means unlimited.
func (s *LeaderboardService) aggregateAllTime(game, difficulty string, limit int) ([]aggregatedRow, error) {
	query := `
		SELECT u.id AS user_id,
		       u.username AS username,
		       SUM(s.correct) AS correct,
		       SUM(s.total) AS attempts,
		       MAX(s.best_streak) AS best_streak,
		       COUNT(s.id) AS sessions
		FROM scores s
		JOIN users u ON u.id = s.user_id AND u.deleted_at IS NULL
		WHERE s.game = ?`
	args := []interface{}{game}
	if difficulty != "" {
		query += ` AND s.difficulty = ?`
		args = append(args, difficulty)
	}
	query += `
		GROUP BY u.id, u.username
		ORDER BY correct DESC,
		         CASE WHEN SUM(s.total) > 0 THEN 1.0 * SUM(s.correct) / SUM(s.total) ELSE 0 END DESC,
		         u.id ASC`
	if limit > 0 {
		query += `
		LIMIT ?`
		args = append(args, limit)
	}

	var rows []aggregatedRow
	if err := s.DB.Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

type weeklyRow struct {
	UserID         string
	Username       string
	TotalCorrect   int
	TotalAttempts  int
	Accuracy       float64
	BestStreak     int
	SessionsPlayed int
}

// aggregateWeekly reads the pre-aggregated rows for one week; each row
// already carries a user's cumulative week state, so no grouping is
// needed. Same filter and limit conventions as aggregateAllTime.
func (s *LeaderboardService) aggregateWeekly(game, difficulty string, weekStart time.Time, limit int) ([]weeklyRow, error) {
	q := s.DB.Table("weekly_scores AS ws").
		Select("ws.user_id, u.username, ws.total_correct, ws.total_attempts, ws.accuracy, ws.best_streak, ws.sessions_played").
		Joins("JOIN users u ON u.id = ws.user_id AND u.deleted_at IS NULL").
		Where("ws.game = ? AND ws.week_start = ?", game, weekStart).
		Order("ws.total_correct DESC, ws.accuracy DESC, ws.user_id ASC")
	if difficulty != "" {
		q = q.Where("ws.difficulty = ?", difficulty)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []weeklyRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *LeaderboardService) boardRows(game, difficulty, period string, limit int) ([]BoardRow, error) {
	rows := make([]BoardRow, 0)
	if period == PeriodWeekly {
		weekly, err := s.aggregateWeekly(game, difficulty, s.currentWeekStart(), limit)
		if err != nil {
			return nil, err
		}
		for i, w := range weekly {
			rows = append(rows, BoardRow{
				Rank:       i + 1,
				Username:   w.Username,
				Correct:    w.TotalCorrect,
				Accuracy:   w.Accuracy,
				BestStreak: w.BestStreak,
				Sessions:   w.SessionsPlayed,
			})
		}
		return rows, nil
	}

	agg, err := s.aggregateAllTime(game, difficulty, limit)
	if err != nil {
		return nil, err
	}
	for i, a := range agg {
		rows = append(rows, BoardRow{
			Rank:       i + 1,
			Username:   a.Username,
			Correct:    a.Correct,
			Accuracy:   models.RoundAccuracy(a.Correct, a.Attempts),
			BestStreak: a.BestStreak,
			Sessions:   a.Sessions,
		})
	}
	return rows, nil
}

// LookupRank returns the caller's row as it would appear on the
// UNLIMITED leaderboard, or nil when they have no qualifying entries.
// The rank is never re-derived from a truncated page: a user ranked 37th
// reports 37 even though the page shows ten rows.
func (s *LeaderboardService) LookupRank(userID, game, difficulty, period string) (*BoardRow, error) {
	if period == PeriodWeekly {
		weekly, err := s.aggregateWeekly(game, difficulty, s.currentWeekStart(), 0)
		if err != nil {
			return nil, err
		}
		for i, w := range weekly {
			if w.UserID == userID {
				return &BoardRow{
					Rank:       i + 1,
					Username:   w.Username,
					Correct:    w.TotalCorrect,
					Accuracy:   w.Accuracy,
					BestStreak: w.BestStreak,
					Sessions:   w.SessionsPlayed,
				}, nil
			}
		}
		return nil, nil
	}

	agg, err := s.aggregateAllTime(game, difficulty, 0)
	if err != nil {
		return nil, err
	}
	for i, a := range agg {
		if a.UserID == userID {
			return &BoardRow{
				Rank:       i + 1,
				Username:   a.Username,
				Correct:    a.Correct,
				Accuracy:   models.RoundAccuracy(a.Correct, a.Attempts),
				BestStreak: a.BestStreak,
				Sessions:   a.Sessions,
			}, nil
		}
	}
	return nil, nil
}

// GetLeaderboardPage serves the full context the leaderboard page
// renders from: catalog tabs, the top-50 board for the selected filters
// and, for logged-in users, their own standing via the full-table lookup.
func (s *LeaderboardService) GetLeaderboardPage(c *fiber.Ctx) error {
	game := c.Query("game", models.GameNote)
	difficulty := c.Query("difficulty", models.DifficultyBeginner)
	period := c.Query("period", PeriodAllTime)

	// Unknown difficulty silently falls back; unknown game or period is
	// passed through and simply matches nothing.
	if !models.ValidDifficulty(difficulty) {
		difficulty = models.DifficultyBeginner
	}

	board, err := s.boardRows(game, difficulty, period, maxBoardLimit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load leaderboard", "details": err.Error()})
	}

	var userRank *BoardRow
	if userID, _ := c.Locals("user_id").(string); userID != "" {
		userRank, err = s.LookupRank(userID, game, difficulty, period)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to look up rank", "details": err.Error()})
		}
	}

	var pages []models.GamePage
	if err := s.DB.Where("scored = ?", true).Order("sort_order ASC").Find(&pages).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load game catalog", "details": err.Error()})
	}

	return c.JSON(fiber.Map{
		"games": pages,
		"difficulties": []fiber.Map{
			{"id": models.DifficultyBeginner, "name": "Beginner", "icon": "fa-seedling"},
			{"id": models.DifficultyIntermediate, "name": "Intermediate", "icon": "fa-leaf"},
			{"id": models.DifficultyAdvanced, "name": "Advanced", "icon": "fa-tree"},
		},
		"current_game":       game,
		"current_difficulty": difficulty,
		"period":             period,
		"leaderboard":        board,
		"user_rank":          userRank,
	})
}

// GetRankings is the public JSON rankings API. It filters by game only
// (no difficulty), defaults to the all-time period and caps the page at
// fifty rows no matter what the client asks for.
func (s *LeaderboardService) GetRankings(c *fiber.Ctx) error {
	game := c.Query("game", models.GameNote)
	period := c.Query("period", PeriodAllTime)
	limit := clampBoardLimit(c.Query("limit"))

	board, err := s.boardRows(game, "", period, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load rankings", "details": err.Error()})
	}

	rows := make([]RankingRow, 0, len(board))
	for _, b := range board {
		rows = append(rows, RankingRow{Rank: b.Rank, Username: b.Username, Correct: b.Correct, Accuracy: b.Accuracy})
	}
	return c.JSON(fiber.Map{"leaderboard": rows})
}

func clampBoardLimit(raw string) int {
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return defaultBoardLimit
	}
	if limit > maxBoardLimit {
		return maxBoardLimit
	}
	return limit
}
