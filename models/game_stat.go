package models

import "math"

// GameStat holds the running practice totals shown on a user's profile
// page, one row per (user, game). Unlike leaderboard scores these are
// absolute values the game page reports back, not per-session deltas.
type GameStat struct {
	ID     string `gorm:"primaryKey" json:"id"`
	UserID string `gorm:"not null;uniqueIndex:idx_game_stats_user_game" json:"user_id"`
	User   *User  `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	Game   string `gorm:"type:varchar(20);not null;uniqueIndex:idx_game_stats_user_game" json:"game"`

	TotalCorrect  int `gorm:"default:0" json:"total_correct"`
	TotalAttempts int `gorm:"default:0" json:"total_attempts"`
	BestStreak    int `gorm:"default:0" json:"best_streak"`
	CurrentStreak int `gorm:"default:0" json:"current_streak"`

	// Last difficulty the user practiced at, restored when the page loads
	Difficulty string `gorm:"type:varchar(20);default:'beginner'" json:"difficulty"`

	Timestamps
}

// Accuracy is the whole-percent figure the profile page displays.
func (g *GameStat) Accuracy() int {
	if g.TotalAttempts == 0 {
		return 0
	}
	return int(math.Round(float64(g.TotalCorrect) / float64(g.TotalAttempts) * 100))
}
